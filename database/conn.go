/*
 * Copyright 2026 gannetio.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"

	"github.com/uptrace/bun"
)

var (
	globalFactory *Factory
	globalConfig  *Config
)

// InitDB initializes the global database using the provided configuration
// and runs migrations according to cfg.Migrate.MigrateOnConnect.
func InitDB(cfg *Config) (*bun.DB, error) {
	if cfg == nil {
		return nil, ErrNotConnected
	}
	globalConfig = cfg

	factory := NewFactory()
	if _, err := factory.CreateFromConfig(cfg); err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := factory.Initialize(ctx, cfg.Migrate.MigrateOnConnect); err != nil {
		return nil, err
	}

	globalFactory = factory
	return factory.DB(), nil
}

// GetDB returns the global Bun database instance, or nil when uninitialized.
func GetDB() *bun.DB {
	if globalFactory == nil {
		return nil
	}
	return globalFactory.DB()
}

// Sessions returns the global session provider, or nil when uninitialized.
func Sessions() *SessionProvider {
	if globalFactory == nil {
		return nil
	}
	return globalFactory.Sessions()
}

// GetManager returns the global database manager.
func GetManager() Manager {
	if globalFactory == nil {
		return nil
	}
	return globalFactory.Manager()
}

// CloseDB closes the global database connection.
func CloseDB() error {
	if globalFactory == nil {
		return nil
	}
	err := globalFactory.Close()
	globalFactory = nil
	return err
}

// RunMigrations executes pending migrations against the global database.
func RunMigrations() error {
	if globalFactory == nil || globalFactory.Manager() == nil {
		return ErrNotConnected
	}
	return globalFactory.Manager().RunMigrations(context.Background())
}

// GetHealthStatus returns the current global database health status.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	if globalFactory == nil {
		return &HealthStatus{
			Healthy:   false,
			Connected: false,
			LastError: ErrNotConnected.Error(),
		}
	}
	return globalFactory.HealthStatus(ctx)
}

// GetDatabaseStats returns global database pool statistics.
func GetDatabaseStats() *DBStats {
	if globalFactory == nil {
		return &DBStats{}
	}
	return globalFactory.Stats()
}
