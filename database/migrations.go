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
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/uptrace/bun"
)

// Migrator applies versioned schema migrations. Applied versions are
// recorded in a tracking table, so running the migrator repeatedly is cheap
// and idempotent.
type Migrator struct {
	db     *bun.DB
	logger Logger
}

// Migration is an applied migration record stored in the database.
type Migration struct {
	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

var (
	customMigrations   []MigrationItem
	customMigrationsMu sync.Mutex
)

// RegisterMigration appends a custom migration item run after the built-in
// table creation step. Versions must be unique and sort after "001".
func RegisterMigration(item MigrationItem) {
	customMigrationsMu.Lock()
	defer customMigrationsMu.Unlock()
	customMigrations = append(customMigrations, item)
}

// NewMigrator constructs a Migrator using the provided Bun database.
func NewMigrator(db *bun.DB, logger Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

// Run creates the migration tracking table if needed and executes all
// pending migrations in ascending version order.
func (m *Migrator) Run(ctx context.Context) error {
	if m.db == nil {
		return ErrNotConnected
	}

	if err := m.createMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations := m.allMigrations()
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	for _, migration := range migrations {
		if err := m.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}
	return nil
}

func (m *Migrator) createMigrationTable(ctx context.Context) error {
	_, err := m.db.NewCreateTable().
		Model((*Migration)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (m *Migrator) allMigrations() []MigrationItem {
	migrations := []MigrationItem{
		{
			Version:     "001",
			Name:        "create_model_tables",
			Description: "Create tables for all registered entity models",
			Up:          m.createModelTables,
		},
	}
	customMigrationsMu.Lock()
	migrations = append(migrations, customMigrations...)
	customMigrationsMu.Unlock()
	return migrations
}

func (m *Migrator) runMigration(ctx context.Context, migration MigrationItem) error {
	exists, err := m.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", migration.Version).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	var committed bool
	defer func(tx bun.Tx) {
		if !committed {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && m.logger != nil {
				m.logger.Error("Failed to rollback migration transaction", "error", rollbackErr)
			}
		}
	}(tx)

	if err := migration.Up(ctx, tx); err != nil {
		return err
	}

	record := &Migration{
		Version:     migration.Version,
		Name:        migration.Name,
		AppliedAt:   time.Now(),
		Description: migration.Description,
	}
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	if m.logger != nil {
		m.logger.Info("Migration executed", "version", migration.Version, "name", migration.Name)
	}
	return nil
}

func (m *Migrator) createModelTables(ctx context.Context, db bun.IDB) error {
	for _, model := range RegisteredModelInstances() {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}
	return nil
}

// Applied returns migration records ordered by version.
func (m *Migrator) Applied(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := m.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}
