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
	"errors"
	"path/filepath"
	"testing"
)

func newTestManager(t *testing.T, connect bool) Manager {
	t.Helper()
	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = filepath.Join(t.TempDir(), "gannet_database_test")
	cfg.HealthCheckInterval = 0
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1

	manager := NewManager(cfg)
	if connect {
		if err := manager.Connect(context.Background()); err != nil {
			t.Fatalf("connect: %v", err)
		}
		t.Cleanup(func() { _ = manager.Disconnect() })
	}
	return manager
}

func TestAcquireBeforeConnect(t *testing.T) {
	manager := newTestManager(t, false)
	provider := NewSessionProvider(manager, MigrateConfig{})

	_, err := provider.Acquire(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestAcquireAndRelease(t *testing.T) {
	manager := newTestManager(t, true)
	provider := NewSessionProvider(manager, MigrateConfig{})
	ctx := context.Background()

	session, err := provider.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if session.ID() == "" {
		t.Fatalf("session must carry an identifier")
	}

	var one int
	if err := session.DB().NewSelect().ColumnExpr("1").Scan(ctx, &one); err != nil {
		t.Fatalf("query on session: %v", err)
	}
	if one != 1 {
		t.Fatalf("expected 1, got %d", one)
	}

	if err := session.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	// Releasing twice is a no-op.
	if err := session.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	manager := newTestManager(t, true)
	provider := NewSessionProvider(manager, MigrateConfig{})
	ctx := context.Background()

	first, err := provider.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	firstID := first.ID()
	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	second, err := provider.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() { _ = second.Release() }()

	if second.ID() == firstID {
		t.Fatalf("each acquisition must produce a fresh session")
	}
}

func TestMigrateOnAcquire(t *testing.T) {
	manager := newTestManager(t, true)
	provider := NewSessionProvider(manager, MigrateConfig{MigrateOnAcquire: true})
	ctx := context.Background()

	session, err := provider.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer func() { _ = session.Release() }()

	applied, err := NewMigrator(manager.GetDB(), nil).Applied(ctx)
	if err != nil {
		t.Fatalf("applied: %v", err)
	}
	if len(applied) == 0 || applied[0].Version != "001" {
		t.Fatalf("expected migration 001 applied on acquire, got %+v", applied)
	}
}

func TestManagerHealthCheck(t *testing.T) {
	manager := newTestManager(t, true)

	status := manager.HealthCheck(context.Background())
	if !status.Healthy || !status.Connected {
		t.Fatalf("expected healthy status, got %+v", status)
	}
	if status.ResponseTime < 0 {
		t.Fatalf("response time must be non-negative")
	}
}
