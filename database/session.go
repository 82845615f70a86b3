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
	"sync"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Session is a unit-of-work handle over a dedicated pooled connection.
// Sessions are created per operation by a SessionProvider and must be
// released on every exit path, including error paths.
type Session struct {
	id       string
	conn     bun.Conn
	logger   Logger
	mu       sync.Mutex
	released bool
}

// ID returns the session's unique identifier, used in debug logs.
func (s *Session) ID() string { return s.id }

// DB exposes the session's query surface. All queries composed on the
// returned IDB run on the session's dedicated connection.
func (s *Session) DB() bun.IDB { return s.conn }

// Release returns the underlying connection to the pool. Releasing twice is
// a no-op.
func (s *Session) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	s.released = true
	if s.logger != nil {
		s.logger.Debug("Session released", "session", s.id)
	}
	return s.conn.Close()
}

// SessionProvider hands out fresh sessions against a managed database.
// When MigrateOnAcquire is enabled, pending schema migrations are applied
// before each session is returned.
type SessionProvider struct {
	manager          Manager
	logger           Logger
	migrateOnAcquire bool
}

// NewSessionProvider returns a provider over the given manager.
func NewSessionProvider(manager Manager, migrate MigrateConfig) *SessionProvider {
	return &SessionProvider{
		manager:          manager,
		logger:           GetLogger(),
		migrateOnAcquire: migrate.MigrateOnAcquire,
	}
}

// Acquire returns a new session. The caller owns the session's lifetime and
// must call Release when done.
func (p *SessionProvider) Acquire(ctx context.Context) (*Session, error) {
	if p == nil || p.manager == nil {
		return nil, ErrNotConnected
	}
	db := p.manager.GetDB()
	if db == nil {
		return nil, ErrNotConnected
	}

	if p.migrateOnAcquire {
		if err := p.manager.RunMigrations(ctx); err != nil {
			return nil, fmt.Errorf("migrate on acquire failed: %w", err)
		}
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}

	s := &Session{
		id:     uuid.NewString(),
		conn:   conn,
		logger: p.logger,
	}
	if p.logger != nil {
		p.logger.Debug("Session acquired", "session", s.id)
	}
	return s, nil
}

// Manager returns the provider's underlying database manager.
func (p *SessionProvider) Manager() Manager { return p.manager }
