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
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type bunManager struct {
	config          *ConnectionConfig
	db              *bun.DB
	sqlDB           *sql.DB
	logger          Logger
	mu              sync.RWMutex
	connected       bool
	lastError       error
	reconnectTries  int
	stopHealthCheck chan struct{}
	healthCheckOnce sync.Once
}

// NewManager returns a Manager backed by Bun. If config is nil, defaults
// are used.
func NewManager(config *ConnectionConfig) Manager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	return &bunManager{
		config:          config,
		stopHealthCheck: make(chan struct{}),
	}
}

func (m *bunManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected && m.db != nil {
		return nil
	}

	var err error
	m.sqlDB, m.db, err = m.openConnection()
	if err != nil {
		m.lastError = err
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	m.configurePool()

	ctxTimeout, cancel := context.WithTimeout(ctx, m.config.ConnectTimeout)
	defer cancel()

	if err := m.db.PingContext(ctxTimeout); err != nil {
		m.lastError = err
		return fmt.Errorf("database connection test failed: %w", err)
	}

	m.connected = true
	m.lastError = nil
	m.reconnectTries = 0

	if m.config.HealthCheckInterval > 0 {
		m.startHealthCheck()
	}

	if m.logger != nil {
		m.logger.Info("Database connected", "type", m.config.Type, "host", m.config.Host)
	}
	return nil
}

func (m *bunManager) openConnection() (*sql.DB, *bun.DB, error) {
	var sqlDB *sql.DB
	var db *bun.DB
	var err error

	if m.config.ConnectTimeout <= 0 {
		m.config.ConnectTimeout = 30 * time.Second
	}

	switch m.config.Type {
	case "mysql":
		sqlDB, db, err = m.openMySQL()
	case "postgres", "postgresql":
		sqlDB, db, err = m.openPostgreSQL()
	case "sqlite", "sqlite3":
		sqlDB, db, err = m.openSQLite()
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", m.config.Type)
	}

	if err != nil {
		return nil, nil, err
	}

	if m.config.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}

	if m.config.SlowQueryTime > 0 {
		db.AddQueryHook(&slowQueryHook{
			slowTime: m.config.SlowQueryTime,
			logger:   m.logger,
		})
	}

	return sqlDB, db, nil
}

func (m *bunManager) openMySQL() (*sql.DB, *bun.DB, error) {
	charset := m.config.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local&timeout=%s&readTimeout=%s&writeTimeout=%s",
		m.config.Username,
		m.config.Password,
		m.config.Host,
		m.config.Port,
		m.config.DBName,
		charset,
		m.config.ConnectTimeout,
		m.config.ReadTimeout,
		m.config.WriteTimeout,
	)

	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, mysqldialect.New()), nil
}

func (m *bunManager) openPostgreSQL() (*sql.DB, *bun.DB, error) {
	sslMode := m.config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
		m.config.Username,
		m.config.Password,
		m.config.Host,
		m.config.Port,
		m.config.DBName,
		sslMode,
		int(m.config.ConnectTimeout.Seconds()),
	)

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, pgdialect.New()), nil
}

func (m *bunManager) openSQLite() (*sql.DB, *bun.DB, error) {
	dsn := fmt.Sprintf("%s.db", m.config.DBName)

	sqlDB, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, sqlitedialect.New()), nil
}

func (m *bunManager) configurePool() {
	if m.sqlDB == nil {
		return
	}
	m.sqlDB.SetMaxIdleConns(m.config.MaxIdleConns)
	m.sqlDB.SetMaxOpenConns(m.config.MaxOpenConns)
	m.sqlDB.SetConnMaxLifetime(m.config.ConnMaxLifetime)
	m.sqlDB.SetConnMaxIdleTime(m.config.ConnMaxIdleTime)
}

func (m *bunManager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case m.stopHealthCheck <- struct{}{}:
	default:
	}

	if m.db == nil {
		return nil
	}

	err := m.db.Close()
	m.db = nil
	m.sqlDB = nil
	m.connected = false

	if m.logger != nil {
		if err != nil {
			m.logger.Error("Failed to close database connection", "error", err)
		} else {
			m.logger.Info("Database connection closed")
		}
	}
	return err
}

func (m *bunManager) Reconnect(ctx context.Context) error {
	if m.logger != nil {
		m.logger.Info("Attempting to reconnect to the database")
	}

	if err := m.Disconnect(); err != nil && m.logger != nil {
		m.logger.Warn("Error disconnecting existing connection", "error", err)
	}

	return m.Connect(ctx)
}

func (m *bunManager) Ping(ctx context.Context) error {
	m.mu.RLock()
	db := m.db
	m.mu.RUnlock()

	if db == nil {
		return ErrNotConnected
	}
	return db.PingContext(ctx)
}

func (m *bunManager) GetDB() *bun.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

func (m *bunManager) GetSQLDB() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sqlDB
}

func (m *bunManager) HealthCheck(ctx context.Context) *HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	status := &HealthStatus{
		LastCheckTime: start,
		Connected:     m.connected,
	}

	if m.db == nil {
		status.Healthy = false
		status.LastError = ErrNotConnected.Error()
		return status
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	err := m.db.PingContext(ctxTimeout)
	status.ResponseTime = time.Since(start)

	if err != nil {
		status.Healthy = false
		status.Connected = false
		status.LastError = err.Error()
		m.lastError = err
	} else {
		status.Healthy = true
		status.Connected = true
		m.lastError = nil
	}

	if m.sqlDB != nil {
		stats := m.sqlDB.Stats()
		status.ActiveConns = stats.InUse
		status.IdleConns = stats.Idle
		status.MaxOpenConns = stats.MaxOpenConnections
	}
	return status
}

func (m *bunManager) startHealthCheck() {
	m.healthCheckOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(m.config.HealthCheckInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
					status := m.HealthCheck(ctx)
					cancel()
					if !status.Healthy && m.config.EnableReconnect {
						m.handleReconnect()
					}

				case <-m.stopHealthCheck:
					return
				}
			}
		}()
	})
}

func (m *bunManager) handleReconnect() {
	if m.reconnectTries >= m.config.MaxReconnectTries {
		if m.logger != nil {
			m.logger.Error("Max reconnect attempts reached, stopping", "tries", m.reconnectTries)
		}
		return
	}

	m.reconnectTries++
	if m.logger != nil {
		m.logger.Info("Starting database reconnect", "try", m.reconnectTries)
	}

	time.Sleep(m.config.ReconnectInterval)

	ctx, cancel := context.WithTimeout(context.Background(), m.config.ConnectTimeout)
	defer cancel()

	if err := m.Reconnect(ctx); err != nil {
		if m.logger != nil {
			m.logger.Error("Reconnect failed", "error", err, "try", m.reconnectTries)
		}
	} else {
		m.reconnectTries = 0
		if m.logger != nil {
			m.logger.Info("Reconnect succeeded")
		}
	}
}

func (m *bunManager) GetStats() *DBStats {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()

	if sqlDB == nil {
		return &DBStats{}
	}

	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (m *bunManager) RunMigrations(ctx context.Context) error {
	db := m.GetDB()
	if db == nil {
		return ErrNotConnected
	}
	return NewMigrator(db, m.logger).Run(ctx)
}

func (m *bunManager) SetLogger(logger Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}
