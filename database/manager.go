/*
 * Copyright 2025 tomoncle.
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
	"errors"
	"fmt"
	"strings"
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

// MemoryDB is the sqlite database name for a private in-memory database.
const MemoryDB = ":memory:"

var ErrNotConnected = errors.New("database not connected")

// Manager owns one bun connection pool.
type Manager struct {
	config Connection
	logger Logger

	mu    sync.RWMutex
	db    *bun.DB
	sqlDB *sql.DB
}

func NewManager(config Connection, logger Logger) *Manager {
	if logger == nil {
		logger = DefaultLogger()
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 30 * time.Second
	}
	return &Manager{config: config, logger: logger}
}

// Connect opens the pool and pings it. Calling Connect on a connected
// manager is a no-op.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != nil {
		return nil
	}

	sqlDB, db, err := m.open()
	if err != nil {
		return fmt.Errorf("open %s connection: %w", m.config.Type, err)
	}
	m.configurePool(sqlDB)

	pingCtx, cancel := context.WithTimeout(ctx, m.config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("database connection test failed: %w", err)
	}
	if m.isSQLite() {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}

	if m.config.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if m.config.SlowQueryTime > 0 {
		db.AddQueryHook(&slowQueryHook{threshold: m.config.SlowQueryTime, logger: m.logger})
	}
	db.AddQueryHook(&errorQueryHook{logger: m.logger})

	m.sqlDB, m.db = sqlDB, db
	m.logger.Info("Database connected", "type", m.config.Type, "host", m.config.Host, "dbname", m.config.DBName)
	return nil
}

func (m *Manager) isSQLite() bool {
	return m.config.Type == "sqlite" || m.config.Type == "sqlite3"
}

func (m *Manager) open() (*sql.DB, *bun.DB, error) {
	c := m.config
	switch c.Type {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&clientFoundRows=true&loc=Local&timeout=%s&readTimeout=%s&writeTimeout=%s",
			c.Username, c.Password, c.Host, c.Port, c.DBName, c.ConnectTimeout, c.ReadTimeout, c.WriteTimeout)
		sqlDB, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, nil, err
		}
		return sqlDB, bun.NewDB(sqlDB, mysqldialect.New()), nil
	case "postgres", "postgresql":
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
			c.Username, c.Password, c.Host, c.Port, c.DBName, sslMode, int(c.ConnectTimeout.Seconds()))
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, nil, err
		}
		return sqlDB, bun.NewDB(sqlDB, pgdialect.New()), nil
	case "sqlite", "sqlite3":
		registerSQLiteFunctions()
		sqlDB, err := sql.Open(sqliteshim.ShimName, sqliteDSN(c.DBName))
		if err != nil {
			return nil, nil, err
		}
		return sqlDB, bun.NewDB(sqlDB, sqlitedialect.New()), nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %q, supported types: mysql, postgres, sqlite", c.Type)
	}
}

func sqliteDSN(name string) string {
	switch {
	case name == MemoryDB || name == "":
		return MemoryDB
	case strings.HasPrefix(name, "file:"), strings.HasSuffix(name, ".db"):
		return name
	default:
		return name + ".db"
	}
}

func (m *Manager) configurePool(sqlDB *sql.DB) {
	if m.isSQLite() {
		// one connection: the foreign_keys pragma is per connection and an
		// in-memory database lives only as long as its connection
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
		return
	}
	sqlDB.SetMaxIdleConns(m.config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(m.config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(m.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(m.config.ConnMaxIdleTime)
}

// DB returns the bun handle, or nil before Connect.
func (m *Manager) DB() *bun.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db, m.sqlDB = nil, nil
	if err != nil {
		m.logger.Error("Failed to close database connection", "error", err)
		return err
	}
	m.logger.Info("Database connection closed")
	return nil
}

func (m *Manager) Ping(ctx context.Context) error {
	db := m.DB()
	if db == nil {
		return ErrNotConnected
	}
	return db.PingContext(ctx)
}

// HealthCheck pings the database with a five second timeout and reports pool
// usage.
func (m *Manager) HealthCheck(ctx context.Context) *HealthStatus {
	m.mu.RLock()
	db, sqlDB := m.db, m.sqlDB
	m.mu.RUnlock()

	start := time.Now()
	status := &HealthStatus{LastCheckTime: start}
	if db == nil {
		status.LastError = ErrNotConnected.Error()
		return status
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := db.PingContext(pingCtx)
	status.ResponseTime = time.Since(start)
	if err != nil {
		status.LastError = err.Error()
	} else {
		status.Healthy = true
		status.Connected = true
	}

	stats := sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections
	return status
}

func (m *Manager) Stats() *DBStats {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()
	if sqlDB == nil {
		return &DBStats{}
	}
	s := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      s.MaxOpenConnections,
		OpenConns:         s.OpenConnections,
		InUse:             s.InUse,
		Idle:              s.Idle,
		WaitCount:         s.WaitCount,
		WaitDuration:      s.WaitDuration,
		MaxIdleClosed:     s.MaxIdleClosed,
		MaxIdleTimeClosed: s.MaxIdleTimeClosed,
		MaxLifetimeClosed: s.MaxLifetimeClosed,
	}
}
