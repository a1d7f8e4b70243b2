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
	"time"
)

// Connection describes how to reach a database and tune its pool.
type Connection struct {
	Type            string        `mapstructure:"type" json:"type"` // postgres, mysql, sqlite
	Host            string        `mapstructure:"host" json:"host"`
	Port            int           `mapstructure:"port" json:"port"`
	Username        string        `mapstructure:"username" json:"username"`
	Password        string        `mapstructure:"password" json:"-"`
	DBName          string        `mapstructure:"dbname" json:"dbname"`
	SSLMode         string        `mapstructure:"sslmode" json:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" json:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" json:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" json:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout" json:"connect_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	EnableQueryLog  bool          `mapstructure:"enable_query_log" json:"enable_query_log"`
	SlowQueryTime   time.Duration `mapstructure:"slow_query_time" json:"slow_query_time"`
}

// Migrate controls schema migration.
type Migrate struct {
	OnStartup      bool   `mapstructure:"on_startup" json:"on_startup"`
	ForeignKeys    bool   `mapstructure:"foreign_keys" json:"foreign_keys"`
	ForeignKeyFile string `mapstructure:"foreign_key_file" json:"foreign_key_file"`
}

// Seed controls loading of SQL seed files.
type Seed struct {
	OnMigration bool   `mapstructure:"on_migration" json:"on_migration"`
	Path        string `mapstructure:"path" json:"path"`
	Environment string `mapstructure:"environment" json:"environment"`
}

// Config aggregates connection, migration and seed settings.
type Config struct {
	Connection Connection `mapstructure:"connection" json:"connection"`
	Migrate    Migrate    `mapstructure:"migrate" json:"migrate"`
	Seed       Seed       `mapstructure:"seed" json:"seed"`
}

// DefaultConfig returns an in-process sqlite configuration.
func DefaultConfig() Config {
	return Config{
		Connection: DefaultConnection(),
		Migrate: Migrate{
			OnStartup:   true,
			ForeignKeys: true,
		},
		Seed: Seed{
			Path:        "configs/sql",
			Environment: "prod",
		},
	}
}

// DefaultConnection returns a connection with pool defaults set.
func DefaultConnection() Connection {
	return Connection{
		Type:            "sqlite",
		DBName:          "gamesroster",
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		SlowQueryTime:   2 * time.Second,
	}
}

// HealthStatus is the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql pool statistics.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxIdleTimeClosed int64         `json:"max_idle_time_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}
