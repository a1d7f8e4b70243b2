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

// Package config loads gamesroster settings from a YAML file, GAMESROSTER_*
// environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tomoncle/gamesroster/database"
	"github.com/tomoncle/gamesroster/utils"
)

const EnvPrefix = "GAMESROSTER"

type Server struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Auth struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	Issuer            string        `mapstructure:"issuer"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	BootstrapUser     string        `mapstructure:"bootstrap_user"`
	BootstrapPassword string        `mapstructure:"bootstrap_password"`
}

// Paging holds the page sizes a client may ask for. DefaultSize must be one
// of Sizes.
type Paging struct {
	DefaultSize int   `mapstructure:"default_size"`
	Sizes       []int `mapstructure:"sizes"`
}

type Import struct {
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
	RatePerMinute  int   `mapstructure:"rate_per_minute"`
	Burst          int   `mapstructure:"burst"`
}

type Config struct {
	Server   Server           `mapstructure:"server"`
	Database database.Config  `mapstructure:"database"`
	Auth     Auth             `mapstructure:"auth"`
	Paging   Paging           `mapstructure:"paging"`
	Import   Import           `mapstructure:"import"`
	Log      utils.LogOptions `mapstructure:"log"`
}

func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: database.DefaultConfig(),
		Auth: Auth{
			Issuer:   "gamesroster",
			TokenTTL: 12 * time.Hour,
		},
		Paging: Paging{
			DefaultSize: 10,
			Sizes:       []int{5, 10, 20, 30, 50, 100},
		},
		Import: Import{
			MaxUploadBytes: 10 << 20,
			RatePerMinute:  6,
			Burst:          3,
		},
		Log: utils.DefaultLogOptions(),
	}
}

// Load reads path, or gamesroster.yaml from . or ./configs when path is
// empty. A missing default file is not an error. Database DB_* variables
// are applied last.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("gamesroster")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	database.OverrideFromEnv(&cfg.Database.Connection)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.Paging.Sizes) == 0 {
		errs = append(errs, errors.New("paging.sizes is empty"))
	} else if !slices.Contains(c.Paging.Sizes, c.Paging.DefaultSize) {
		errs = append(errs, fmt.Errorf("paging.default_size %d is not one of %v", c.Paging.DefaultSize, c.Paging.Sizes))
	}
	if c.Import.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("import.max_upload_bytes must be positive"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	c := d.Database.Connection
	v.SetDefault("database.connection.type", c.Type)
	v.SetDefault("database.connection.host", c.Host)
	v.SetDefault("database.connection.port", c.Port)
	v.SetDefault("database.connection.username", c.Username)
	v.SetDefault("database.connection.password", c.Password)
	v.SetDefault("database.connection.dbname", c.DBName)
	v.SetDefault("database.connection.sslmode", c.SSLMode)
	v.SetDefault("database.connection.max_idle_conns", c.MaxIdleConns)
	v.SetDefault("database.connection.max_open_conns", c.MaxOpenConns)
	v.SetDefault("database.connection.conn_max_lifetime", c.ConnMaxLifetime)
	v.SetDefault("database.connection.conn_max_idle_time", c.ConnMaxIdleTime)
	v.SetDefault("database.connection.connect_timeout", c.ConnectTimeout)
	v.SetDefault("database.connection.read_timeout", c.ReadTimeout)
	v.SetDefault("database.connection.write_timeout", c.WriteTimeout)
	v.SetDefault("database.connection.enable_query_log", c.EnableQueryLog)
	v.SetDefault("database.connection.slow_query_time", c.SlowQueryTime)
	v.SetDefault("database.migrate.on_startup", d.Database.Migrate.OnStartup)
	v.SetDefault("database.migrate.foreign_keys", d.Database.Migrate.ForeignKeys)
	v.SetDefault("database.migrate.foreign_key_file", d.Database.Migrate.ForeignKeyFile)
	v.SetDefault("database.seed.on_migration", d.Database.Seed.OnMigration)
	v.SetDefault("database.seed.path", d.Database.Seed.Path)
	v.SetDefault("database.seed.environment", d.Database.Seed.Environment)

	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.issuer", d.Auth.Issuer)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("auth.bootstrap_user", d.Auth.BootstrapUser)
	v.SetDefault("auth.bootstrap_password", d.Auth.BootstrapPassword)

	v.SetDefault("paging.default_size", d.Paging.DefaultSize)
	v.SetDefault("paging.sizes", d.Paging.Sizes)

	v.SetDefault("import.max_upload_bytes", d.Import.MaxUploadBytes)
	v.SetDefault("import.rate_per_minute", d.Import.RatePerMinute)
	v.SetDefault("import.burst", d.Import.Burst)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file_enabled", d.Log.FileEnabled)
	v.SetDefault("log.file_dir", d.Log.FileDir)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
}
