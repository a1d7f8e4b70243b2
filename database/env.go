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
	"os"
	"strconv"
	"time"
)

// OverrideFromEnv replaces connection settings with DB_* environment
// variables when they are set. Durations are given in seconds.
func OverrideFromEnv(c *Connection) {
	if v := os.Getenv("DB_TYPE"); v != "" {
		c.Type = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Host = v
	}
	if v, ok := envInt("DB_PORT"); ok {
		c.Port = v
	}
	if v := os.Getenv("DB_USERNAME"); v != "" {
		c.Username = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.DBName = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		c.SSLMode = v
	}

	if v, ok := envInt("DB_MAX_IDLE_CONNS"); ok {
		c.MaxIdleConns = v
	}
	if v, ok := envInt("DB_MAX_OPEN_CONNS"); ok {
		c.MaxOpenConns = v
	}
	if v, ok := envInt("DB_CONN_MAX_LIFETIME"); ok {
		c.ConnMaxLifetime = time.Duration(v) * time.Second
	}

	if v := os.Getenv("DB_ENABLE_QUERY_LOG"); v != "" {
		c.EnableQueryLog = v == "true" || v == "1"
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
