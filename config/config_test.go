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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Connection.Type)
	assert.Equal(t, 10, cfg.Paging.DefaultSize)
	assert.Equal(t, []int{5, 10, 20, 30, 50, 100}, cfg.Paging.Sizes)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  read_timeout: 5s
database:
  connection:
    type: postgres
    host: db
    port: 5432
paging:
  default_size: 20
  sizes: [10, 20]
auth:
  jwt_secret: from-file
`), 0o644))
	t.Setenv("GAMESROSTER_AUTH_JWT_SECRET", "from-env")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "postgres", cfg.Database.Connection.Type)
	assert.Equal(t, "db.internal", cfg.Database.Connection.Host)
	assert.Equal(t, 20, cfg.Paging.DefaultSize)
	assert.Equal(t, []int{10, 20}, cfg.Paging.Sizes)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestLoadRejectsDefaultSizeOutsideSizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paging:\n  default_size: 7\n"), 0o644))

	_, err := Load(path)

	assert.ErrorContains(t, err, "paging.default_size 7")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.Error(t, err)
}
