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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gamesroster.yaml")
	content := "database:\n" +
		"  connection:\n" +
		"    type: sqlite\n" +
		"    dbname: " + filepath.Join(dir, "roster.db") + "\n" +
		"log:\n" +
		"  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateImportAndUsers(t *testing.T) {
	cfg := writeConfig(t)
	csv := filepath.Join(t.TempDir(), "sports.csv")
	require.NoError(t, os.WriteFile(csv, []byte("Code,Name\nATH,Athletics\nSWM,Swimming\nATH,Athletics again\n,\n"), 0o644))

	out, err := run(t, "--config", cfg, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	out, err = run(t, "--config", cfg, "import", "--entity", "sports", "--file", csv)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 records, with 1 rejected as duplicates and 2 inserted.")

	out, err = run(t, "--config", cfg, "import", "-e", "sports", "-f", csv)
	require.NoError(t, err)
	assert.Contains(t, out, "with 3 rejected as duplicates and 0 inserted.")

	_, err = run(t, "--config", cfg, "import", "--entity", "users", "--file", csv)
	assert.ErrorContains(t, err, "unknown entity")

	out, err = run(t, "--config", cfg, "user", "add", "-u", "sam", "-p", "pw", "-r", "supervisor")
	require.NoError(t, err)
	assert.Contains(t, out, "user sam saved with role supervisor")

	_, err = run(t, "--config", cfg, "user", "add", "-u", "sam", "-p", "pw", "-r", "root")
	assert.ErrorContains(t, err, "unknown role")

	_, err = run(t, "--config", cfg, "user", "add", "-u", "ann", "-p", "pw")
	require.NoError(t, err)
	out, err = run(t, "--config", cfg, "user", "list", "--role", "supervisor")
	require.NoError(t, err)
	assert.Equal(t, "sam\tsupervisor\n", out)
	out, err = run(t, "--config", cfg, "user", "list")
	require.NoError(t, err)
	assert.Equal(t, "ann\tstaff\nsam\tsupervisor\n", out)
}

func TestServeNeedsSecret(t *testing.T) {
	_, err := run(t, "--config", writeConfig(t), "serve")

	assert.ErrorContains(t, err, "jwt_secret")
}

func TestImportNeedsFlags(t *testing.T) {
	_, err := run(t, "--config", writeConfig(t), "import")

	assert.Error(t, err)
}
