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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

var sqlFileOrder = regexp.MustCompile(`^(\d+)_`)

// SQLFile is one seed file.
type SQLFile struct {
	Path        string
	Order       int
	Environment string
}

// SeedResult is the outcome of running one seed file.
type SeedResult struct {
	File         string
	Statements   int
	RowsAffected int64
	Duration     time.Duration
}

// Seeder runs the .sql files under common/ and then environments/<env>/ of
// root. Within a directory files run by their NNN_ prefix; files without
// one run last.
type Seeder struct {
	root        fs.FS
	environment string
	logger      Logger
}

func NewSeeder(root fs.FS, environment string, logger Logger) *Seeder {
	if logger == nil {
		logger = DefaultLogger()
	}
	return &Seeder{root: root, environment: environment, logger: logger}
}

// Files lists the seed files in execution order.
func (s *Seeder) Files() ([]SQLFile, error) {
	common, err := s.filesIn("common", "common")
	if err != nil {
		return nil, err
	}
	env, err := s.filesIn(path.Join("environments", s.environment), s.environment)
	if err != nil {
		return nil, err
	}
	return append(common, env...), nil
}

func (s *Seeder) filesIn(dir, environment string) ([]SQLFile, error) {
	var files []SQLFile
	err := fs.WalkDir(s.root, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(d.Name()), ".sql") {
			return nil
		}
		files = append(files, SQLFile{Path: p, Order: fileOrder(d.Name()), Environment: environment})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Order != files[j].Order {
			return files[i].Order < files[j].Order
		}
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func fileOrder(name string) int {
	m := sqlFileOrder.FindStringSubmatch(name)
	if m == nil {
		return 999
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// Run executes every seed file against db. The caller decides whether db is
// a transaction.
func (s *Seeder) Run(ctx context.Context, db bun.IDB) ([]SeedResult, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		s.logger.Info("No seed files found", "environment", s.environment)
		return nil, nil
	}
	results := make([]SeedResult, 0, len(files))
	for _, f := range files {
		r, err := s.runFile(ctx, db, f)
		if err != nil {
			s.logger.Error("Seed file failed", "file", f.Path, "error", err)
			return results, fmt.Errorf("seed %s: %w", f.Path, err)
		}
		s.logger.Info("Seed file executed", "file", r.File, "statements", r.Statements,
			"rows_affected", r.RowsAffected, "duration", r.Duration.String())
		results = append(results, r)
	}
	return results, nil
}

func (s *Seeder) runFile(ctx context.Context, db bun.IDB, f SQLFile) (SeedResult, error) {
	start := time.Now()
	content, err := fs.ReadFile(s.root, f.Path)
	if err != nil {
		return SeedResult{}, err
	}
	result := SeedResult{File: f.Path}
	for _, stmt := range SplitStatements(string(content)) {
		res, err := db.ExecContext(ctx, stmt)
		if err != nil {
			return result, fmt.Errorf("execute %q: %w", stmt, err)
		}
		n, _ := res.RowsAffected()
		result.RowsAffected += n
		result.Statements++
	}
	result.Duration = time.Since(start)
	return result, nil
}

// SplitStatements splits SQL text on lines ending in ";". Blank lines and
// "--" comment lines are dropped.
func SplitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	flush := func() {
		stmt := strings.TrimSpace(current.String())
		stmt = strings.TrimSuffix(stmt, ";")
		if stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte(' ')
		if strings.HasSuffix(line, ";") {
			flush()
		}
	}
	flush()
	return statements
}
