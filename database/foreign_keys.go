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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

var referentialActions = []string{"CASCADE", "RESTRICT", "SET NULL", "NO ACTION"}

// ForeignKeyConstraint describes a foreign key relationship between tables.
type ForeignKeyConstraint struct {
	Table           string `yaml:"table"`
	Column          string `yaml:"column"`
	ReferenceTable  string `yaml:"reference_table"`
	ReferenceColumn string `yaml:"reference_column"`
	OnDelete        string `yaml:"on_delete,omitempty"` // CASCADE, RESTRICT, SET NULL, NO ACTION
	OnUpdate        string `yaml:"on_update,omitempty"`
	Description     string `yaml:"description,omitempty"`
}

func (fk ForeignKeyConstraint) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", fk.Table, fk.Column, fk.ReferenceTable, fk.ReferenceColumn)
}

// Apply adds the constraint to a CREATE TABLE query. Constraints are
// declared inline because sqlite cannot add them with ALTER TABLE.
func (fk ForeignKeyConstraint) Apply(q *bun.CreateTableQuery) *bun.CreateTableQuery {
	clause := "(?) REFERENCES ? (?)"
	if fk.OnDelete != "" {
		clause += " ON DELETE " + strings.ToUpper(fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		clause += " ON UPDATE " + strings.ToUpper(fk.OnUpdate)
	}
	return q.ForeignKey(clause, bun.Ident(fk.Column), bun.Ident(fk.ReferenceTable), bun.Ident(fk.ReferenceColumn))
}

func (fk ForeignKeyConstraint) Validate() error {
	var errs []error
	if fk.Table == "" || fk.Column == "" {
		errs = append(errs, fmt.Errorf("table and column are required: %s", fk))
	}
	if fk.ReferenceTable == "" || fk.ReferenceColumn == "" {
		errs = append(errs, fmt.Errorf("reference table and column are required: %s", fk))
	}
	for _, action := range []string{fk.OnDelete, fk.OnUpdate} {
		if action != "" && !validAction(action) {
			errs = append(errs, fmt.Errorf("invalid referential action %q: %s", action, fk))
		}
	}
	return errors.Join(errs...)
}

func validAction(action string) bool {
	for _, a := range referentialActions {
		if strings.EqualFold(action, a) {
			return true
		}
	}
	return false
}

// ForeignKeys is a set of constraints.
type ForeignKeys []ForeignKeyConstraint

func (fks ForeignKeys) ForTable(table string) ForeignKeys {
	var out ForeignKeys
	for _, fk := range fks {
		if strings.EqualFold(fk.Table, table) {
			out = append(out, fk)
		}
	}
	return out
}

func (fks ForeignKeys) Validate() error {
	errs := make([]error, 0)
	for _, fk := range fks {
		if err := fk.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type foreignKeyFile struct {
	ForeignKeys ForeignKeys `yaml:"foreign_keys"`
}

// LoadForeignKeys reads constraints from a YAML file. A missing or empty
// path yields defaults.
func LoadForeignKeys(path string, defaults ForeignKeys) (ForeignKeys, error) {
	if path == "" {
		return defaults, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read foreign key file: %w", err)
	}
	var f foreignKeyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse foreign key file %s: %w", path, err)
	}
	if err := f.ForeignKeys.Validate(); err != nil {
		return nil, fmt.Errorf("foreign key file %s: %w", path, err)
	}
	return f.ForeignKeys, nil
}

// ExportForeignKeys writes fks as YAML, creating directories as needed.
func ExportForeignKeys(path string, fks ForeignKeys) error {
	out := make(ForeignKeys, len(fks))
	for i, fk := range fks {
		if fk.Description == "" {
			fk.Description = fk.String()
		}
		out[i] = fk
	}
	data, err := yaml.Marshal(&foreignKeyFile{ForeignKeys: out})
	if err != nil {
		return fmt.Errorf("serialize foreign keys: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
