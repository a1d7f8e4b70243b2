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
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// Migration is an applied migration record.
type Migration struct {
	bun.BaseModel `bun:"table:schema_migrations"`

	Version     string    `bun:"version,pk" json:"version"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description" json:"description"`
	AppliedAt   time.Time `bun:"applied_at,notnull" json:"applied_at"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

// Migrator applies versioned migrations. Each version runs once, in its own
// transaction, and is recorded in schema_migrations.
type Migrator struct {
	db          *bun.DB
	registry    *ModelRegistry
	foreignKeys ForeignKeys
	seeder      *Seeder
	logger      Logger
}

// NewMigrator builds the standard migrations: 001 creates the registered
// tables with foreignKeys; 002 runs seeder when it is not nil.
func NewMigrator(db *bun.DB, registry *ModelRegistry, foreignKeys ForeignKeys, seeder *Seeder, logger Logger) *Migrator {
	if logger == nil {
		logger = DefaultLogger()
	}
	return &Migrator{
		db:          db,
		registry:    registry,
		foreignKeys: foreignKeys,
		seeder:      seeder,
		logger:      logger,
	}
}

func (m *Migrator) Migrations() []MigrationItem {
	items := []MigrationItem{{
		Version:     "001",
		Name:        "create_tables",
		Description: "Create tables and foreign key constraints",
		Up:          m.createTables,
	}}
	if m.seeder != nil {
		items = append(items, MigrationItem{
			Version:     "002",
			Name:        "seed_data",
			Description: "Load seed data",
			Up:          m.seed,
		})
	}
	return items
}

// Run applies pending migrations in version order.
func (m *Migrator) Run(ctx context.Context) error {
	if _, err := m.db.NewCreateTable().Model((*Migration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}
	items := m.Migrations()
	sort.Slice(items, func(i, j int) bool { return items[i].Version < items[j].Version })
	for _, item := range items {
		if err := m.apply(ctx, item); err != nil {
			return fmt.Errorf("migration %s: %w", item.Version, err)
		}
	}
	m.logger.Info("Database migrations completed")
	return nil
}

func (m *Migrator) apply(ctx context.Context, item MigrationItem) error {
	applied, err := m.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", item.Version).
		Exists(ctx)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	err = m.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := item.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&Migration{
			Version:     item.Version,
			Name:        item.Name,
			Description: item.Description,
			AppliedAt:   time.Now(),
		}).Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	m.logger.Info("Migration applied", "version", item.Version, "name", item.Name)
	return nil
}

// Applied returns the recorded migrations ordered by version.
func (m *Migrator) Applied(ctx context.Context) ([]Migration, error) {
	var out []Migration
	err := m.db.NewSelect().Model(&out).Order("version ASC").Scan(ctx)
	return out, err
}

func (m *Migrator) createTables(ctx context.Context, db bun.IDB) error {
	for _, model := range m.registry.Instances() {
		q := db.NewCreateTable().Model(model).IfNotExists()
		table := q.GetTableName()
		for _, fk := range m.foreignKeys.ForTable(table) {
			q = fk.Apply(q)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
		m.logger.Debug("Table ready", "table", table)
	}
	return nil
}

func (m *Migrator) seed(ctx context.Context, db bun.IDB) error {
	_, err := m.seeder.Run(ctx, db)
	return err
}

// Migrate runs the standard migrations for cfg against the manager's
// connection. defaults are used when cfg names no foreign key file.
func (m *Manager) Migrate(ctx context.Context, cfg Config, registry *ModelRegistry, defaults ForeignKeys) error {
	db := m.DB()
	if db == nil {
		return ErrNotConnected
	}
	var fks ForeignKeys
	if cfg.Migrate.ForeignKeys {
		loaded, err := LoadForeignKeys(cfg.Migrate.ForeignKeyFile, defaults)
		if err != nil {
			return err
		}
		fks = loaded
	}
	var seeder *Seeder
	if cfg.Seed.OnMigration {
		seeder = NewSeeder(os.DirFS(cfg.Seed.Path), cfg.Seed.Environment, m.logger)
	}
	return NewMigrator(db, registry, fks, seeder, m.logger).Run(ctx)
}

// Seed runs the seed files of cfg in one transaction, outside the migration
// history.
func (m *Manager) Seed(ctx context.Context, cfg Seed) ([]SeedResult, error) {
	db := m.DB()
	if db == nil {
		return nil, ErrNotConnected
	}
	seeder := NewSeeder(os.DirFS(cfg.Path), cfg.Environment, m.logger)
	var results []SeedResult
	err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var err error
		results, err = seeder.Run(ctx, tx)
		return err
	})
	return results, err
}
