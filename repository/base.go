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

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tomoncle/gamesroster/importer"
	"github.com/tomoncle/gamesroster/paging"
	"github.com/tomoncle/gamesroster/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
)

type baseRepositoryImpl[T any] struct {
	db *bun.DB
}

// NewRepository returns a generic repository backed by the provided Bun DB.
func NewRepository[T any](db *bun.DB) Repository[T] {
	return &baseRepositoryImpl[T]{db: db}
}

func (r *baseRepositoryImpl[T]) GetOne(ctx context.Context, id int64, relations ...string) (*T, error) {
	entity := new(T)
	q := r.db.NewSelect().Model(entity).Where("?TableAlias.id = ?", id)
	for _, rel := range relations {
		q = q.Relation(rel)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) FindBy(ctx context.Context, column string, value any) (*T, error) {
	entity := new(T)
	err := r.db.NewSelect().Model(entity).Where("? = ?", bun.Ident(column), value).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	entities := make([]*T, 0)
	query := r.db.NewSelect().Model(&entities)
	if filter != nil {
		query = query.Where(filter.Schema, filter.Args...)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Source(relations ...string) paging.Source[T] {
	return NewSource[T](r.db, relations...)
}

func (r *baseRepositoryImpl[T]) Keys(ctx context.Context, keyOf func(*T) string) (importer.KeySet, error) {
	return loadKeys(ctx, r.db, keyOf)
}

func (r *baseRepositoryImpl[T]) KeysWithTx(ctx context.Context, tx *bun.Tx, keyOf func(*T) string) (importer.KeySet, error) {
	return loadKeys(ctx, tx, keyOf)
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity ...*T) error {
	return create(ctx, r.db, entity)
}

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, r.db, fields, duplicateKeys, entity...)
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T, columns ...string) error {
	return update(ctx, r.db, entity, columns)
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id int64) error {
	return remove[T](ctx, r.db, id)
}

func (r *baseRepositoryImpl[T]) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.db.RunInTx(ctx, nil, fn)
}

func (r *baseRepositoryImpl[T]) CreateWithTx(ctx context.Context, tx *bun.Tx, entity ...*T) error {
	return create(ctx, tx, entity)
}

func create[T any](ctx context.Context, db bun.IDB, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	_, err := db.NewInsert().Model(&entities).Exec(ctx)
	return err
}

func update[T any](ctx context.Context, db bun.IDB, entity *T, columns []string) error {
	q := db.NewUpdate().Model(entity).WherePK()
	if len(columns) > 0 {
		q = q.Column(columns...)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	return affected(res)
}

func remove[T any](ctx context.Context, db bun.IDB, id int64) error {
	res, err := db.NewDelete().Model((*T)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return affected(res)
}

func loadKeys[T any](ctx context.Context, db bun.IDB, keyOf func(*T) string) (importer.KeySet, error) {
	var entities []*T
	if err := db.NewSelect().Model(&entities).Scan(ctx); err != nil {
		return nil, err
	}
	keys := make(importer.KeySet, len(entities))
	for _, e := range entities {
		keys.Add(keyOf(e))
	}
	return keys, nil
}

// LookupID returns the id of the row of table whose column equals value.
func LookupID(ctx context.Context, db bun.IDB, table, column string, value any) (int64, error) {
	var id int64
	err := db.NewSelect().
		Table(table).
		Column("id").
		Where("? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx, &id)
	if err != nil {
		return 0, fmt.Errorf("%s.%s = %v: %w", table, column, value, notFound(err))
	}
	return id, nil
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		// not every driver reports affected rows
		return nil
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *baseRepositoryImpl[T]) multipleUpsert(ctx context.Context, db bun.IDB, fields []string, duplicateKeys []string, entity ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}
	if len(entity) == 0 {
		return nil
	}
	entities := entity

	if r.db.HasFeature(feature.InsertOnConflict) {
		return upsertOnConflict(ctx, db.NewInsert(), fields, duplicateKeys, entities)
	} else if r.db.HasFeature(feature.InsertOnDuplicateKey) {
		return upsertOnDuplicateKey(ctx, db.NewInsert(), fields, entities)
	}
	return upsertFallback(ctx, db, fields, entities)
}

func upsertOnDuplicateKey[T any](ctx context.Context, insertQuery *bun.InsertQuery, fields []string, entities []*T) error {
	sets := make([]string, 0, len(fields))
	for _, field := range fields {
		sets = append(sets, fmt.Sprintf("%[1]s = VALUES(%[1]s)", field))
	}
	_, err := insertQuery.
		Model(&entities).
		On("DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")).
		Exec(ctx)
	return err
}

func upsertOnConflict[T any](ctx context.Context, insertQuery *bun.InsertQuery, fields []string, duplicateKeys []string, entities []*T) error {
	if len(duplicateKeys) == 0 {
		duplicateKeys = []string{"id"}
	}
	sets := make([]string, 0, len(fields))
	for _, field := range fields {
		sets = append(sets, fmt.Sprintf("%[1]s = EXCLUDED.%[1]s", field))
	}
	_, err := insertQuery.
		Model(&entities).
		On("CONFLICT (" + strings.Join(duplicateKeys, ",") + ") DO UPDATE").
		Set(strings.Join(sets, ", ")).
		Exec(ctx)
	return err
}

func upsertFallback[T any](ctx context.Context, db bun.IDB, fields []string, entities []*T) error {
	for _, entity := range entities {
		_, err := db.NewInsert().Model(entity).Exec(ctx)
		if err == nil {
			continue
		}
		if _, updateErr := db.NewUpdate().Model(entity).Column(fields...).WherePK().Exec(ctx); updateErr != nil {
			return fmt.Errorf("upsert failed for entity: insert error: %v, update error: %v", err, updateErr)
		}
	}
	return nil
}
