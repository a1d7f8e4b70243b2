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
	"errors"

	"github.com/tomoncle/gamesroster/importer"
	"github.com/tomoncle/gamesroster/paging"
	"github.com/tomoncle/gamesroster/types"

	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a lookup by identity or key matches no row.
var ErrNotFound = errors.New("record not found")

// CrudRepository defines basic CRUD operations for a generic entity type.
type CrudRepository[T any] interface {
	// GetOne loads one entity and the named relations.
	GetOne(ctx context.Context, id int64, relations ...string) (*T, error)

	// FindBy loads the entity whose column equals value.
	FindBy(ctx context.Context, column string, value any) (*T, error)

	// List loads every entity matching filter, or all of them when it is nil.
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	Create(ctx context.Context, entity ...*T) error

	Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error

	// Update writes the given columns, or every column when none are named.
	Update(ctx context.Context, entity *T, columns ...string) error

	Delete(ctx context.Context, id int64) error
}

// TransactionRepository defines operations executed within a transaction.
type TransactionRepository[T any] interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error
	CreateWithTx(ctx context.Context, tx *bun.Tx, entity ...*T) error
	KeysWithTx(ctx context.Context, tx *bun.Tx, keyOf func(*T) string) (importer.KeySet, error)
}

// PageQueryRepository exposes the table as a paging source.
type PageQueryRepository[T any] interface {
	Source(relations ...string) paging.Source[T]
}

// Repository combines CRUD, paging, and transactional operations.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	TransactionRepository[T]
	Keys(ctx context.Context, keyOf func(*T) string) (importer.KeySet, error)
}
