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

package gamesroster

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomoncle/gamesroster/importer"
	"github.com/tomoncle/gamesroster/paging"
)

// ErrInvalid marks a record that failed validation.
var ErrInvalid = errors.New("invalid record")

// rowError is a problem with the content of one import row. It matches
// ErrInvalid and unwraps to its cause, if any.
type rowError struct {
	msg   string
	cause error
}

func (e *rowError) Error() string { return e.msg }

func (e *rowError) Is(target error) bool { return target == ErrInvalid }

func (e *rowError) Unwrap() error { return e.cause }

func invalidRow(format string, args ...any) error {
	return &rowError{msg: fmt.Sprintf(format, args...)}
}

// Lookup resolves a natural key in another table to its id.
type Lookup func(ctx context.Context, table, column string, value any) (int64, error)

// Descriptor is everything the generic service and controller need to know
// about one entity.
type Descriptor[T any] struct {
	// Name is the singular display name used in messages ("Coach").
	Name string
	// Route is the collection path segment ("coaches").
	Route string

	Sorts  paging.SortOptions
	Search []string

	// Relations are loaded with list pages, DetailRelations with one record.
	Relations       []string
	DetailRelations []string

	// Editable are the columns an edit may change.
	Editable []string

	// ImportKey derives the duplicate-detection key. Nil disables import.
	ImportKey func(*T) string
	// FromRow builds a record from one spreadsheet row. Errors matching
	// ErrInvalid reject the row; any other error aborts the import.
	FromRow  func(ctx context.Context, lookup Lookup, row importer.Row) (*T, error)
	Validate func(*T) error

	// InUseMessage is shown when a delete is refused by a foreign key.
	InUseMessage string
	// NotOwnerMessage is shown when staff edit a record someone else entered.
	NotOwnerMessage string
}

// Importable reports whether the entity supports spreadsheet upload.
func (d *Descriptor[T]) Importable() bool {
	return d.ImportKey != nil && d.FromRow != nil
}

func (d *Descriptor[T]) validate(entity *T) error {
	if d.Validate == nil {
		return nil
	}
	if err := d.Validate(entity); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
