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
	"slices"
	"time"

	"github.com/tomoncle/gamesroster/importer"
	"github.com/tomoncle/gamesroster/models"
	"github.com/tomoncle/gamesroster/paging"
	"github.com/tomoncle/gamesroster/repository"
	"github.com/tomoncle/gamesroster/types"
	"github.com/tomoncle/gamesroster/utils"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
)

var importLog = utils.NewLogger("IMPORT")

type Service[T any] interface {
	Descriptor() *Descriptor[T]

	// Get returns one record with its detail relations.
	Get(ctx context.Context, id int64) (*T, error)

	// Page returns one page of records matching search, in sort order.
	Page(ctx context.Context, search string, sort paging.Sort, page *types.PageRequest) (*types.Pagination[T], error)

	// Create inserts a new record entered by actor.
	Create(ctx context.Context, actor string, entity *T) error

	// Update writes the editable columns of entity.
	Update(ctx context.Context, actor string, entity *T) error

	// Delete removes a record by its identifier.
	Delete(ctx context.Context, id int64) error

	// Import turns rows into records and inserts those that are not
	// duplicates, all in one transaction.
	Import(ctx context.Context, actor string, rows []importer.Row) (*ImportReport, error)
}

// Importer is the part of a Service that loads rows from a file. It lets
// callers import without knowing the entity type.
type Importer interface {
	Import(ctx context.Context, actor string, rows []importer.Row) (*ImportReport, error)
}

// ImportReport is the outcome of one upload.
type ImportReport struct {
	Inserted   int                 `json:"inserted"`
	Duplicates int                 `json:"duplicates"`
	Invalid    []importer.RowError `json:"invalid,omitempty"`
	Message    string              `json:"message"`
}

type auditable interface {
	Stamp(actor string, now time.Time, created bool)
}

type baseServiceImpl[T any] struct {
	repo repository.Repository[T]
	desc *Descriptor[T]
	now  func() time.Time
}

// NewService returns the default Service for the entity described by desc.
func NewService[T any](db *bun.DB, desc *Descriptor[T]) Service[T] {
	return &baseServiceImpl[T]{
		repo: repository.NewRepository[T](db),
		desc: desc,
		now:  time.Now,
	}
}

func (s *baseServiceImpl[T]) Descriptor() *Descriptor[T] { return s.desc }

func (s *baseServiceImpl[T]) Get(ctx context.Context, id int64) (*T, error) {
	return s.repo.GetOne(ctx, id, s.desc.DetailRelations...)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, search string, sort paging.Sort, page *types.PageRequest) (*types.Pagination[T], error) {
	filter := paging.Filter{Search: search, Columns: s.desc.Search}
	return paging.Paginate(ctx, s.repo.Source(s.desc.Relations...), s.desc.Sorts, filter, sort, page)
}

func (s *baseServiceImpl[T]) Create(ctx context.Context, actor string, entity *T) error {
	if err := s.desc.validate(entity); err != nil {
		return err
	}
	s.stamp(entity, actor, true)
	return s.repo.Create(ctx, entity)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, actor string, entity *T) error {
	if err := s.desc.validate(entity); err != nil {
		return err
	}
	columns := slices.Clone(s.desc.Editable)
	if s.stamp(entity, actor, false) {
		columns = append(columns, "updated_by", "updated_at")
	}
	return s.repo.Update(ctx, entity, columns...)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *baseServiceImpl[T]) Import(ctx context.Context, actor string, rows []importer.Row) (*ImportReport, error) {
	if !s.desc.Importable() {
		return nil, fmt.Errorf("%s does not support import", s.desc.Route)
	}
	report := &ImportReport{}
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		lookup := func(ctx context.Context, table, column string, value any) (int64, error) {
			return repository.LookupID(ctx, tx, table, column, value)
		}
		candidates := make([]*T, 0, len(rows))
		for _, row := range rows {
			if row.Blank() {
				continue
			}
			entity, err := s.desc.FromRow(ctx, lookup, row)
			if err == nil {
				err = s.desc.validate(entity)
			}
			if errors.Is(err, ErrInvalid) {
				report.Invalid = append(report.Invalid, importer.RowError{Line: row.Line, Reason: err.Error()})
				continue
			}
			if err != nil {
				return fmt.Errorf("line %d: %w", row.Line, err)
			}
			candidates = append(candidates, entity)
		}

		existing, err := s.repo.KeysWithTx(ctx, &tx, s.desc.ImportKey)
		if err != nil {
			return fmt.Errorf("load existing keys: %w", err)
		}
		out := importer.Reconcile(candidates, existing, s.desc.ImportKey)
		for _, e := range out.Accepted {
			s.stamp(e, actor, true)
		}
		if err := s.repo.CreateWithTx(ctx, &tx, out.Accepted...); err != nil {
			return fmt.Errorf("insert %d %s: %w", len(out.Accepted), s.desc.Route, err)
		}
		report.Inserted = out.Inserted
		report.Duplicates = out.Duplicates
		report.Message = out.Message()
		return nil
	})
	if err != nil {
		importLog.WithField("entity", s.desc.Route).WithError(err).Error("import rolled back")
		return nil, err
	}
	importLog.WithFields(logrus.Fields{
		"entity":     s.desc.Route,
		"inserted":   report.Inserted,
		"duplicates": report.Duplicates,
		"invalid":    len(report.Invalid),
		"actor":      actor,
	}).Info(report.Message)
	return report, nil
}

func (s *baseServiceImpl[T]) stamp(entity *T, actor string, created bool) bool {
	a, ok := any(entity).(auditable)
	if ok {
		a.Stamp(actor, s.now(), created)
	}
	return ok
}

// Owner returns who entered entity, or "" for records without an audit
// trail.
func Owner(entity any) string {
	if o, ok := entity.(interface{ Owner() string }); ok {
		return o.Owner()
	}
	return ""
}

// ID returns the identity of entity, or 0.
func ID(entity any) int64 {
	if e, ok := entity.(models.Entity); ok {
		return e.GetID()
	}
	return 0
}
