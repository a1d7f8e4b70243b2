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
	"strings"

	"github.com/tomoncle/gamesroster/database"
	"github.com/tomoncle/gamesroster/paging"

	"github.com/uptrace/bun"
)

// Source is a paging.Source over one table. The filter becomes a grouped
// LIKE condition and the orders an ORDER BY, so only the requested page is
// read.
type Source[T any] struct {
	db        bun.IDB
	relations []string
}

// NewSource returns a source over the table of T. Relations are joined into
// fetched rows only.
func NewSource[T any](db bun.IDB, relations ...string) *Source[T] {
	return &Source[T]{db: db, relations: relations}
}

func (s *Source[T]) Count(ctx context.Context, q paging.Query) (int, error) {
	return s.db.NewSelect().
		Model((*T)(nil)).
		Apply(applyFilter(q.Filter, "?TableAlias.?")).
		Count(ctx)
}

func (s *Source[T]) Fetch(ctx context.Context, q paging.Query, offset, limit int) ([]*T, error) {
	items := make([]*T, 0, limit)
	query := s.db.NewSelect().
		Model(&items).
		Apply(applyFilter(q.Filter, "?TableAlias.?")).
		Apply(applyOrders(q.Orders, "?TableAlias.?")).
		Offset(offset).
		Limit(limit)
	for _, rel := range s.relations {
		query = query.Relation(rel)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

// applyFilter matches the lower-cased search as a substring of any filter
// column, folding case over the whole of Unicode. column is the expression
// template for one column identifier.
func applyFilter(f paging.Filter, column string) func(*bun.SelectQuery) *bun.SelectQuery {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if !f.Active() {
			return q
		}
		pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		cond := database.FoldExpr(q.Dialect().Name(), column) + " LIKE ? ESCAPE '!'"
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, c := range f.Columns {
				q = q.WhereOr(cond, bun.Ident(c), pattern)
			}
			return q
		})
	}
}

func applyOrders(orders []paging.Order, column string) func(*bun.SelectQuery) *bun.SelectQuery {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, o := range orders {
			q = q.OrderExpr(column+" "+o.Direction.SQL(), bun.Ident(o.Column))
		}
		return q
	}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
