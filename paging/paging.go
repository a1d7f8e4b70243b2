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

package paging

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomoncle/gamesroster/types"
)

// ErrInvalidSortField is returned when a sort names a field outside the
// caller's allow-list.
var ErrInvalidSortField = errors.New("sort field is not in the allow-list")

// Filter is a free-text search matched case-insensitively as a substring of
// any of Columns. An empty Search matches everything.
type Filter struct {
	Search  string
	Columns []string
}

// Active reports whether the filter restricts the result set.
func (f Filter) Active() bool {
	return f.Search != "" && len(f.Columns) > 0
}

// Sort is the requested ordering as it arrives from the boundary.
type Sort struct {
	Field     string
	Direction types.Direction
}

// Order is one resolved ORDER BY term.
type Order struct {
	Column    string
	Direction types.Direction
}

// Query is what a Source needs to count and fetch a page.
type Query struct {
	Filter Filter
	Orders []Order
}

// Source is a lazily evaluated collection. Implementations apply the filter
// and orders themselves so that only one page is ever materialised.
type Source[T any] interface {
	Count(ctx context.Context, q Query) (int, error)
	Fetch(ctx context.Context, q Query, offset, limit int) ([]*T, error)
}

// Paginate returns the requested page of src after filtering and sorting.
//
// A page number beyond the last page is clamped to the last page. An empty
// collection yields no items, zero total pages and page 1. A sort field that
// is not in options fails with ErrInvalidSortField before src is touched.
func Paginate[T any](ctx context.Context, src Source[T], options SortOptions, filter Filter, sort Sort, page *types.PageRequest) (*types.Pagination[T], error) {
	orders, err := options.Resolve(sort)
	if err != nil {
		return nil, err
	}
	if page == nil {
		page = types.NewPageRequest(1, 0)
	}
	q := Query{Filter: filter, Orders: orders}
	size := page.GetPageSize()

	pagination := types.NewDefaultPagination[T](1, size)
	total, err := src.Count(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}
	if total == 0 {
		return pagination, nil
	}

	totalPages := (total + size - 1) / size
	number := page.GetPage()
	if number > totalPages {
		number = totalPages
	}

	items, err := src.Fetch(ctx, q, types.NewPageRequest(number, size).GetOffset(), size)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", number, err)
	}
	pagination.Page = number
	pagination.Total = total
	pagination.TotalPages = totalPages
	pagination.Items = items
	return pagination, nil
}
