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

package types

import "strings"

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// Direction is the ordering direction of a sort.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection maps any spelling of "desc"/"descending" to Descending and
// everything else to Ascending.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending":
		return Descending
	default:
		return Ascending
	}
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// SQL returns the keyword used in ORDER BY clauses.
func (d Direction) SQL() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// DefaultPageSize is the page size used when a request names none.
const DefaultPageSize = 10

// PageRequest is a 1-indexed page number and a page size. The getters apply
// defaults without storing them, so a request can be shared.
type PageRequest struct {
	page     int
	pageSize int
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		return DefaultPageSize
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		return 1
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// NewPageRequest constructs a PageRequest.
func NewPageRequest(page int, pageSize int) *PageRequest {
	return &PageRequest{page, pageSize}
}

// Pagination holds one page of items along with pagination metadata.
// TotalPages is 0 when Total is 0; Page is then 1.
type Pagination[T any] struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	Items      []*T `json:"items"`
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{Page: page, PageSize: pageSize, Items: make([]*T, 0)}
}

func (p *Pagination[T]) HasPrevious() bool { return p.Page > 1 }

func (p *Pagination[T]) HasNext() bool { return p.Page < p.TotalPages }
