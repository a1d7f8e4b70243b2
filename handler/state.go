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

package handler

import (
	"net/url"
	"slices"
	"strconv"

	"github.com/tomoncle/gamesroster/paging"
	"github.com/tomoncle/gamesroster/types"
)

// PageSizes is the page size allow-list offered to clients.
type PageSizes struct {
	Default int
	Allowed []int
}

func (p PageSizes) resolve(size int) int {
	if slices.Contains(p.Allowed, size) {
		return size
	}
	if p.Default > 0 {
		return p.Default
	}
	return 10
}

// ListState is the search, sort and page a list was shown with. It travels
// with every response so a client can return to the same view.
type ListState struct {
	Search        string          `json:"search"`
	SortField     string          `json:"sort_field"`
	SortDirection types.Direction `json:"sort_direction"`
	Page          int             `json:"page"`
	PageSize      int             `json:"page_size"`
}

// ParseListState reads search, sortField, sortDirection, page, pageSize and
// actionButton. Any actionButton resets to page 1; an actionButton naming a
// sort option selects it, and naming the current sort field flips the
// direction. A sort field outside sorts falls back to the default field in
// the requested direction.
func ParseListState(q url.Values, sorts paging.SortOptions, sizes PageSizes) ListState {
	s := ListState{
		Search:        q.Get("search"),
		SortField:     q.Get("sortField"),
		SortDirection: types.ParseDirection(q.Get("sortDirection")),
		Page:          atoi(q.Get("page"), 1),
		PageSize:      sizes.resolve(atoi(q.Get("pageSize"), 0)),
	}
	if !sorts.Has(s.SortField) {
		s.SortField = sorts.Default()
	}
	if action := q.Get("actionButton"); action != "" {
		s.Page = 1
		if sorts.Has(action) {
			s.Toggle(action)
		}
	}
	if s.Page < 1 {
		s.Page = 1
	}
	return s
}

// DecodeListState parses a state produced by Encode. An empty string gives
// the default state.
func DecodeListState(encoded string, sorts paging.SortOptions, sizes PageSizes) ListState {
	q, err := url.ParseQuery(encoded)
	if err != nil {
		q = url.Values{}
	}
	q.Del("actionButton")
	return ParseListState(q, sorts, sizes)
}

// Toggle selects field, flipping the direction when it is already selected.
// Switching to another field keeps the direction.
func (s *ListState) Toggle(field string) {
	if field == s.SortField {
		s.SortDirection = s.SortDirection.Flip()
	}
	s.SortField = field
}

func (s ListState) Sort() paging.Sort {
	return paging.Sort{Field: s.SortField, Direction: s.SortDirection}
}

func (s ListState) PageRequest() *types.PageRequest {
	return types.NewPageRequest(s.Page, s.PageSize)
}

// Encode returns the state as query parameters.
func (s ListState) Encode() string {
	q := url.Values{}
	if s.Search != "" {
		q.Set("search", s.Search)
	}
	q.Set("sortField", s.SortField)
	q.Set("sortDirection", string(s.SortDirection))
	q.Set("page", strconv.Itoa(s.Page))
	q.Set("pageSize", strconv.Itoa(s.PageSize))
	return q.Encode()
}

// ReturnURL is the list path that reproduces the state.
func (s ListState) ReturnURL(path string) string {
	return path + "?" + s.Encode()
}

func atoi(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
