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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tomoncle/gamesroster/paging"
	"github.com/tomoncle/gamesroster/types"
)

var (
	testSorts = paging.NewSortOptions("id",
		paging.SortOption{Name: "Last Name", Column: "last_name", Secondary: "first_name"},
		paging.SortOption{Name: "First Name", Column: "first_name", Secondary: "last_name"},
	)
	testSizes = PageSizes{Default: 10, Allowed: []int{2, 10, 20}}
)

func TestParseListStateDefaults(t *testing.T) {
	s := ParseListState(url.Values{}, testSorts, testSizes)

	assert.Equal(t, ListState{SortField: "Last Name", SortDirection: types.Ascending, Page: 1, PageSize: 10}, s)
}

func TestParseListStateFallsBackForUnknownValues(t *testing.T) {
	q := url.Values{"sortField": {"Shoe Size"}, "sortDirection": {"desc"}, "page": {"-3"}, "pageSize": {"7"}}

	s := ParseListState(q, testSorts, testSizes)

	assert.Equal(t, "Last Name", s.SortField)
	assert.Equal(t, types.Descending, s.SortDirection)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 10, s.PageSize)
}

func TestActionButtonTogglesAndResetsPage(t *testing.T) {
	q := url.Values{"sortField": {"Last Name"}, "sortDirection": {"asc"}, "page": {"3"}, "pageSize": {"20"}}

	q.Set("actionButton", "Last Name")
	s := ParseListState(q, testSorts, testSizes)
	assert.Equal(t, types.Descending, s.SortDirection)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 20, s.PageSize)

	q.Set("actionButton", "First Name")
	s = ParseListState(q, testSorts, testSizes)
	assert.Equal(t, "First Name", s.SortField)
	assert.Equal(t, types.Ascending, s.SortDirection)

	q.Set("sortDirection", "desc")
	s = ParseListState(q, testSorts, testSizes)
	assert.Equal(t, "First Name", s.SortField)
	assert.Equal(t, types.Descending, s.SortDirection)

	q.Set("actionButton", "Filter")
	s = ParseListState(q, testSorts, testSizes)
	assert.Equal(t, "Last Name", s.SortField)
	assert.Equal(t, 1, s.Page)
}

func TestListStateEncodeRoundTrip(t *testing.T) {
	in := ListState{Search: "lee & co", SortField: "First Name", SortDirection: types.Descending, Page: 4, PageSize: 20}

	out := DecodeListState(in.Encode(), testSorts, testSizes)

	assert.Equal(t, in, out)
	assert.Equal(t, "/api/v1/coaches?page=4&pageSize=20&search=lee+%26+co&sortDirection=desc&sortField=First+Name",
		in.ReturnURL("/api/v1/coaches"))
}

func TestDecodeListStateIgnoresGarbage(t *testing.T) {
	s := DecodeListState("%zz", testSorts, testSizes)

	assert.Equal(t, "Last Name", s.SortField)
	assert.Equal(t, 1, s.Page)
}
