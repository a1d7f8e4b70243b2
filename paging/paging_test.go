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
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/gamesroster/types"
)

type person struct {
	ID    int64
	First string
	Last  string
}

var personFields = map[string]Field[person]{
	"id":         func(p *person) any { return p.ID },
	"first_name": func(p *person) any { return p.First },
	"last_name":  func(p *person) any { return p.Last },
}

var nameSorts = NewSortOptions("id",
	SortOption{Name: "Last Name", Column: "last_name", Secondary: "first_name"},
	SortOption{Name: "First Name", Column: "first_name", Secondary: "last_name"},
)

func people(names ...[2]string) []*person {
	out := make([]*person, len(names))
	for i, n := range names {
		out[i] = &person{ID: int64(i + 1), First: n[0], Last: n[1]}
	}
	return out
}

func lastNames(items []*person) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Last
	}
	return out
}

func nameFilter(search string) Filter {
	return Filter{Search: search, Columns: []string{"last_name", "first_name"}}
}

func TestPaginateFirstPageByLastName(t *testing.T) {
	src := NewSliceSource(people(
		[2]string{"Ann", "Smith"},
		[2]string{"Bob", "Adams"},
		[2]string{"Cy", "Brown"},
	), personFields)

	got, err := Paginate[person](context.Background(), src, nameSorts, nameFilter(""),
		Sort{Field: "Last Name", Direction: types.Ascending}, types.NewPageRequest(1, 2))
	require.NoError(t, err)

	assert.Equal(t, []string{"Adams", "Brown"}, lastNames(got.Items))
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 2, got.TotalPages)
	assert.Equal(t, 1, got.Page)
	assert.True(t, got.HasNext())
	assert.False(t, got.HasPrevious())
}

func TestPaginateClampsToLastPage(t *testing.T) {
	src := NewSliceSource(people(
		[2]string{"Ann", "Smith"},
		[2]string{"Bob", "Adams"},
		[2]string{"Cy", "Brown"},
		[2]string{"Di", "Young"},
		[2]string{"Ed", "Cole"},
	), personFields)
	sort := Sort{Field: "Last Name", Direction: types.Ascending}
	ctx := context.Background()

	last, err := Paginate[person](ctx, src, nameSorts, nameFilter(""), sort, types.NewPageRequest(3, 2))
	require.NoError(t, err)

	for _, n := range []int{4, 10, 1000} {
		got, err := Paginate[person](ctx, src, nameSorts, nameFilter(""), sort, types.NewPageRequest(n, 2))
		require.NoError(t, err)
		assert.Equal(t, 3, got.Page, "page %d", n)
		assert.Equal(t, lastNames(last.Items), lastNames(got.Items), "page %d", n)
	}
	assert.Equal(t, []string{"Young"}, lastNames(last.Items))
}

func TestPaginateEmptySource(t *testing.T) {
	src := NewSliceSource[person](nil, personFields)

	got, err := Paginate[person](context.Background(), src, nameSorts, nameFilter(""),
		Sort{Field: "First Name"}, types.NewPageRequest(7, 5))
	require.NoError(t, err)

	assert.Empty(t, got.Items)
	assert.NotNil(t, got.Items)
	assert.Equal(t, 0, got.Total)
	assert.Equal(t, 0, got.TotalPages)
	assert.Equal(t, 1, got.Page)
}

func TestPaginateLeavesRequestUntouched(t *testing.T) {
	src := NewSliceSource(people(
		[2]string{"Ann", "Smith"},
		[2]string{"Bob", "Adams"},
		[2]string{"Cal", "Young"},
	), personFields)
	page := types.NewPageRequest(7, 2)

	got, err := Paginate[person](context.Background(), src, nameSorts, nameFilter(""), Sort{Field: "Last Name"}, page)
	require.NoError(t, err)

	assert.Equal(t, 2, got.Page)
	assert.Equal(t, []string{"Young"}, lastNames(got.Items))
	assert.Equal(t, 7, page.GetPage())
	assert.Equal(t, 12, page.GetOffset())
}

func TestPaginateEmptyFilterIsIdentity(t *testing.T) {
	src := NewSliceSource(people(
		[2]string{"Ann", "Smith"},
		[2]string{"Bob", "Adams"},
	), personFields)
	sort := Sort{Field: "Last Name"}
	page := types.NewPageRequest(1, 10)

	unfiltered, err := Paginate[person](context.Background(), src, nameSorts, Filter{}, sort, page)
	require.NoError(t, err)
	empty, err := Paginate[person](context.Background(), src, nameSorts, nameFilter(""), sort, page)
	require.NoError(t, err)

	assert.Equal(t, unfiltered.Items, empty.Items)
	assert.Equal(t, unfiltered.Total, empty.Total)
}

func TestPaginateFilterIsCaseInsensitiveAcrossColumns(t *testing.T) {
	src := NewSliceSource(people(
		[2]string{"Mary", "Smith"},
		[2]string{"Bob", "Smithers"},
		[2]string{"Asmi", "Jones"},
		[2]string{"Tom", "Brown"},
	), personFields)

	got, err := Paginate[person](context.Background(), src, nameSorts, nameFilter("SMI"),
		Sort{Field: "Last Name"}, types.NewPageRequest(1, 10))
	require.NoError(t, err)

	assert.Equal(t, []string{"Jones", "Smith", "Smithers"}, lastNames(got.Items))
	assert.Equal(t, 3, got.Total)
}

func TestPaginateDirectionFlipReverses(t *testing.T) {
	src := NewSliceSource(people(
		[2]string{"Ann", "Lee"},
		[2]string{"Bob", "Lee"},
		[2]string{"Cy", "Adams"},
		[2]string{"Al", "Zane"},
	), personFields)
	ctx := context.Background()
	page := types.NewPageRequest(1, 10)

	for _, field := range nameSorts.Names() {
		asc, err := Paginate[person](ctx, src, nameSorts, Filter{}, Sort{Field: field, Direction: types.Ascending}, page)
		require.NoError(t, err)
		desc, err := Paginate[person](ctx, src, nameSorts, Filter{}, Sort{Field: field, Direction: types.Descending}, page)
		require.NoError(t, err)

		reversed := slices.Clone(asc.Items)
		slices.Reverse(reversed)
		assert.Equal(t, reversed, desc.Items, field)
	}
}

func TestPaginateSecondaryBreaksTies(t *testing.T) {
	src := NewSliceSource(people(
		[2]string{"Zoe", "Lee"},
		[2]string{"Amy", "Lee"},
		[2]string{"Amy", "Chan"},
	), personFields)

	got, err := Paginate[person](context.Background(), src, nameSorts, Filter{},
		Sort{Field: "First Name", Direction: types.Ascending}, types.NewPageRequest(1, 10))
	require.NoError(t, err)

	require.Len(t, got.Items, 3)
	assert.Equal(t, "Chan", got.Items[0].Last)
	assert.Equal(t, "Lee", got.Items[1].Last)
	assert.Equal(t, "Zoe", got.Items[2].First)
}

func TestPaginateRejectsUnknownSortField(t *testing.T) {
	src := NewSliceSource(people([2]string{"Ann", "Smith"}), personFields)

	_, err := Paginate[person](context.Background(), src, nameSorts, Filter{},
		Sort{Field: "Shoe Size"}, types.NewPageRequest(1, 10))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSortField))
	assert.Contains(t, err.Error(), "Shoe Size")
}

type failingSource struct{ err error }

func (f failingSource) Count(context.Context, Query) (int, error) { return 0, f.err }

func (f failingSource) Fetch(context.Context, Query, int, int) ([]*person, error) {
	return nil, f.err
}

func TestPaginatePropagatesSourceErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := Paginate[person](context.Background(), failingSource{boom}, nameSorts, Filter{},
		Sort{Field: "Last Name"}, types.NewPageRequest(1, 10))

	assert.ErrorIs(t, err, boom)
}

func TestSortOptionsResolve(t *testing.T) {
	orders, err := nameSorts.Resolve(Sort{Field: "First Name", Direction: types.Descending})
	require.NoError(t, err)

	assert.Equal(t, []Order{
		{Column: "first_name", Direction: types.Descending},
		{Column: "last_name", Direction: types.Descending},
		{Column: "id", Direction: types.Descending},
	}, orders)
	assert.Equal(t, "Last Name", nameSorts.Default())
}
