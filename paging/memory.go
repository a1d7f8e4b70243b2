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
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/tomoncle/gamesroster/types"
)

// Field reads one attribute of a record.
type Field[T any] func(*T) any

// SliceSource is an in-memory Source over a materialised slice. It is used
// where no store can push the query down, and in tests.
type SliceSource[T any] struct {
	items  []*T
	fields map[string]Field[T]
}

// NewSliceSource wraps items. fields maps every column that can appear in a
// filter or an order to its accessor. The slice is never modified.
func NewSliceSource[T any](items []*T, fields map[string]Field[T]) *SliceSource[T] {
	return &SliceSource[T]{items: items, fields: fields}
}

func (s *SliceSource[T]) Count(ctx context.Context, q Query) (int, error) {
	matched, err := s.match(ctx, q.Filter)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (s *SliceSource[T]) Fetch(ctx context.Context, q Query, offset, limit int) ([]*T, error) {
	matched, err := s.match(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	getters := make([]Field[T], len(q.Orders))
	for i, o := range q.Orders {
		f, ok := s.fields[o.Column]
		if !ok {
			return nil, fmt.Errorf("unknown order column %q", o.Column)
		}
		getters[i] = f
	}
	slices.SortStableFunc(matched, func(a, b *T) int {
		for i, o := range q.Orders {
			c := compareValues(getters[i](a), getters[i](b))
			if c == 0 {
				continue
			}
			if o.Direction == types.Descending {
				return -c
			}
			return c
		}
		return 0
	})

	if offset >= len(matched) {
		return []*T{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *SliceSource[T]) match(ctx context.Context, f Filter) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !f.Active() {
		return slices.Clone(s.items), nil
	}
	getters := make([]Field[T], 0, len(f.Columns))
	for _, c := range f.Columns {
		g, ok := s.fields[c]
		if !ok {
			return nil, fmt.Errorf("unknown filter column %q", c)
		}
		getters = append(getters, g)
	}
	needle := strings.ToLower(f.Search)
	matched := make([]*T, 0, len(s.items))
	for _, item := range s.items {
		for _, g := range getters {
			v, ok := g(item).(string)
			if ok && strings.Contains(strings.ToLower(v), needle) {
				matched = append(matched, item)
				break
			}
		}
	}
	return matched, nil
}

func compareValues(a, b any) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case int:
		if y, ok := b.(int); ok {
			return cmp.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
