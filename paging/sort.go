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
	"fmt"

	"github.com/tomoncle/gamesroster/types"
)

// SortOption is one entry of a sort allow-list. Name is what the client
// sends ("Last Name"); Column is the primary attribute and Secondary breaks
// ties on it.
type SortOption struct {
	Name      string
	Column    string
	Secondary string
}

// SortOptions is a caller-defined allow-list of sortable fields. The first
// option is the default.
type SortOptions struct {
	options  []SortOption
	tiebreak string
}

// NewSortOptions builds an allow-list. tiebreak is appended as a final
// order term (usually the identity column) so that full ties still come
// back in a deterministic order.
func NewSortOptions(tiebreak string, options ...SortOption) SortOptions {
	return SortOptions{options: options, tiebreak: tiebreak}
}

// Default returns the name of the first option, or "" when the list is empty.
func (s SortOptions) Default() string {
	if len(s.options) == 0 {
		return ""
	}
	return s.options[0].Name
}

func (s SortOptions) Names() []string {
	names := make([]string, len(s.options))
	for i, o := range s.options {
		names[i] = o.Name
	}
	return names
}

func (s SortOptions) Has(name string) bool {
	_, ok := s.lookup(name)
	return ok
}

func (s SortOptions) lookup(name string) (SortOption, bool) {
	for _, o := range s.options {
		if o.Name == name {
			return o, true
		}
	}
	return SortOption{}, false
}

// Resolve turns a Sort into ORDER BY terms. Both levels and the tiebreak
// share the requested direction.
func (s SortOptions) Resolve(sort Sort) ([]Order, error) {
	opt, ok := s.lookup(sort.Field)
	if !ok {
		return nil, fmt.Errorf("%w: %q (allowed: %v)", ErrInvalidSortField, sort.Field, s.Names())
	}
	dir := sort.Direction
	if dir != types.Descending {
		dir = types.Ascending
	}
	orders := []Order{{Column: opt.Column, Direction: dir}}
	if opt.Secondary != "" && opt.Secondary != opt.Column {
		orders = append(orders, Order{Column: opt.Secondary, Direction: dir})
	}
	if s.tiebreak != "" && s.tiebreak != opt.Column && s.tiebreak != opt.Secondary {
		orders = append(orders, Order{Column: s.tiebreak, Direction: dir})
	}
	return orders, nil
}
