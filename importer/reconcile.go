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

package importer

import "fmt"

// KeySet is a set of import keys.
type KeySet map[string]struct{}

// NewKeySet returns a set holding keys.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

func (s KeySet) Add(key string) {
	s[key] = struct{}{}
}

// NameKey concatenates name parts with no separator, so "Ann"+"a"+"Banks"
// and "Anna"+""+"Banks" produce the same key.
func NameKey(first, middle, last string) string {
	return first + middle + last
}

// Outcome is the result of reconciling one batch of candidates.
type Outcome[T any] struct {
	Accepted   []T `json:"-"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
}

// Processed is the number of candidates looked at.
func (o Outcome[T]) Processed() int {
	return o.Inserted + o.Duplicates
}

func (o Outcome[T]) Message() string {
	return fmt.Sprintf("Imported %d records, with %d rejected as duplicates and %d inserted.",
		o.Processed(), o.Duplicates, o.Inserted)
}

// Reconcile splits candidates into accepted records and duplicates.
//
// Candidates are visited in order. A candidate whose key is in existing, or
// whose key was accepted earlier in the same call, is a duplicate; the first
// occurrence of a key wins. existing is only read. Nothing is persisted.
func Reconcile[T any](candidates []T, existing KeySet, keyOf func(T) string) Outcome[T] {
	out := Outcome[T]{Accepted: make([]T, 0, len(candidates))}
	seen := make(KeySet)
	for _, c := range candidates {
		key := keyOf(c)
		if existing.Has(key) || seen.Has(key) {
			out.Duplicates++
			continue
		}
		seen.Add(key)
		out.Accepted = append(out.Accepted, c)
		out.Inserted++
	}
	return out
}
