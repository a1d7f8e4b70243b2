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

package database

import (
	"sort"
	"sync"
)

// SQLModel is a bun model taking part in migrations. Tables are created in
// ascending Priority, so referenced tables must have a lower priority than
// the tables that reference them.
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// ModelRegistry stores SQL models and exposes them in priority order.
type ModelRegistry struct {
	mu     sync.RWMutex
	models []SQLModel
}

func NewModelRegistry(models ...SQLModel) *ModelRegistry {
	r := &ModelRegistry{}
	for _, m := range models {
		r.Register(m)
	}
	return r
}

func (r *ModelRegistry) Register(model SQLModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = append(r.models, model)
}

// Models returns the models sorted by priority. Registration order breaks
// ties.
func (r *ModelRegistry) Models() []SQLModel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]SQLModel, len(r.models))
	copy(result, r.models)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

func (r *ModelRegistry) Instances() []interface{} {
	models := r.Models()
	out := make([]interface{}, len(models))
	for i, m := range models {
		out[i] = m.Instance()
	}
	return out
}

type modelAdapter struct {
	instance interface{}
	priority int
}

// NewModelAdapter wraps a struct pointer such as (*Coach)(nil).
func NewModelAdapter(instance interface{}, priority int) SQLModel {
	return &modelAdapter{instance: instance, priority: priority}
}

func (a *modelAdapter) Instance() interface{} { return a.instance }

func (a *modelAdapter) Priority() int { return a.priority }
