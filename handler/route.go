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

import "net/http"

// Route is one endpoint. Path may hold ServeMux wildcards.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
	// Public routes skip authentication.
	Public bool
}

// Pattern is the ServeMux pattern of the route.
func (r Route) Pattern() string {
	return r.Method + " " + r.Path
}

// Mountable is anything that contributes routes.
type Mountable interface {
	Routes() []Route
}

// APIPrefix is the path every API route starts with.
const APIPrefix = "/api/v1"
