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
	"encoding/json"
	"net/http"
)

// Problem types for RFC 7807 Problem Details responses.
const (
	ProblemTypeNotFound     = "https://gamesroster.dev/problems/not-found"
	ProblemTypeBadRequest   = "https://gamesroster.dev/problems/bad-request"
	ProblemTypeInternal     = "https://gamesroster.dev/problems/internal-error"
	ProblemTypeUnauthorized = "https://gamesroster.dev/problems/unauthorized"
	ProblemTypeForbidden    = "https://gamesroster.dev/problems/forbidden"
	ProblemTypeRateLimited  = "https://gamesroster.dev/problems/rate-limited"
	ProblemTypeConflict     = "https://gamesroster.dev/problems/conflict"
	ProblemTypeTooLarge     = "https://gamesroster.dev/problems/too-large"
)

// Problem represents an RFC 7807 Problem Details response. ReturnURL lets a
// client go back to the list it came from.
type Problem struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Instance  string `json:"instance,omitempty"`
	ReturnURL string `json:"return_url,omitempty"`
}

// WriteProblem writes an RFC 7807 Problem Details JSON response.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

var problemTypes = map[int][2]string{
	http.StatusBadRequest:            {ProblemTypeBadRequest, "Bad Request"},
	http.StatusUnauthorized:          {ProblemTypeUnauthorized, "Unauthorized"},
	http.StatusForbidden:             {ProblemTypeForbidden, "Forbidden"},
	http.StatusNotFound:              {ProblemTypeNotFound, "Not Found"},
	http.StatusConflict:              {ProblemTypeConflict, "Conflict"},
	http.StatusRequestEntityTooLarge: {ProblemTypeTooLarge, "Request Entity Too Large"},
	http.StatusTooManyRequests:       {ProblemTypeRateLimited, "Too Many Requests"},
	http.StatusInternalServerError:   {ProblemTypeInternal, "Internal Server Error"},
}

// NewProblem fills in the type and title for status.
func NewProblem(status int, detail, instance string) Problem {
	t, ok := problemTypes[status]
	if !ok {
		t = [2]string{"about:blank", http.StatusText(status)}
	}
	return Problem{Type: t[0], Title: t[1], Status: status, Detail: detail, Instance: instance}
}

// NotFound writes a 404 problem response.
func NotFound(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, NewProblem(http.StatusNotFound, detail, instance))
}

// BadRequest writes a 400 problem response.
func BadRequest(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, NewProblem(http.StatusBadRequest, detail, instance))
}

// InternalError writes a 500 problem response.
func InternalError(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, NewProblem(http.StatusInternalServerError, detail, instance))
}

// Unauthorized writes a 401 problem response.
func Unauthorized(w http.ResponseWriter, detail, instance string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="gamesroster"`)
	WriteProblem(w, NewProblem(http.StatusUnauthorized, detail, instance))
}

// Forbidden writes a 403 problem response.
func Forbidden(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, NewProblem(http.StatusForbidden, detail, instance))
}

// RateLimited writes a 429 problem response.
func RateLimited(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, NewProblem(http.StatusTooManyRequests, detail, instance))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
