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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tomoncle/gamesroster/auth"
	"github.com/tomoncle/gamesroster/database"
)

// Authenticator checks credentials.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, time.Time, error)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionController issues tokens and reports who is signed in.
type SessionController struct {
	auth Authenticator
}

func NewSessionController(a Authenticator) *SessionController {
	return &SessionController{auth: a}
}

func (c *SessionController) Routes() []Route {
	return []Route{
		{Method: http.MethodPost, Path: APIPrefix + "/auth/login", Handler: c.Login, Public: true},
		{Method: http.MethodGet, Path: APIPrefix + "/auth/me", Handler: c.Me},
	}
}

func (c *SessionController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Username == "" {
		BadRequest(w, "username and password are required", r.URL.Path)
		return
	}
	token, expires, err := c.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		Unauthorized(w, err.Error(), r.URL.Path)
		return
	}
	if err != nil {
		log.WithError(err).Error("login failed")
		InternalError(w, MsgLoadFailed, r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, TokenType: "Bearer", ExpiresAt: expires})
}

func (c *SessionController) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		Unauthorized(w, auth.ErrUnauthenticated.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, auth.ErrUnauthenticated) {
		Unauthorized(w, err.Error(), r.URL.Path)
		return
	}
	Forbidden(w, err.Error(), r.URL.Path)
}

// HealthChecker reports database health and pool usage.
type HealthChecker interface {
	HealthCheck(ctx context.Context) *database.HealthStatus
	Stats() *database.DBStats
}

// HealthController serves GET /healthz.
type HealthController struct {
	db HealthChecker
}

func NewHealthController(db HealthChecker) *HealthController {
	return &HealthController{db: db}
}

func (c *HealthController) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "/healthz", Handler: c.Health, Public: true}}
}

func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	status := c.db.HealthCheck(r.Context())
	code := http.StatusOK
	state := "ok"
	if !status.Healthy {
		code = http.StatusServiceUnavailable
		state = "unavailable"
	}
	writeJSON(w, code, map[string]any{
		"status":   state,
		"service":  "gamesroster",
		"database": status,
		"pool":     c.db.Stats(),
	})
}
