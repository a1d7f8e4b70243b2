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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/gamesroster"
	"github.com/tomoncle/gamesroster/auth"
	"github.com/tomoncle/gamesroster/config"
	"github.com/tomoncle/gamesroster/database"
	"github.com/tomoncle/gamesroster/handler"
	"github.com/tomoncle/gamesroster/importer"
	"github.com/tomoncle/gamesroster/models"
)

type fixture struct {
	server  *Server
	catalog *Catalog
	metrics *Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	c := database.DefaultConnection()
	c.DBName = database.MemoryDB
	m := database.NewManager(c, nil)
	require.NoError(t, m.Connect(ctx))
	t.Cleanup(func() { _ = m.Close() })
	dbCfg := database.DefaultConfig()
	dbCfg.Seed.OnMigration = false
	require.NoError(t, m.Migrate(ctx, dbCfg, models.Registry(), models.ForeignKeys()))

	catalog := NewCatalog(m.DB())
	created, err := catalog.EnsureUser(ctx, "admin", "s3cret", auth.RoleAdmin)
	require.NoError(t, err)
	require.True(t, created)

	tokens := auth.NewTokenIssuer("test-secret", "gamesroster", time.Hour)
	authn := auth.NewAuthenticator(catalog.Users, tokens)
	metrics := NewMetrics()
	s := New(Options{
		Config:   config.Default().Server,
		Verifier: authn,
		Metrics:  metrics,
		Limiter:  NewRateLimiter(1, 3),
	})
	opts := handler.Options{PageSizes: handler.PageSizes{Default: 10, Allowed: []int{10, 20}}, Observer: metrics}
	s.Mount(catalog.Controllers(opts)...)
	s.Mount(handler.NewSessionController(authn), handler.NewHealthController(m))
	return &fixture{server: s, catalog: catalog, metrics: metrics}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"username":"` + username + `","password":"` + password + `"}`
	return f.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body)))
}

func TestBearerTokenFlow(t *testing.T) {
	f := newFixture(t)

	rec := f.login(t, "admin", "s3cret")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login handler.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sports", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = f.do(req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "bearer "+login.Token)
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)
}

func TestProtectedRoutesRejectMissingOrBadTokens(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/coaches", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/coaches", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/coaches", nil)
	req.Header.Set("Authorization", "Basic YWRtaW46czNjcmV0")
	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)

	assert.Equal(t, http.StatusUnauthorized, f.login(t, "admin", "wrong").Code)
}

func TestPublicRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	f.do(httptest.NewRequest(http.MethodGet, "/api/v1/coaches", nil))
	rec = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gamesroster_http_requests_total{code="401",route="GET /api/v1/coaches"} 1`)
}

func TestLoginIsRateLimited(t *testing.T) {
	f := newFixture(t)

	for range 3 {
		assert.Equal(t, http.StatusUnauthorized, f.login(t, "admin", "wrong").Code)
	}
	rec := f.login(t, "admin", "s3cret")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimiterRefillsAndForgets(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l := NewRateLimiter(6, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	now = now.Add(11 * time.Second)
	assert.True(t, l.Allow("a"))

	now = now.Add(time.Hour)
	l.Allow("c")
	assert.Len(t, l.clients, 1)
}

func TestLimited(t *testing.T) {
	assert.True(t, Limited(handler.Route{Method: http.MethodPost, Path: "/api/v1/coaches/import"}))
	assert.True(t, Limited(handler.Route{Method: http.MethodPost, Path: "/api/v1/auth/login"}))
	assert.False(t, Limited(handler.Route{Method: http.MethodPost, Path: "/api/v1/coaches"}))
	assert.False(t, Limited(handler.Route{Method: http.MethodGet, Path: "/api/v1/coaches/import"}))
}

func TestRequestIDIsKept(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}), RequestID)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRecoverTurnsPanicsInto500(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), Recover, RequestID)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/coaches", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestObserveImport(t *testing.T) {
	m := NewMetrics()

	m.ObserveImport("coaches", &gamesroster.ImportReport{
		Inserted:   3,
		Duplicates: 2,
		Invalid:    []importer.RowError{{Line: 4, Reason: "missing"}},
	}, nil)
	m.ObserveImport("coaches", nil, errors.New("db down"))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.importRows.WithLabelValues("coaches", "inserted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.importRows.WithLabelValues("coaches", "duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importRows.WithLabelValues("coaches", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imports.WithLabelValues("coaches", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imports.WithLabelValues("coaches", "failure")))
}

func TestCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, []string{"athletes", "coaches", "contingents", "events", "placements", "sports"}, f.catalog.ImportRoutes())
	imp, ok := f.catalog.Importer("coaches")
	require.True(t, ok)
	report, err := imp.Import(ctx, "admin", []importer.Row{{Line: 2, Cells: []string{"Jo", "", "Lee"}}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	_, ok = f.catalog.Importer("users")
	assert.False(t, ok)

	created, err := f.catalog.EnsureUser(ctx, "admin", "other", auth.RoleUser)
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, f.catalog.SaveUser(ctx, "admin", "changed", auth.RoleSupervisor))
	u, err := f.catalog.Users.FindBy(ctx, "username", "admin")
	require.NoError(t, err)
	assert.Equal(t, "supervisor", u.Role)
	assert.True(t, auth.CheckPassword(u.PasswordHash, "changed"))

	err = f.catalog.SaveUser(ctx, "nobody", "", auth.RoleUser)
	assert.ErrorIs(t, err, gamesroster.ErrInvalid)
}

func TestCatalogListUsersByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.catalog.SaveUser(ctx, "zoe", "pw", auth.RoleStaff))
	require.NoError(t, f.catalog.SaveUser(ctx, "bea", "pw", auth.RoleStaff))

	staff, err := f.catalog.ListUsers(ctx, auth.RoleStaff)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "bea", staff[0].Username)
	assert.Equal(t, "zoe", staff[1].Username)

	all, err := f.catalog.ListUsers(ctx, auth.RoleUnknown)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
