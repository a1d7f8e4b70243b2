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
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/gamesroster"
	"github.com/tomoncle/gamesroster/auth"
	"github.com/tomoncle/gamesroster/database"
	"github.com/tomoncle/gamesroster/models"
	"github.com/tomoncle/gamesroster/repository"
	"github.com/uptrace/bun"
)

type recordingObserver struct {
	entity string
	report *gamesroster.ImportReport
	err    error
}

func (o *recordingObserver) ObserveImport(entity string, report *gamesroster.ImportReport, err error) {
	o.entity, o.report, o.err = entity, report, err
}

type env struct {
	db       *bun.DB
	mux      *http.ServeMux
	coaches  map[string]*models.Coach
	observer *recordingObserver
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	c := database.DefaultConnection()
	c.DBName = database.MemoryDB
	m := database.NewManager(c, nil)
	require.NoError(t, m.Connect(ctx))
	t.Cleanup(func() { _ = m.Close() })
	cfg := database.DefaultConfig()
	cfg.Seed.OnMigration = false
	require.NoError(t, m.Migrate(ctx, cfg, models.Registry(), models.ForeignKeys()))

	e := &env{db: m.DB(), mux: http.NewServeMux(), coaches: map[string]*models.Coach{}, observer: &recordingObserver{}}
	opts := Options{PageSizes: testSizes, MaxUploadBytes: 1 << 20, Observer: e.observer}
	coaches := gamesroster.NewService(e.db, gamesroster.CoachDescriptor())
	for _, ctrl := range []Mountable{
		NewController(coaches, opts),
		NewSummaryController(repository.NewSummarySource(e.db), gamesroster.SummarySorts(), gamesroster.SummarySearch, opts),
	} {
		for _, rt := range ctrl.Routes() {
			e.mux.HandleFunc(rt.Pattern(), rt.Handler)
		}
	}

	for _, last := range []string{"Smith", "Adams", "Brown"} {
		coach := &models.Coach{FirstName: "Pat", LastName: last}
		require.NoError(t, coaches.Create(ctx, "staff1", coach))
		e.coaches[last] = coach
	}
	sport := &models.Sport{Code: "ATH", Name: "Athletics"}
	require.NoError(t, repository.NewRepository[models.Sport](e.db).Create(ctx, sport))
	contingent := &models.Contingent{Code: "ON", Name: "Ontario"}
	require.NoError(t, repository.NewRepository[models.Contingent](e.db).Create(ctx, contingent))
	require.NoError(t, repository.NewRepository[models.Athlete](e.db).Create(ctx, &models.Athlete{
		AthleteCode: "A1", FirstName: "Jo", LastName: "Lee",
		CoachID: e.coaches["Adams"].ID, SportID: sport.ID, ContingentID: contingent.ID,
	}))
	return e
}

func (e *env) do(t *testing.T, role auth.Role, user string, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if role != auth.RoleUnknown {
		req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{Username: user, Role: role}))
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func coachPath(c *models.Coach) string {
	return "/api/v1/coaches/" + strconv.FormatInt(c.ID, 10)
}

func TestListPagesWithState(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, auth.RoleUser, "viewer", httptest.NewRequest(http.MethodGet, "/api/v1/coaches?pageSize=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[ListResponse[models.Coach]](t, rec)
	require.Len(t, body.Items, 2)
	assert.Equal(t, "Adams", body.Items[0].LastName)
	assert.Equal(t, "Brown", body.Items[1].LastName)
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, 2, body.TotalPages)
	assert.True(t, body.HasNext)
	assert.Equal(t, []string{"Last Name", "First Name"}, body.SortOptions)
	assert.Equal(t, "/api/v1/coaches?page=1&pageSize=2&sortDirection=asc&sortField=Last+Name", body.ReturnURL)
}

func TestListClampsPageAndEchoesIt(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, auth.RoleUser, "viewer", httptest.NewRequest(http.MethodGet, "/api/v1/coaches?pageSize=2&page=9", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[ListResponse[models.Coach]](t, rec)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 2, body.State.Page)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Smith", body.Items[0].LastName)
}

func TestListRequiresPrincipal(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, auth.RoleUnknown, "", httptest.NewRequest(http.MethodGet, "/api/v1/coaches", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestDetailsIncludesAthletesAndReturnURL(t *testing.T) {
	e := newEnv(t)
	path := coachPath(e.coaches["Adams"]) + "?returnState=" + "sortField%3DFirst%2BName%26page%3D2"

	rec := e.do(t, auth.RoleStaff, "staff2", httptest.NewRequest(http.MethodGet, path, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[ItemResponse[models.Coach]](t, rec)
	require.Len(t, body.Item.Athletes, 1)
	assert.Equal(t, "Athletics", body.Item.Athletes[0].Sport.Name)
	assert.Equal(t, "/api/v1/coaches?page=2&pageSize=10&sortDirection=asc&sortField=First+Name", body.ReturnURL)

	rec = e.do(t, auth.RoleUser, "viewer", httptest.NewRequest(http.MethodGet, coachPath(e.coaches["Adams"]), nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, auth.RoleStaff, "staff2", httptest.NewRequest(http.MethodGet, "/api/v1/coaches/9999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateStampsActor(t *testing.T) {
	e := newEnv(t)
	body := strings.NewReader(`{"first_name":"Kim","last_name":"Oh"}`)

	rec := e.do(t, auth.RoleStaff, "staff2", httptest.NewRequest(http.MethodPost, "/api/v1/coaches", body))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[ItemResponse[models.Coach]](t, rec).Item
	assert.Equal(t, "staff2", created.CreatedBy)
	assert.Equal(t, coachPath(created), rec.Header().Get("Location"))

	rec = e.do(t, auth.RoleStaff, "staff2", httptest.NewRequest(http.MethodPost, "/api/v1/coaches", strings.NewReader(`{"first_name":"Kim"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaffEditsOnlyTheirOwnRecords(t *testing.T) {
	e := newEnv(t)
	coach := e.coaches["Brown"]
	body := func() *strings.Reader {
		return strings.NewReader(`{"id":` + strconv.FormatInt(coach.ID, 10) + `,"first_name":"Chris","last_name":"Brown"}`)
	}

	rec := e.do(t, auth.RoleStaff, "staff2", httptest.NewRequest(http.MethodPut, coachPath(coach), body()))
	require.Equal(t, http.StatusForbidden, rec.Code)
	p := decode[Problem](t, rec)
	assert.Equal(t, "You are not authorized to edit a Coach you did not enter into the system.", p.Detail)

	rec = e.do(t, auth.RoleStaff, "staff1", httptest.NewRequest(http.MethodPut, coachPath(coach), body()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Chris", decode[ItemResponse[models.Coach]](t, rec).Item.FirstName)

	rec = e.do(t, auth.RoleSupervisor, "super", httptest.NewRequest(http.MethodPut, coachPath(coach), strings.NewReader(`{"id":9999}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteCoachWorkingWithAthletes(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, auth.RoleStaff, "staff1", httptest.NewRequest(http.MethodDelete, coachPath(e.coaches["Smith"]), nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, auth.RoleSupervisor, "super", httptest.NewRequest(http.MethodDelete, coachPath(e.coaches["Adams"]), nil))
	require.Equal(t, http.StatusConflict, rec.Code)
	p := decode[Problem](t, rec)
	assert.Equal(t, "Unable to Delete Coach. Remember, you cannot delete a Coach working with Athletes.", p.Detail)
	assert.NotEmpty(t, p.ReturnURL)

	rec = e.do(t, auth.RoleAdmin, "admin", httptest.NewRequest(http.MethodDelete, coachPath(e.coaches["Smith"]), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Coach deleted.", decode[MessageResponse](t, rec).Message)
}

func upload(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/coaches/import?returnState=page%3D3", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportCoaches(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, auth.RoleStaff, "staff2", upload(t, "coaches.csv", "First,Middle,Last\nJo,,Lee\nJo,,Lee\nPat,,Smith\n"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[ImportResponse](t, rec)
	assert.Equal(t, "Imported 3 records, with 2 rejected as duplicates and 1 inserted.", body.Message)
	assert.Contains(t, body.ReturnURL, "page=1")
	assert.Equal(t, "coaches", e.observer.entity)
	require.NotNil(t, e.observer.report)
	assert.Equal(t, 1, e.observer.report.Inserted)
}

func TestImportRejectsMissingOrUnreadableFiles(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, auth.RoleStaff, "staff1", upload(t, "", ""))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgNoFile, decode[Problem](t, rec).Detail)

	rec = e.do(t, auth.RoleStaff, "staff1", upload(t, "coaches.xls", "whatever"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgImportFailed, decode[Problem](t, rec).Detail)

	rec = e.do(t, auth.RoleStaff, "staff1", upload(t, "coaches.xlsx", "not a workbook"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgImportFailed, decode[Problem](t, rec).Detail)

	rec = e.do(t, auth.RoleUser, "viewer", upload(t, "coaches.csv", "First,Middle,Last\n"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSummaryReport(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	event := &models.Event{Code: "100M", Name: "100 m", SportID: 1}
	require.NoError(t, repository.NewRepository[models.Event](e.db).Create(ctx, event))
	require.NoError(t, repository.NewRepository[models.Placement](e.db).Create(ctx,
		&models.Placement{AthleteID: 1, EventID: event.ID, Place: 3}))

	rec := e.do(t, auth.RoleUser, "viewer", httptest.NewRequest(http.MethodGet, "/api/v1/placements/summary?sortField=Average", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[ListResponse[models.PlacementSummary]](t, rec)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Jo Lee", body.Items[0].Athlete)
	assert.Equal(t, 3, body.Items[0].Highest)
	assert.Equal(t, "Average", body.State.SortField)
}
