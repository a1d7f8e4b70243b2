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

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/gamesroster/database"
	"github.com/tomoncle/gamesroster/importer"
	"github.com/tomoncle/gamesroster/models"
	"github.com/tomoncle/gamesroster/paging"
	"github.com/tomoncle/gamesroster/types"
	"github.com/uptrace/bun"
)

var coachSorts = paging.NewSortOptions("id",
	paging.SortOption{Name: "Last Name", Column: "last_name", Secondary: "first_name"},
	paging.SortOption{Name: "First Name", Column: "first_name", Secondary: "last_name"},
)

type fixture struct {
	db         *bun.DB
	sport      *models.Sport
	swim       *models.Sport
	contingent *models.Contingent
	coaches    map[string]*models.Coach
	athlete    *models.Athlete
	events     []*models.Event
}

func newFixture(t *testing.T) *fixture {
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

	f := &fixture{db: m.DB(), coaches: map[string]*models.Coach{}}
	f.sport = &models.Sport{Code: "ATH", Name: "Athletics"}
	f.swim = &models.Sport{Code: "SWM", Name: "Swimming"}
	require.NoError(t, NewRepository[models.Sport](f.db).Create(ctx, f.sport, f.swim))
	f.contingent = &models.Contingent{Code: "ON", Name: "Ontario"}
	require.NoError(t, NewRepository[models.Contingent](f.db).Create(ctx, f.contingent))

	for _, last := range []string{"Smith", "Adams", "Brown"} {
		coach := &models.Coach{FirstName: "Pat", LastName: last}
		coach.Stamp("staff1", time.Now(), true)
		f.coaches[last] = coach
		require.NoError(t, NewRepository[models.Coach](f.db).Create(ctx, coach))
	}
	f.athlete = &models.Athlete{
		AthleteCode: "A0001", FirstName: "Jo", LastName: "Lee",
		CoachID: f.coaches["Adams"].ID, SportID: f.sport.ID, ContingentID: f.contingent.ID,
	}
	require.NoError(t, NewRepository[models.Athlete](f.db).Create(ctx, f.athlete))
	f.events = []*models.Event{
		{Code: "100M", Name: "100 m", SportID: f.sport.ID},
		{Code: "50FR", Name: "50 m freestyle", SportID: f.swim.ID},
	}
	require.NoError(t, NewRepository[models.Event](f.db).Create(ctx, f.events...))
	return f
}

func lastNames(items []*models.Coach) []string {
	names := make([]string, len(items))
	for i, c := range items {
		names[i] = c.LastName
	}
	return names
}

func TestSourcePagesSortedByLastName(t *testing.T) {
	f := newFixture(t)
	src := NewRepository[models.Coach](f.db).Source()

	page, err := paging.Paginate(context.Background(), src, coachSorts, paging.Filter{},
		paging.Sort{Field: "Last Name", Direction: types.Ascending}, types.NewPageRequest(1, 2))

	require.NoError(t, err)
	assert.Equal(t, []string{"Adams", "Brown"}, lastNames(page.Items))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
}

func TestSourceClampsAndReverses(t *testing.T) {
	f := newFixture(t)
	src := NewRepository[models.Coach](f.db).Source()
	ctx := context.Background()

	page, err := paging.Paginate(ctx, src, coachSorts, paging.Filter{},
		paging.Sort{Field: "Last Name"}, types.NewPageRequest(9, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, []string{"Smith"}, lastNames(page.Items))

	page, err = paging.Paginate(ctx, src, coachSorts, paging.Filter{},
		paging.Sort{Field: "Last Name", Direction: types.Descending}, types.NewPageRequest(1, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"Smith", "Brown", "Adams"}, lastNames(page.Items))
}

func TestSourceFiltersCaseInsensitively(t *testing.T) {
	f := newFixture(t)
	src := NewRepository[models.Coach](f.db).Source()
	ctx := context.Background()
	columns := []string{"first_name", "last_name"}

	page, err := paging.Paginate(ctx, src, coachSorts, paging.Filter{Search: "aDa", Columns: columns},
		paging.Sort{Field: "Last Name"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Adams"}, lastNames(page.Items))

	// LIKE wildcards in the search are literal
	page, err = paging.Paginate(ctx, src, coachSorts, paging.Filter{Search: "%", Columns: columns},
		paging.Sort{Field: "Last Name"}, nil)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Empty(t, page.Items)
}

func TestSourceFiltersAccentedNames(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository[models.Coach](f.db)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.Coach{FirstName: "Émilie", LastName: "Ouellet"}))
	all, err := repo.List(ctx, nil)
	require.NoError(t, err)

	columns := []string{"first_name", "last_name"}
	memory := paging.NewSliceSource(all, map[string]paging.Field[models.Coach]{
		"id":         func(c *models.Coach) any { return c.ID },
		"first_name": func(c *models.Coach) any { return c.FirstName },
		"last_name":  func(c *models.Coach) any { return c.LastName },
	})
	for _, search := range []string{"Émilie", "émilie", "ÉMILIE", "ouellet"} {
		filter := paging.Filter{Search: search, Columns: columns}

		stored, err := paging.Paginate(ctx, repo.Source(), coachSorts, filter, paging.Sort{Field: "Last Name"}, nil)
		require.NoError(t, err)
		inMemory, err := paging.Paginate[models.Coach](ctx, memory, coachSorts, filter, paging.Sort{Field: "Last Name"}, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, stored.Total, search)
		assert.Equal(t, inMemory.Total, stored.Total, search)
		assert.Equal(t, []string{"Ouellet"}, lastNames(stored.Items), search)
	}
}

func TestFoldExprBySQLDialect(t *testing.T) {
	f := newFixture(t)
	var folded string
	err := f.db.NewSelect().
		ColumnExpr(database.FoldExpr(f.db.Dialect().Name(), "?")+" AS folded", "ÀÉÎ Straße").
		Scan(context.Background(), &folded)
	require.NoError(t, err)
	assert.Equal(t, "àéî straße", folded)
}

func TestSourceFetchesRelations(t *testing.T) {
	f := newFixture(t)
	src := NewRepository[models.Athlete](f.db).Source("Coach", "Sport")
	sorts := paging.NewSortOptions("id", paging.SortOption{Name: "Athlete Code", Column: "athlete_code"})

	page, err := paging.Paginate(context.Background(), src, sorts,
		paging.Filter{Search: "lee", Columns: []string{"first_name", "last_name"}},
		paging.Sort{Field: "Athlete Code"}, nil)

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Adams", page.Items[0].Coach.LastName)
	assert.Equal(t, "ATH", page.Items[0].Sport.Code)
}

func TestGetOneWithNestedRelations(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository[models.Coach](f.db)
	ctx := context.Background()

	coach, err := repo.GetOne(ctx, f.coaches["Adams"].ID, "Athletes", "Athletes.Sport")
	require.NoError(t, err)
	require.Len(t, coach.Athletes, 1)
	assert.Equal(t, "A0001", coach.Athletes[0].AthleteCode)
	assert.Equal(t, "Athletics", coach.Athletes[0].Sport.Name)

	_, err = repo.GetOne(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCoachWithAthletesIsRestricted(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository[models.Coach](f.db)
	ctx := context.Background()

	err := repo.Delete(ctx, f.coaches["Adams"].ID)
	assert.True(t, database.IsForeignKeyViolation(err), "got %v", err)

	require.NoError(t, repo.Delete(ctx, f.coaches["Smith"].ID))
	assert.ErrorIs(t, repo.Delete(ctx, f.coaches["Smith"].ID), ErrNotFound)
}

func TestUpdateWritesOnlyNamedColumns(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository[models.Coach](f.db)
	ctx := context.Background()

	changed := *f.coaches["Brown"]
	changed.FirstName = "Chris"
	changed.CreatedBy = "intruder"
	require.NoError(t, repo.Update(ctx, &changed, "first_name"))

	got, err := repo.GetOne(ctx, changed.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chris", got.FirstName)
	assert.Equal(t, "staff1", got.CreatedBy)

	missing := &models.Coach{ID: 9999, FirstName: "X", LastName: "Y"}
	assert.ErrorIs(t, repo.Update(ctx, missing), ErrNotFound)
}

func TestKeysAndCreateInTransaction(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository[models.Coach](f.db)
	ctx := context.Background()
	keyOf := func(c *models.Coach) string { return importer.NameKey(c.FirstName, c.MiddleName, c.LastName) }

	keys, err := repo.Keys(ctx, keyOf)
	require.NoError(t, err)
	assert.True(t, keys.Has("PatSmith"))
	assert.Len(t, keys, 3)

	err = repo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		inTx, err := repo.KeysWithTx(ctx, &tx, keyOf)
		require.NoError(t, err)
		out := importer.Reconcile([]*models.Coach{
			{FirstName: "Pat", LastName: "Smith"},
			{FirstName: "Sam", LastName: "Ng"},
		}, inTx, keyOf)
		return repo.CreateWithTx(ctx, &tx, out.Accepted...)
	})
	require.NoError(t, err)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestLookupID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := LookupID(ctx, f.db, "sports", "code", "SWM")
	require.NoError(t, err)
	assert.Equal(t, f.swim.ID, id)

	_, err = LookupID(ctx, f.db, "sports", "code", "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertUserByUsername(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository[models.User](f.db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, []string{"password_hash", "role"}, []string{"username"},
		&models.User{Username: "admin", PasswordHash: "one", Role: "admin"}))
	require.NoError(t, repo.Upsert(ctx, []string{"password_hash", "role"}, []string{"username"},
		&models.User{Username: "admin", PasswordHash: "two", Role: "supervisor"}))

	u, err := repo.FindBy(ctx, "username", "admin")
	require.NoError(t, err)
	assert.Equal(t, "two", u.PasswordHash)
	assert.Equal(t, "supervisor", u.Role)

	_, err = repo.FindBy(ctx, "username", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummarySourceAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, NewRepository[models.Placement](f.db).Create(ctx,
		&models.Placement{AthleteID: f.athlete.ID, EventID: f.events[0].ID, Place: 1},
		&models.Placement{AthleteID: f.athlete.ID, EventID: f.events[1].ID, Place: 4},
	))
	sorts := paging.NewSortOptions("athlete_id",
		paging.SortOption{Name: "Average", Column: "average", Secondary: "last_name"})

	page, err := paging.Paginate[models.PlacementSummary](ctx, NewSummarySource(f.db), sorts,
		paging.Filter{Search: "LEE", Columns: []string{"first_name", "last_name"}},
		paging.Sort{Field: "Average"}, nil)

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	s := page.Items[0]
	assert.Equal(t, "A0001", s.AthleteCode)
	assert.Equal(t, "Jo Lee", s.Athlete)
	assert.Equal(t, "Ontario", s.Contingent)
	assert.InDelta(t, 2.5, s.Average, 0.001)
	assert.Equal(t, 4, s.Highest)
	assert.Equal(t, 1, s.Lowest)
	assert.Equal(t, 2, s.TotalEvents)
	assert.Equal(t, 2, s.NumberOfSports)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "50!%!_off!!", escapeLike("50%_off!"))
}
