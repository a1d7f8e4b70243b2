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
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tomoncle/gamesroster"
	"github.com/tomoncle/gamesroster/auth"
	"github.com/tomoncle/gamesroster/handler"
	"github.com/tomoncle/gamesroster/models"
	"github.com/tomoncle/gamesroster/repository"
	"github.com/tomoncle/gamesroster/types"

	"github.com/uptrace/bun"
)

// Catalog holds one service per entity, all over the same database.
type Catalog struct {
	Sports      gamesroster.Service[models.Sport]
	Contingents gamesroster.Service[models.Contingent]
	Coaches     gamesroster.Service[models.Coach]
	Athletes    gamesroster.Service[models.Athlete]
	Events      gamesroster.Service[models.Event]
	Placements  gamesroster.Service[models.Placement]
	Summary     *repository.SummarySource
	Users       repository.Repository[models.User]

	importers map[string]gamesroster.Importer
}

func NewCatalog(db *bun.DB) *Catalog {
	c := &Catalog{
		Sports:      gamesroster.NewService(db, gamesroster.SportDescriptor()),
		Contingents: gamesroster.NewService(db, gamesroster.ContingentDescriptor()),
		Coaches:     gamesroster.NewService(db, gamesroster.CoachDescriptor()),
		Athletes:    gamesroster.NewService(db, gamesroster.AthleteDescriptor()),
		Events:      gamesroster.NewService(db, gamesroster.EventDescriptor()),
		Placements:  gamesroster.NewService(db, gamesroster.PlacementDescriptor()),
		Summary:     repository.NewSummarySource(db),
		Users:       repository.NewRepository[models.User](db),
	}
	c.importers = map[string]gamesroster.Importer{}
	register(c.importers, c.Sports)
	register(c.importers, c.Contingents)
	register(c.importers, c.Coaches)
	register(c.importers, c.Athletes)
	register(c.importers, c.Events)
	register(c.importers, c.Placements)
	return c
}

func register[T any](m map[string]gamesroster.Importer, svc gamesroster.Service[T]) {
	if desc := svc.Descriptor(); desc.Importable() {
		m[desc.Route] = svc
	}
}

// Controllers returns every controller of the API, sessions and health
// excluded.
func (c *Catalog) Controllers(opts handler.Options) []handler.Mountable {
	return []handler.Mountable{
		handler.NewController(c.Sports, opts),
		handler.NewController(c.Contingents, opts),
		handler.NewController(c.Coaches, opts),
		handler.NewController(c.Athletes, opts),
		handler.NewController(c.Events, opts),
		handler.NewController(c.Placements, opts),
		handler.NewSummaryController(c.Summary, gamesroster.SummarySorts(), gamesroster.SummarySearch, opts),
	}
}

// Importer returns the importer for an entity route such as "coaches".
func (c *Catalog) Importer(route string) (gamesroster.Importer, bool) {
	imp, ok := c.importers[route]
	return imp, ok
}

// ImportRoutes lists the entities that accept imports.
func (c *Catalog) ImportRoutes() []string {
	routes := make([]string, 0, len(c.importers))
	for r := range c.importers {
		routes = append(routes, r)
	}
	slices.Sort(routes)
	return routes
}

// SaveUser creates username or replaces its password and role.
func (c *Catalog) SaveUser(ctx context.Context, username, password string, role auth.Role) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", gamesroster.ErrInvalid)
	}
	if !role.IsValid() {
		return fmt.Errorf("%w: unknown role", gamesroster.ErrInvalid)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{Username: username, PasswordHash: hash, Role: role.Name()}
	return c.Users.Upsert(ctx, []string{"password_hash", "role"}, []string{"username"}, u)
}

// ListUsers returns the users holding role, or every user when role is
// RoleUnknown, in username order.
func (c *Catalog) ListUsers(ctx context.Context, role auth.Role) ([]*models.User, error) {
	var filter *types.QueryFilter
	if role != auth.RoleUnknown {
		filter = types.NewQueryFilter("role = ?", role.Name())
	}
	users, err := c.Users.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(users, func(a, b *models.User) int { return strings.Compare(a.Username, b.Username) })
	return users, nil
}

// EnsureUser creates username when it does not exist yet. It reports whether
// a user was created.
func (c *Catalog) EnsureUser(ctx context.Context, username, password string, role auth.Role) (bool, error) {
	_, err := c.Users.FindBy(ctx, "username", username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	if err := c.SaveUser(ctx, username, password, role); err != nil {
		return false, err
	}
	return true, nil
}
