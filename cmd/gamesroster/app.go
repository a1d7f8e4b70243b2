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

package main

import (
	"context"
	"fmt"

	"github.com/tomoncle/gamesroster/config"
	"github.com/tomoncle/gamesroster/database"
	"github.com/tomoncle/gamesroster/models"
	"github.com/tomoncle/gamesroster/server"
	"github.com/tomoncle/gamesroster/utils"
)

var log = utils.NewLogger("MAIN")

type app struct {
	cfg     *config.Config
	manager *database.Manager
	catalog *server.Catalog
}

// openApp loads the configuration, sets up logging and connects to the
// database.
func openApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := utils.Configure(cfg.Log); err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	m := database.NewManager(cfg.Database.Connection, database.DefaultLogger())
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}
	return &app{cfg: cfg, manager: m, catalog: server.NewCatalog(m.DB())}, nil
}

func (a *app) migrate(ctx context.Context) error {
	return a.manager.Migrate(ctx, a.cfg.Database, models.Registry(), models.ForeignKeys())
}

func (a *app) Close() {
	if err := a.manager.Close(); err != nil {
		log.WithError(err).Warn("close database")
	}
}
