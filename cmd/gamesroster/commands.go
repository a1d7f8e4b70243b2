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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/tomoncle/gamesroster/auth"
	"github.com/tomoncle/gamesroster/handler"
	"github.com/tomoncle/gamesroster/importer"
	"github.com/tomoncle/gamesroster/server"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "gamesroster",
		Short:        "Roster administration for multi-sport games",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")

	open := func(cmd *cobra.Command) (*app, error) {
		return openApp(cmd.Context(), configPath)
	}
	root.AddCommand(
		newServeCmd(open),
		newMigrateCmd(open),
		newSeedCmd(open),
		newImportCmd(open),
		newUserCmd(open),
	)
	return root
}

type opener func(cmd *cobra.Command) (*app, error)

func newServeCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(cmd.Context(), a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must be set to serve the API")
	}
	if cfg.Database.Migrate.OnStartup {
		if err := a.migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if cfg.Auth.BootstrapUser != "" {
		created, err := a.catalog.EnsureUser(ctx, cfg.Auth.BootstrapUser, cfg.Auth.BootstrapPassword, auth.RoleAdmin)
		if err != nil {
			return fmt.Errorf("bootstrap user: %w", err)
		}
		if created {
			log.WithField("username", cfg.Auth.BootstrapUser).Info("created bootstrap admin")
		}
	}

	authn := auth.NewAuthenticator(a.catalog.Users, auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL))
	metrics := server.NewMetrics()
	srv := server.New(server.Options{
		Config:   cfg.Server,
		Verifier: authn,
		Metrics:  metrics,
		Limiter:  server.NewRateLimiter(cfg.Import.RatePerMinute, cfg.Import.Burst),
	})
	opts := handler.Options{
		PageSizes:      handler.PageSizes{Default: cfg.Paging.DefaultSize, Allowed: cfg.Paging.Sizes},
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
		Observer:       metrics,
	}
	srv.Mount(a.catalog.Controllers(opts)...)
	srv.Mount(handler.NewSessionController(authn), handler.NewHealthController(a.manager))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newMigrateCmd(open opener) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and foreign keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if cmd.Flags().Changed("seed") {
				a.cfg.Database.Seed.OnMigration = seed
			}
			if err := a.migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "run seed files as part of the migration")
	return cmd
}

func newSeedCmd(open opener) *cobra.Command {
	var path, env string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Run SQL seed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			seed := a.cfg.Database.Seed
			if path != "" {
				seed.Path = path
			}
			if env != "" {
				seed.Environment = env
			}
			results, err := a.manager.Seed(cmd.Context(), seed)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d statements, %d rows\n", r.File, r.Statements, r.RowsAffected)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "seed directory (default from config)")
	cmd.Flags().StringVar(&env, "env", "", "seed environment (default from config)")
	return cmd
}

func newImportCmd(open opener) *cobra.Command {
	var entity, file, actor string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an .xlsx or .csv file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			imp, ok := a.catalog.Importer(entity)
			if !ok {
				return fmt.Errorf("unknown entity %q, expected one of %s", entity, strings.Join(a.catalog.ImportRoutes(), ", "))
			}
			parser, err := importer.ParserFor(file)
			if err != nil {
				return err
			}
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			rows, err := parser.Parse(f)
			if err != nil {
				return err
			}
			report, err := imp.Import(cmd.Context(), actor, rows)
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"entity": entity, "file": filepath.Base(file)}).Info(report.Message)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.Message)
			for _, e := range report.Invalid {
				fmt.Fprintln(out, e.Error())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&entity, "entity", "e", "", "entity to import, e.g. coaches")
	cmd.Flags().StringVarP(&file, "file", "f", "", "file to import")
	cmd.Flags().StringVar(&actor, "actor", "cli", "name recorded as the creator of imported rows")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newUserCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}
	var username, password, role string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a user, or reset its password and role",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := auth.ParseRole(role)
			if !r.IsValid() {
				return fmt.Errorf("unknown role %q", role)
			}
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.catalog.SaveUser(cmd.Context(), username, password, r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s saved with role %s\n", username, r)
			return nil
		},
	}
	add.Flags().StringVarP(&username, "username", "u", "", "user name")
	add.Flags().StringVarP(&password, "password", "p", "", "password")
	add.Flags().StringVarP(&role, "role", "r", auth.RoleStaff.Name(), "user, staff, supervisor or admin")
	_ = add.MarkFlagRequired("username")
	_ = add.MarkFlagRequired("password")
	var only string
	list := &cobra.Command{
		Use:   "list",
		Short: "List users, optionally only those holding one role",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := auth.RoleUnknown
			if only != "" {
				if r = auth.ParseRole(only); !r.IsValid() {
					return fmt.Errorf("unknown role %q", only)
				}
			}
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			users, err := a.catalog.ListUsers(cmd.Context(), r)
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", u.Username, u.Role)
			}
			return nil
		},
	}
	list.Flags().StringVarP(&only, "role", "r", "", "only list users with this role")

	cmd.AddCommand(add, list)
	return cmd
}
