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
	"net"
	"net/http"
	"strings"

	"github.com/tomoncle/gamesroster/auth"
	"github.com/tomoncle/gamesroster/config"
	"github.com/tomoncle/gamesroster/handler"
	"github.com/tomoncle/gamesroster/utils"

	"github.com/sirupsen/logrus"
)

var log = utils.NewLogger("SERVER")

// TokenVerifier turns a bearer token into a principal.
type TokenVerifier interface {
	Verify(raw string) (auth.Principal, error)
}

type Options struct {
	Config   config.Server
	Verifier TokenVerifier
	Metrics  *Metrics
	Limiter  *RateLimiter
}

// Server is the gamesroster HTTP server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	opts       Options
}

func New(opts Options) *Server {
	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Config.Addr,
			Handler:      Chain(mux, Recover, RequestID, AccessLog),
			ReadTimeout:  opts.Config.ReadTimeout,
			WriteTimeout: opts.Config.WriteTimeout,
			IdleTimeout:  opts.Config.IdleTimeout,
		},
		mux:  mux,
		opts: opts,
	}
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}
	return s
}

// Mount registers the routes of every controller.
func (s *Server) Mount(ctrls ...handler.Mountable) {
	for _, ctrl := range ctrls {
		for _, rt := range ctrl.Routes() {
			s.mux.Handle(rt.Pattern(), s.wrap(rt))
			log.WithFields(logrus.Fields{"pattern": rt.Pattern(), "public": rt.Public}).Debug("mounted route")
		}
	}
}

// wrap applies the per-route middleware: metrics, then authentication, then
// the rate limit, so rejected requests are still counted and the limiter can
// key on the principal.
func (s *Server) wrap(rt handler.Route) http.Handler {
	var h http.Handler = rt.Handler
	if s.opts.Limiter != nil && Limited(rt) {
		h = s.opts.Limiter.Middleware(h)
	}
	if !rt.Public {
		h = Authenticate(s.opts.Verifier)(h)
	}
	if s.opts.Metrics != nil {
		h = s.opts.Metrics.Instrument(rt.Pattern(), h)
	}
	return h
}

// Limited reports whether rt is throttled: uploads and logins.
func Limited(rt handler.Route) bool {
	if rt.Method != http.MethodPost {
		return false
	}
	return strings.HasSuffix(rt.Path, "/import") || strings.HasSuffix(rt.Path, "/auth/login")
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Serve is Start on an existing listener.
func (s *Server) Serve(l net.Listener) error {
	log.WithField("addr", l.Addr().String()).Info("starting HTTP server")
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
