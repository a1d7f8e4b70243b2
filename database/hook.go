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

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

var operationColors = map[string]*color.Color{
	"SELECT": color.New(color.FgGreen),
	"INSERT": color.New(color.FgBlue),
	"UPDATE": color.New(color.FgYellow),
	"DELETE": color.New(color.FgMagenta),
}

func colorQuery(event *bun.QueryEvent) string {
	if c, ok := operationColors[event.Operation()]; ok {
		return c.Sprint(event.Query)
	}
	return color.RedString(event.Query)
}

// slowQueryHook warns about queries slower than threshold.
type slowQueryHook struct {
	threshold time.Duration
	logger    Logger
}

var _ bun.QueryHook = (*slowQueryHook)(nil)

func (h *slowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if event.Err != nil {
		return
	}
	if d := time.Since(event.StartTime); d > h.threshold {
		h.logger.Warn(color.New(color.FgYellow, color.Bold).Sprint("slow query"),
			"duration", d.Round(time.Microsecond),
			"threshold", h.threshold,
			"query", colorQuery(event),
		)
	}
}

// errorQueryHook logs failed queries at debug level. Missing rows and
// finished transactions are not failures.
type errorQueryHook struct {
	logger Logger
}

var _ bun.QueryHook = (*errorQueryHook)(nil)

func (h *errorQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *errorQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	switch {
	case event.Err == nil, errors.Is(event.Err, sql.ErrNoRows), errors.Is(event.Err, sql.ErrTxDone):
		return
	}
	kind, _ := ClassifyError(event.Err)
	h.logger.Debug("query failed",
		"kind", kind.String(),
		"error", event.Err.Error(),
		"query", colorQuery(event),
	)
}
