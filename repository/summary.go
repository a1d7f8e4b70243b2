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

	"github.com/tomoncle/gamesroster/models"
	"github.com/tomoncle/gamesroster/paging"

	"github.com/uptrace/bun"
)

// SummarySource aggregates placements per athlete. Athletes without
// placements are not listed.
type SummarySource struct {
	db bun.IDB
}

func NewSummarySource(db bun.IDB) *SummarySource {
	return &SummarySource{db: db}
}

func (s *SummarySource) aggregate() *bun.SelectQuery {
	return s.db.NewSelect().
		TableExpr("placements AS pl").
		Join("JOIN athletes AS a ON a.id = pl.athlete_id").
		Join("JOIN contingents AS cg ON cg.id = a.contingent_id").
		Join("JOIN events AS e ON e.id = pl.event_id").
		ColumnExpr("a.id AS athlete_id").
		ColumnExpr("a.athlete_code, a.first_name, a.last_name, a.media_info").
		ColumnExpr("cg.name AS contingent").
		ColumnExpr("AVG(pl.place) AS average").
		ColumnExpr("MAX(pl.place) AS highest").
		ColumnExpr("MIN(pl.place) AS lowest").
		ColumnExpr("COUNT(pl.id) AS total_events").
		ColumnExpr("COUNT(DISTINCT e.sport_id) AS number_of_sports").
		GroupExpr("a.id, a.athlete_code, a.first_name, a.last_name, a.media_info, cg.name")
}

func (s *SummarySource) outer() *bun.SelectQuery {
	return s.db.NewSelect().TableExpr("(?) AS summary", s.aggregate())
}

func (s *SummarySource) Count(ctx context.Context, q paging.Query) (int, error) {
	return s.outer().
		Apply(applyFilter(q.Filter, "summary.?")).
		Count(ctx)
}

func (s *SummarySource) Fetch(ctx context.Context, q paging.Query, offset, limit int) ([]*models.PlacementSummary, error) {
	items := make([]*models.PlacementSummary, 0, limit)
	err := s.outer().
		ColumnExpr("summary.*").
		Apply(applyFilter(q.Filter, "summary.?")).
		Apply(applyOrders(q.Orders, "summary.?")).
		Offset(offset).
		Limit(limit).
		Scan(ctx, &items)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		it.Athlete = it.FirstName + " " + it.LastName
	}
	return items, nil
}
