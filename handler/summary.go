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
	"net/http"

	"github.com/tomoncle/gamesroster/auth"
	"github.com/tomoncle/gamesroster/models"
	"github.com/tomoncle/gamesroster/paging"
)

// SummaryController serves the placement summary report.
type SummaryController struct {
	src    paging.Source[models.PlacementSummary]
	sorts  paging.SortOptions
	search []string
	opts   Options
	path   string
}

func NewSummaryController(src paging.Source[models.PlacementSummary], sorts paging.SortOptions, search []string, opts Options) *SummaryController {
	if opts.Policy == nil {
		opts.Policy = auth.DefaultPolicy()
	}
	return &SummaryController{src: src, sorts: sorts, search: search, opts: opts, path: APIPrefix + "/placements/summary"}
}

func (c *SummaryController) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: c.path, Handler: c.List}}
}

func (c *SummaryController) List(w http.ResponseWriter, r *http.Request) {
	if err := c.opts.Policy.Authorize(r.Context(), auth.ActionReport, ""); err != nil {
		writeAuthError(w, r, err)
		return
	}
	state := ParseListState(r.URL.Query(), c.sorts, c.opts.PageSizes)
	filter := paging.Filter{Search: state.Search, Columns: c.search}
	page, err := paging.Paginate(r.Context(), c.src, c.sorts, filter, state.Sort(), state.PageRequest())
	if err != nil {
		log.WithError(err).Error("placement summary failed")
		InternalError(w, MsgLoadFailed, r.URL.Path)
		return
	}
	state.Page = page.Page
	writeJSON(w, http.StatusOK, ListResponse[models.PlacementSummary]{
		Pagination:  page,
		HasPrevious: page.HasPrevious(),
		HasNext:     page.HasNext(),
		State:       state,
		ReturnURL:   state.ReturnURL(c.path),
		SortOptions: c.sorts.Names(),
		PageSizes:   c.opts.PageSizes.Allowed,
	})
}
