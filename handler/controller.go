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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tomoncle/gamesroster"
	"github.com/tomoncle/gamesroster/auth"
	"github.com/tomoncle/gamesroster/database"
	"github.com/tomoncle/gamesroster/importer"
	"github.com/tomoncle/gamesroster/paging"
	"github.com/tomoncle/gamesroster/repository"
	"github.com/tomoncle/gamesroster/types"
	"github.com/tomoncle/gamesroster/utils"

	"github.com/sirupsen/logrus"
)

var log = utils.NewLogger("HTTP")

const (
	MsgSaveFailed   = "Unable to save changes. Try again, and if the problem persists see your system administrator."
	MsgNoFile       = "You must select a file before you try to upload the data."
	MsgImportFailed = "Failed to import data.  Check that you selected the correct file in the correct format."
	MsgLoadFailed   = "Unable to load data. Try again, and if the problem persists see your system administrator."
)

const maxBodyBytes = 1 << 20

// ImportObserver is told about every finished upload.
type ImportObserver interface {
	ObserveImport(entity string, report *gamesroster.ImportReport, err error)
}

type Options struct {
	Policy         auth.Policy
	PageSizes      PageSizes
	MaxUploadBytes int64
	Observer       ImportObserver
}

// ListResponse is one page plus the state that produced it.
type ListResponse[T any] struct {
	*types.Pagination[T]
	HasPrevious bool      `json:"has_previous"`
	HasNext     bool      `json:"has_next"`
	State       ListState `json:"state"`
	ReturnURL   string    `json:"return_url"`
	SortOptions []string  `json:"sort_options"`
	PageSizes   []int     `json:"page_sizes"`
}

type ItemResponse[T any] struct {
	Item      *T     `json:"item"`
	ReturnURL string `json:"return_url"`
}

type MessageResponse struct {
	Message   string `json:"message"`
	ReturnURL string `json:"return_url"`
}

type ImportResponse struct {
	*gamesroster.ImportReport
	ReturnURL string `json:"return_url"`
}

// Controller serves one entity under /api/v1/<route>.
type Controller[T any] struct {
	svc  gamesroster.Service[T]
	desc *gamesroster.Descriptor[T]
	opts Options
	base string
}

func NewController[T any](svc gamesroster.Service[T], opts Options) *Controller[T] {
	if opts.Policy == nil {
		opts.Policy = auth.DefaultPolicy()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	desc := svc.Descriptor()
	return &Controller[T]{svc: svc, desc: desc, opts: opts, base: APIPrefix + "/" + desc.Route}
}

func (c *Controller[T]) Routes() []Route {
	routes := []Route{
		{Method: http.MethodGet, Path: c.base, Handler: c.List},
		{Method: http.MethodPost, Path: c.base, Handler: c.Create},
		{Method: http.MethodGet, Path: c.base + "/{id}", Handler: c.Details},
		{Method: http.MethodPut, Path: c.base + "/{id}", Handler: c.Edit},
		{Method: http.MethodDelete, Path: c.base + "/{id}", Handler: c.Delete},
	}
	if c.desc.Importable() {
		routes = append(routes, Route{Method: http.MethodPost, Path: c.base + "/import", Handler: c.Import})
	}
	return routes
}

func (c *Controller[T]) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := c.guard(w, r, auth.ActionList, 0); !ok {
		return
	}
	state := ParseListState(r.URL.Query(), c.desc.Sorts, c.opts.PageSizes)
	page, err := c.svc.Page(r.Context(), state.Search, state.Sort(), state.PageRequest())
	if err != nil {
		c.fail(w, r, auth.ActionList, err, "")
		return
	}
	state.Page = page.Page
	writeJSON(w, http.StatusOK, ListResponse[T]{
		Pagination:  page,
		HasPrevious: page.HasPrevious(),
		HasNext:     page.HasNext(),
		State:       state,
		ReturnURL:   state.ReturnURL(c.base),
		SortOptions: c.desc.Sorts.Names(),
		PageSizes:   c.opts.PageSizes.Allowed,
	})
}

func (c *Controller[T]) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	entity, ok := c.guard(w, r, auth.ActionDetails, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ItemResponse[T]{Item: entity, ReturnURL: c.returnURL(r)})
}

func (c *Controller[T]) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := c.guard(w, r, auth.ActionCreate, 0); !ok {
		return
	}
	entity := new(T)
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(entity); err != nil {
		c.problem(w, r, http.StatusBadRequest, "request body is not a valid "+c.desc.Name)
		return
	}
	if gamesroster.ID(entity) != 0 {
		c.problem(w, r, http.StatusBadRequest, "id is assigned by the server")
		return
	}
	if err := c.svc.Create(r.Context(), actor(r), entity); err != nil {
		c.fail(w, r, auth.ActionCreate, err, c.returnURL(r))
		return
	}
	w.Header().Set("Location", c.base+"/"+strconv.FormatInt(gamesroster.ID(entity), 10))
	writeJSON(w, http.StatusCreated, ItemResponse[T]{Item: entity, ReturnURL: c.returnURL(r)})
}

// Edit loads the record, applies the JSON body on top of it and writes the
// editable columns back.
func (c *Controller[T]) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	entity, ok := c.guard(w, r, auth.ActionEdit, id)
	if !ok {
		return
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(entity); err != nil {
		c.problem(w, r, http.StatusBadRequest, "request body is not a valid "+c.desc.Name)
		return
	}
	if gamesroster.ID(entity) != id {
		c.problem(w, r, http.StatusBadRequest, "id in the body does not match the path")
		return
	}
	if err := c.svc.Update(r.Context(), actor(r), entity); err != nil {
		c.fail(w, r, auth.ActionEdit, err, c.returnURL(r))
		return
	}
	writeJSON(w, http.StatusOK, ItemResponse[T]{Item: entity, ReturnURL: c.returnURL(r)})
}

func (c *Controller[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	if _, ok := c.guard(w, r, auth.ActionDelete, id); !ok {
		return
	}
	if err := c.svc.Delete(r.Context(), id); err != nil {
		c.fail(w, r, auth.ActionDelete, err, c.returnURL(r))
		return
	}
	log.WithFields(logrus.Fields{"entity": c.desc.Route, "id": id, "actor": actor(r)}).Info("record deleted")
	writeJSON(w, http.StatusOK, MessageResponse{
		Message:   c.desc.Name + " deleted.",
		ReturnURL: c.returnURL(r),
	})
}

// Import reads the multipart field "file" and imports its rows. The list is
// returned to page 1.
func (c *Controller[T]) Import(w http.ResponseWriter, r *http.Request) {
	if _, ok := c.guard(w, r, auth.ActionImport, 0); !ok {
		return
	}
	state := DecodeListState(r.URL.Query().Get("returnState"), c.desc.Sorts, c.opts.PageSizes)
	state.Page = 1

	r.Body = http.MaxBytesReader(w, r.Body, c.opts.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.problem(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		c.problem(w, r, http.StatusBadRequest, MsgNoFile)
		return
	}
	defer func() { _ = file.Close() }()

	parser, err := importer.ParserFor(header.Filename)
	if err != nil {
		c.problem(w, r, http.StatusBadRequest, MsgImportFailed)
		return
	}
	rows, err := parser.Parse(file)
	if err != nil {
		log.WithField("file", header.Filename).WithError(err).Warn("upload could not be parsed")
		c.problem(w, r, http.StatusBadRequest, MsgImportFailed)
		return
	}

	report, err := c.svc.Import(r.Context(), actor(r), rows)
	if c.opts.Observer != nil {
		c.opts.Observer.ObserveImport(c.desc.Route, report, err)
	}
	if err != nil {
		c.fail(w, r, auth.ActionImport, err, state.ReturnURL(c.base))
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{ImportReport: report, ReturnURL: state.ReturnURL(c.base)})
}

// guard consults the policy once. For record actions (id > 0) the record is
// loaded first when the decision depends on who entered it.
func (c *Controller[T]) guard(w http.ResponseWriter, r *http.Request, action auth.Action, id int64) (*T, bool) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		Unauthorized(w, auth.ErrUnauthenticated.Error(), r.URL.Path)
		return nil, false
	}
	decision := c.opts.Policy.Decide(action, principal.Role)
	if decision == auth.Deny {
		c.problem(w, r, http.StatusForbidden, fmt.Sprintf("role %s may not %s %s", principal.Role, action, c.desc.Route))
		return nil, false
	}
	if id == 0 {
		return nil, true
	}
	entity, err := c.svc.Get(r.Context(), id)
	if err != nil {
		c.fail(w, r, action, err, c.returnURL(r))
		return nil, false
	}
	if c.opts.Policy.NeedsOwner(action, principal.Role) && gamesroster.Owner(entity) != principal.Username {
		detail := c.desc.NotOwnerMessage
		if detail == "" {
			detail = auth.ErrNotOwner.Error()
		}
		c.problem(w, r, http.StatusForbidden, detail)
		return nil, false
	}
	return entity, true
}

// fail maps service errors to problem responses.
func (c *Controller[T]) fail(w http.ResponseWriter, r *http.Request, action auth.Action, err error, returnURL string) {
	status, detail := http.StatusInternalServerError, MsgSaveFailed
	if action == auth.ActionList || action == auth.ActionDetails {
		detail = MsgLoadFailed
	}
	switch kind, _ := database.ClassifyError(err); {
	case errors.Is(err, paging.ErrInvalidSortField):
		log.WithField("entity", c.desc.Route).WithError(err).Error("sort allow-list is misconfigured")
		detail = "the list cannot be sorted as requested"
	case errors.Is(err, repository.ErrNotFound), kind == database.NoRowsErr:
		status, detail = http.StatusNotFound, c.desc.Name+" not found."
	case errors.Is(err, gamesroster.ErrInvalid):
		status, detail = http.StatusBadRequest, err.Error()
	case kind == database.DuplicateKeyErr:
		status, detail = http.StatusConflict, fmt.Sprintf("A %s with the same key already exists.", c.desc.Name)
	case kind == database.ForeignKeyViolationErr && action == auth.ActionDelete:
		status, detail = http.StatusConflict, c.desc.InUseMessage
	case kind == database.ForeignKeyViolationErr:
		status, detail = http.StatusConflict, "A referenced record does not exist."
	case kind == database.NotNullViolationErr, kind == database.CheckConstraintViolationErr, kind == database.DataTruncatedErr:
		status = http.StatusBadRequest
	default:
		log.WithFields(logrus.Fields{"entity": c.desc.Route, "action": string(action)}).WithError(err).Error("request failed")
	}
	p := NewProblem(status, detail, r.URL.Path)
	p.ReturnURL = returnURL
	WriteProblem(w, p)
}

func (c *Controller[T]) problem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	p := NewProblem(status, detail, r.URL.Path)
	p.ReturnURL = c.returnURL(r)
	WriteProblem(w, p)
}

// returnURL rebuilds the list URL from the returnState query parameter.
func (c *Controller[T]) returnURL(r *http.Request) string {
	return DecodeListState(r.URL.Query().Get("returnState"), c.desc.Sorts, c.opts.PageSizes).ReturnURL(c.base)
}

func (c *Controller[T]) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		c.problem(w, r, http.StatusNotFound, c.desc.Name+" not found.")
		return 0, false
	}
	return id, true
}

func actor(r *http.Request) string {
	p, _ := auth.FromContext(r.Context())
	return p.Username
}
