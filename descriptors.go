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

package gamesroster

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tomoncle/gamesroster/importer"
	"github.com/tomoncle/gamesroster/models"
	"github.com/tomoncle/gamesroster/paging"
	"github.com/tomoncle/gamesroster/repository"
)

// DateLayout is the format of dates in uploaded spreadsheets.
const DateLayout = "2006-01-02"

// CoachDescriptor: rows are First, Middle, Last.
func CoachDescriptor() *Descriptor[models.Coach] {
	return &Descriptor[models.Coach]{
		Name:  "Coach",
		Route: "coaches",
		Sorts: paging.NewSortOptions("id",
			paging.SortOption{Name: "Last Name", Column: "last_name", Secondary: "first_name"},
			paging.SortOption{Name: "First Name", Column: "first_name", Secondary: "last_name"},
		),
		Search:          []string{"first_name", "last_name"},
		DetailRelations: []string{"Athletes", "Athletes.Sport"},
		Editable:        []string{"first_name", "middle_name", "last_name"},
		ImportKey: func(c *models.Coach) string {
			return importer.NameKey(c.FirstName, c.MiddleName, c.LastName)
		},
		FromRow: func(_ context.Context, _ Lookup, row importer.Row) (*models.Coach, error) {
			return &models.Coach{FirstName: row.Cell(0), MiddleName: row.Cell(1), LastName: row.Cell(2)}, nil
		},
		Validate: func(c *models.Coach) error {
			return required("first name", c.FirstName, "last name", c.LastName)
		},
		InUseMessage:    "Unable to Delete Coach. Remember, you cannot delete a Coach working with Athletes.",
		NotOwnerMessage: "You are not authorized to edit a Coach you did not enter into the system.",
	}
}

// AthleteDescriptor: rows are Athlete Code, First, Middle, Last, DOB,
// Height, Weight, Gender, Media Info, Coach ID, Sport Code, Contingent Code.
func AthleteDescriptor() *Descriptor[models.Athlete] {
	return &Descriptor[models.Athlete]{
		Name:  "Athlete",
		Route: "athletes",
		Sorts: paging.NewSortOptions("id",
			paging.SortOption{Name: "Athlete", Column: "last_name", Secondary: "first_name"},
			paging.SortOption{Name: "First Name", Column: "first_name", Secondary: "last_name"},
			paging.SortOption{Name: "Athlete Code", Column: "athlete_code"},
			paging.SortOption{Name: "Date of Birth", Column: "dob", Secondary: "last_name"},
		),
		Search:          []string{"first_name", "last_name", "athlete_code"},
		Relations:       []string{"Coach", "Sport", "Contingent"},
		DetailRelations: []string{"Coach", "Sport", "Contingent"},
		Editable: []string{"athlete_code", "first_name", "middle_name", "last_name", "dob", "height", "weight",
			"gender", "media_info", "coach_id", "sport_id", "contingent_id"},
		ImportKey: func(a *models.Athlete) string { return a.AthleteCode },
		FromRow:   athleteFromRow,
		Validate: func(a *models.Athlete) error {
			return errors.Join(
				required("athlete code", a.AthleteCode, "first name", a.FirstName, "last name", a.LastName),
				references("coach", a.CoachID, "sport", a.SportID, "contingent", a.ContingentID),
			)
		},
		InUseMessage:    "Unable to Delete Athlete.",
		NotOwnerMessage: "You are not authorized to edit an Athlete you did not enter into the system.",
	}
}

func athleteFromRow(ctx context.Context, lookup Lookup, row importer.Row) (*models.Athlete, error) {
	a := &models.Athlete{
		AthleteCode: row.Cell(0),
		FirstName:   row.Cell(1),
		MiddleName:  row.Cell(2),
		LastName:    row.Cell(3),
		Gender:      strings.ToUpper(row.Cell(7)),
		MediaInfo:   row.Cell(8),
	}
	var err error
	if s := row.Cell(4); s != "" {
		if a.DOB, err = time.Parse(DateLayout, s); err != nil {
			return nil, invalidRow("date of birth %q is not %s", s, DateLayout)
		}
	}
	if a.Height, err = optionalInt("height", row.Cell(5)); err != nil {
		return nil, err
	}
	if a.Weight, err = optionalInt("weight", row.Cell(6)); err != nil {
		return nil, err
	}
	if a.CoachID, err = lookupCoach(ctx, lookup, row.Cell(9)); err != nil {
		return nil, err
	}
	if a.SportID, err = lookupCell(ctx, lookup, "sports", "code", row.Cell(10)); err != nil {
		return nil, err
	}
	if a.ContingentID, err = lookupCell(ctx, lookup, "contingents", "code", row.Cell(11)); err != nil {
		return nil, err
	}
	return a, nil
}

// SportDescriptor: rows are Code, Name.
func SportDescriptor() *Descriptor[models.Sport] {
	return &Descriptor[models.Sport]{
		Name:      "Sport",
		Route:     "sports",
		Sorts:     codeNameSorts(),
		Search:    []string{"code", "name"},
		Editable:  []string{"code", "name"},
		ImportKey: func(s *models.Sport) string { return s.Code },
		FromRow: func(_ context.Context, _ Lookup, row importer.Row) (*models.Sport, error) {
			return &models.Sport{Code: row.Cell(0), Name: row.Cell(1)}, nil
		},
		Validate:     func(s *models.Sport) error { return required("code", s.Code, "name", s.Name) },
		InUseMessage: "Unable to Delete Sport. Remember, you cannot delete a Sport with Athletes or Events.",
	}
}

// ContingentDescriptor: rows are Code, Name.
func ContingentDescriptor() *Descriptor[models.Contingent] {
	return &Descriptor[models.Contingent]{
		Name:      "Contingent",
		Route:     "contingents",
		Sorts:     codeNameSorts(),
		Search:    []string{"code", "name"},
		Editable:  []string{"code", "name"},
		ImportKey: func(c *models.Contingent) string { return c.Code },
		FromRow: func(_ context.Context, _ Lookup, row importer.Row) (*models.Contingent, error) {
			return &models.Contingent{Code: row.Cell(0), Name: row.Cell(1)}, nil
		},
		Validate:     func(c *models.Contingent) error { return required("code", c.Code, "name", c.Name) },
		InUseMessage: "Unable to Delete Contingent. Remember, you cannot delete a Contingent with Athletes.",
	}
}

// EventDescriptor: rows are Code, Name, Sport Code.
func EventDescriptor() *Descriptor[models.Event] {
	return &Descriptor[models.Event]{
		Name:            "Event",
		Route:           "events",
		Sorts:           codeNameSorts(),
		Search:          []string{"code", "name"},
		Relations:       []string{"Sport"},
		DetailRelations: []string{"Sport"},
		Editable:        []string{"code", "name", "sport_id"},
		ImportKey:       func(e *models.Event) string { return e.Code },
		FromRow: func(ctx context.Context, lookup Lookup, row importer.Row) (*models.Event, error) {
			sportID, err := lookupCell(ctx, lookup, "sports", "code", row.Cell(2))
			if err != nil {
				return nil, err
			}
			return &models.Event{Code: row.Cell(0), Name: row.Cell(1), SportID: sportID}, nil
		},
		Validate: func(e *models.Event) error {
			return errors.Join(required("code", e.Code, "name", e.Name), references("sport", e.SportID))
		},
		InUseMessage: "Unable to Delete Event.",
	}
}

// PlacementDescriptor: rows are Athlete Code, Event Code, Place, Comments.
// An athlete has at most one placement per event.
func PlacementDescriptor() *Descriptor[models.Placement] {
	return &Descriptor[models.Placement]{
		Name:  "Placement",
		Route: "placements",
		Sorts: paging.NewSortOptions("id",
			paging.SortOption{Name: "Place", Column: "place", Secondary: "event_id"},
			paging.SortOption{Name: "Event", Column: "event_id", Secondary: "place"},
		),
		Search:          []string{"comments"},
		Relations:       []string{"Athlete", "Event"},
		DetailRelations: []string{"Athlete", "Athlete.Contingent", "Event", "Event.Sport"},
		Editable:        []string{"place", "comments"},
		ImportKey: func(p *models.Placement) string {
			return strconv.FormatInt(p.AthleteID, 10) + ":" + strconv.FormatInt(p.EventID, 10)
		},
		FromRow: func(ctx context.Context, lookup Lookup, row importer.Row) (*models.Placement, error) {
			athleteID, err := lookupCell(ctx, lookup, "athletes", "athlete_code", row.Cell(0))
			if err != nil {
				return nil, err
			}
			eventID, err := lookupCell(ctx, lookup, "events", "code", row.Cell(1))
			if err != nil {
				return nil, err
			}
			place, err := optionalInt("place", row.Cell(2))
			if err != nil {
				return nil, err
			}
			return &models.Placement{AthleteID: athleteID, EventID: eventID, Place: place, Comments: row.Cell(3)}, nil
		},
		Validate: func(p *models.Placement) error {
			if p.Place < 1 {
				return errors.New("place must be 1 or more")
			}
			return references("athlete", p.AthleteID, "event", p.EventID)
		},
		InUseMessage: "Unable to Delete Placement.",
	}
}

// SummarySorts are the orderings of the placement summary report.
func SummarySorts() paging.SortOptions {
	return paging.NewSortOptions("athlete_id",
		paging.SortOption{Name: "Athlete", Column: "last_name", Secondary: "first_name"},
		paging.SortOption{Name: "Average", Column: "average", Secondary: "last_name"},
		paging.SortOption{Name: "Total Events", Column: "total_events", Secondary: "last_name"},
		paging.SortOption{Name: "Number of Sports", Column: "number_of_sports", Secondary: "last_name"},
	)
}

// SummarySearch are the columns the summary search matches.
var SummarySearch = []string{"first_name", "last_name", "athlete_code", "contingent"}

func codeNameSorts() paging.SortOptions {
	return paging.NewSortOptions("id",
		paging.SortOption{Name: "Name", Column: "name", Secondary: "code"},
		paging.SortOption{Name: "Code", Column: "code", Secondary: "name"},
	)
}

// required takes label, value pairs.
func required(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", importer.ErrMissingColumns, strings.Join(missing, ", "))
}

// references takes label, id pairs; every id must be set.
func references(pairs ...any) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if id, _ := pairs[i+1].(int64); id <= 0 {
			missing = append(missing, fmt.Sprint(pairs[i]))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing %s", strings.Join(missing, ", "))
}

func optionalInt(label, s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, invalidRow("%s %q is not a whole number", label, s)
	}
	return n, nil
}

// lookupCell resolves a cell holding a natural key. Only a key with no
// matching row makes the row invalid.
func lookupCell(ctx context.Context, lookup Lookup, table, column, value string) (int64, error) {
	if value == "" {
		return 0, missingCell(table, column)
	}
	id, err := lookup(ctx, table, column, value)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, invalidRow("no %s with %s %q", table, column, value)
	}
	if err != nil {
		return 0, fmt.Errorf("look up %s by %s: %w", table, column, err)
	}
	return id, nil
}

func lookupCoach(ctx context.Context, lookup Lookup, value string) (int64, error) {
	if value == "" {
		return 0, missingCell("coaches", "id")
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, invalidRow("coach id %q is not a whole number", value)
	}
	if _, err = lookup(ctx, "coaches", "id", id); errors.Is(err, repository.ErrNotFound) {
		return 0, invalidRow("no coaches with id %d", id)
	} else if err != nil {
		return 0, fmt.Errorf("look up coaches by id: %w", err)
	}
	return id, nil
}

func missingCell(table, column string) error {
	return &rowError{
		msg:   fmt.Sprintf("%s: %s %s", importer.ErrMissingColumns, table, column),
		cause: importer.ErrMissingColumns,
	}
}
