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

package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Entity is anything with a numeric identity.
type Entity interface {
	GetID() int64
}

// Audit records who entered and last changed a record.
type Audit struct {
	CreatedBy string    `bun:"created_by" json:"created_by"`
	UpdatedBy string    `bun:"updated_by" json:"updated_by"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Stamp sets the updated fields, and the created fields too when created is
// true.
func (a *Audit) Stamp(actor string, now time.Time, created bool) {
	if created {
		a.CreatedBy = actor
		a.CreatedAt = now
	}
	a.UpdatedBy = actor
	a.UpdatedAt = now
}

// Owner is the user that entered the record.
func (a *Audit) Owner() string {
	return a.CreatedBy
}

type Sport struct {
	bun.BaseModel `bun:"table:sports,alias:s"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Code string `bun:"code,notnull,unique" json:"code"`
	Name string `bun:"name,notnull" json:"name"`
	Audit
}

func (s *Sport) GetID() int64 { return s.ID }

type Contingent struct {
	bun.BaseModel `bun:"table:contingents,alias:cg"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Code string `bun:"code,notnull,unique" json:"code"`
	Name string `bun:"name,notnull" json:"name"`
	Audit
}

func (c *Contingent) GetID() int64 { return c.ID }

type Coach struct {
	bun.BaseModel `bun:"table:coaches,alias:c"`

	ID         int64  `bun:"id,pk,autoincrement" json:"id"`
	FirstName  string `bun:"first_name,notnull" json:"first_name"`
	MiddleName string `bun:"middle_name" json:"middle_name"`
	LastName   string `bun:"last_name,notnull" json:"last_name"`
	Audit

	Athletes []*Athlete `bun:"rel:has-many,join:id=coach_id" json:"athletes,omitempty"`
}

func (c *Coach) GetID() int64 { return c.ID }

func (c *Coach) FullName() string {
	return fullName(c.FirstName, c.MiddleName, c.LastName)
}

type Athlete struct {
	bun.BaseModel `bun:"table:athletes,alias:a"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	AthleteCode  string    `bun:"athlete_code,notnull,unique" json:"athlete_code"`
	FirstName    string    `bun:"first_name,notnull" json:"first_name"`
	MiddleName   string    `bun:"middle_name" json:"middle_name"`
	LastName     string    `bun:"last_name,notnull" json:"last_name"`
	DOB          time.Time `bun:"dob,nullzero" json:"dob"`
	Height       int       `bun:"height" json:"height"`
	Weight       int       `bun:"weight" json:"weight"`
	Gender       string    `bun:"gender" json:"gender"`
	MediaInfo    string    `bun:"media_info" json:"media_info"`
	CoachID      int64     `bun:"coach_id,notnull" json:"coach_id"`
	SportID      int64     `bun:"sport_id,notnull" json:"sport_id"`
	ContingentID int64     `bun:"contingent_id,notnull" json:"contingent_id"`
	Audit

	Coach      *Coach      `bun:"rel:belongs-to,join:coach_id=id" json:"coach,omitempty"`
	Sport      *Sport      `bun:"rel:belongs-to,join:sport_id=id" json:"sport,omitempty"`
	Contingent *Contingent `bun:"rel:belongs-to,join:contingent_id=id" json:"contingent,omitempty"`
}

func (a *Athlete) GetID() int64 { return a.ID }

func (a *Athlete) FullName() string {
	return fullName(a.FirstName, a.MiddleName, a.LastName)
}

type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	Code    string `bun:"code,notnull,unique" json:"code"`
	Name    string `bun:"name,notnull" json:"name"`
	SportID int64  `bun:"sport_id,notnull" json:"sport_id"`
	Audit

	Sport *Sport `bun:"rel:belongs-to,join:sport_id=id" json:"sport,omitempty"`
}

func (e *Event) GetID() int64 { return e.ID }

type Placement struct {
	bun.BaseModel `bun:"table:placements,alias:pl"`

	ID        int64  `bun:"id,pk,autoincrement" json:"id"`
	AthleteID int64  `bun:"athlete_id,notnull" json:"athlete_id"`
	EventID   int64  `bun:"event_id,notnull" json:"event_id"`
	Place     int    `bun:"place,notnull" json:"place"`
	Comments  string `bun:"comments" json:"comments"`
	Audit

	Athlete *Athlete `bun:"rel:belongs-to,join:athlete_id=id" json:"athlete,omitempty"`
	Event   *Event   `bun:"rel:belongs-to,join:event_id=id" json:"event,omitempty"`
}

func (p *Placement) GetID() int64 { return p.ID }

// User is an account that can sign in.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Username     string    `bun:"username,notnull,unique" json:"username"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	Role         string    `bun:"role,notnull" json:"role"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

func (u *User) GetID() int64 { return u.ID }

func fullName(first, middle, last string) string {
	if middle == "" {
		return first + " " + last
	}
	return first + " " + middle + " " + last
}
