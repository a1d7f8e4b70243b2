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

package auth

import (
	"context"
	"errors"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrNotOwner        = errors.New("record was entered by another user")
	ErrUnauthenticated = errors.New("authentication required")
)

// Action is an operation a controller performs on an entity.
type Action string

const (
	ActionList    Action = "list"
	ActionDetails Action = "details"
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionImport  Action = "import"
	ActionReport  Action = "report"
)

// Decision is the outcome of a policy lookup.
type Decision int

const (
	Deny Decision = iota
	Allow
	// AllowOwn allows the action only on records the principal entered.
	AllowOwn
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case AllowOwn:
		return "allow_own"
	default:
		return "deny"
	}
}

// Policy maps (action, role) to a decision. Missing entries deny.
type Policy map[Action]map[Role]Decision

// DefaultPolicy lets every signed-in user read lists and reports, staff
// enter records and edit their own, and supervisors and admins do
// everything.
func DefaultPolicy() Policy {
	all := map[Role]Decision{RoleUser: Allow, RoleStaff: Allow, RoleSupervisor: Allow, RoleAdmin: Allow}
	staff := map[Role]Decision{RoleStaff: Allow, RoleSupervisor: Allow, RoleAdmin: Allow}
	return Policy{
		ActionList:    all,
		ActionReport:  all,
		ActionDetails: staff,
		ActionCreate:  staff,
		ActionImport:  staff,
		ActionEdit:    {RoleStaff: AllowOwn, RoleSupervisor: Allow, RoleAdmin: Allow},
		ActionDelete:  {RoleSupervisor: Allow, RoleAdmin: Allow},
	}
}

func (p Policy) Decide(action Action, role Role) Decision {
	return p[action][role]
}

// Authorize checks the principal in ctx against the table. owner is the
// record's creator and only matters for AllowOwn; pass "" when there is no
// record yet.
func (p Policy) Authorize(ctx context.Context, action Action, owner string) error {
	principal, ok := FromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	switch p.Decide(action, principal.Role) {
	case Allow:
		return nil
	case AllowOwn:
		if owner != principal.Username {
			return ErrNotOwner
		}
		return nil
	default:
		return ErrForbidden
	}
}

// NeedsOwner reports whether the decision for role depends on the record.
func (p Policy) NeedsOwner(action Action, role Role) bool {
	return p.Decide(action, role) == AllowOwn
}
