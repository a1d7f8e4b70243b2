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
	"fmt"
	"strings"

	"github.com/tomoncle/gamesroster/types"
)

// Role is the access level of a signed-in user.
type Role int

const (
	RoleUnknown Role = types.IllegalValue
	RoleUser    Role = iota - 1
	RoleStaff
	RoleSupervisor
	RoleAdmin
)

var roleNames = map[Role][2]string{
	RoleUser:       {"user", "read-only access to lists and reports"},
	RoleStaff:      {"staff", "enters records and edits their own"},
	RoleSupervisor: {"supervisor", "edits and deletes any record"},
	RoleAdmin:      {"admin", "full access"},
}

// Roles returns every valid role from least to most privileged.
func Roles() []Role {
	return []Role{RoleUser, RoleStaff, RoleSupervisor, RoleAdmin}
}

// ParseRole maps a role name, in any case, to its Role. Unknown names give
// RoleUnknown.
func ParseRole(name string) Role {
	return types.EnumOf(strings.ToLower(strings.TrimSpace(name)), RoleUnknown, Roles()...)
}

func (r Role) IsValid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) Number() int { return int(r) }

func (r Role) Name() string {
	if n, ok := roleNames[r]; ok {
		return n[0]
	}
	return types.IllegalName
}

func (r Role) Desc() string {
	if n, ok := roleNames[r]; ok {
		return n[1]
	}
	return types.IllegalDesc
}

func (r Role) String() string { return r.Name() }

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.Name()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	role := ParseRole(string(b))
	if !role.IsValid() {
		return fmt.Errorf("unknown role %q", b)
	}
	*r = role
	return nil
}
