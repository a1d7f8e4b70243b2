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
	"fmt"
	"time"

	"github.com/tomoncle/gamesroster/models"
	"github.com/tomoncle/gamesroster/repository"
	"github.com/tomoncle/gamesroster/utils"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

var log = utils.NewLogger("AUTH")

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// UserFinder loads a user by column value.
type UserFinder interface {
	FindBy(ctx context.Context, column string, value any) (*models.User, error)
}

// Authenticator checks credentials and issues tokens.
type Authenticator struct {
	users  UserFinder
	tokens *TokenIssuer
}

func NewAuthenticator(users UserFinder, tokens *TokenIssuer) *Authenticator {
	return &Authenticator{users: users, tokens: tokens}
}

// Login returns a token for the user. Unknown users and wrong passwords both
// give ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	u, err := a.users.FindBy(ctx, "username", username)
	if errors.Is(err, repository.ErrNotFound) {
		log.WithField("username", username).Warn("login for unknown user")
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("load user: %w", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		log.WithField("username", username).Warn("login rejected")
		return "", time.Time{}, ErrInvalidCredentials
	}
	role := ParseRole(u.Role)
	if !role.IsValid() {
		log.WithField("username", username).Warnf("user has unknown role %q", u.Role)
		return "", time.Time{}, ErrInvalidCredentials
	}
	return a.tokens.Issue(Principal{UserID: u.ID, Username: u.Username, Role: role})
}

// Verify parses a bearer token.
func (a *Authenticator) Verify(raw string) (Principal, error) {
	return a.tokens.Parse(raw)
}
