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
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	"github.com/uptrace/bun/dialect"
	"modernc.org/sqlite"
)

// UnicodeLower is the sqlite function that lower-cases its argument with
// full Unicode case mapping. The built-in LOWER only folds ASCII.
const UnicodeLower = "unicode_lower"

var registerFunctions sync.Once

// registerSQLiteFunctions makes UnicodeLower available to every sqlite
// connection opened afterwards.
func registerSQLiteFunctions() {
	registerFunctions.Do(func() {
		sqlite.MustRegisterDeterministicScalarFunction(UnicodeLower, 1, unicodeLower)
	})
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return strings.ToLower(fmt.Sprint(v)), nil
	}
}

// FoldExpr returns a case-insensitive rendition of the column expression for
// the dialect, to be compared against a pattern lower-cased in Go.
func FoldExpr(name dialect.Name, column string) string {
	switch name {
	case dialect.SQLite:
		return UnicodeLower + "(" + column + ")"
	case dialect.MySQL:
		// binary collation so LIKE compares the folded text exactly
		return "LOWER(" + column + ") COLLATE utf8mb4_bin"
	default:
		return "LOWER(" + column + ")"
	}
}
