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
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
)

func (e SQLError) String() string {
	switch e {
	case NoRowsErr:
		return "no_rows"
	case NoColumnErr:
		return "no_column"
	case NoTableErr:
		return "no_table"
	case ExistTableErr:
		return "table_exists"
	case DuplicateKeyErr:
		return "duplicate_key"
	case NotNullViolationErr:
		return "not_null_violation"
	case ForeignKeyViolationErr:
		return "foreign_key_violation"
	case CheckConstraintViolationErr:
		return "check_violation"
	case DataTruncatedErr:
		return "data_truncated"
	default:
		return "unknown"
	}
}

var mysqlErrors = map[uint16]SQLError{
	1054: NoColumnErr,
	1146: NoTableErr,
	1050: ExistTableErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
	1406: DataTruncatedErr,
}

var postgresErrors = map[string]SQLError{
	"42703": NoColumnErr,
	"42P01": NoTableErr,
	"42P07": ExistTableErr,
	"23505": DuplicateKeyErr,
	"23502": NotNullViolationErr,
	"23503": ForeignKeyViolationErr,
	"23514": CheckConstraintViolationErr,
	"22001": DataTruncatedErr,
}

// ClassifyError maps a driver error to an SQLError. ok is false when err is
// not recognised as a database error.
func ClassifyError(err error) (kind SQLError, ok bool) {
	if err == nil {
		return UnknownErr, false
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NoRowsErr, true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if k, found := mysqlErrors[mysqlErr.Number]; found {
			return k, true
		}
		return UnknownErr, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if k, found := postgresErrors[string(pqErr.Code)]; found {
			return k, true
		}
		return UnknownErr, true
	}

	// sqlite drivers only expose the message
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "foreign key constraint failed"),
		strings.Contains(s, "foreign key violation"):
		return ForeignKeyViolationErr, true
	case strings.Contains(s, "unique constraint failed"),
		strings.Contains(s, "duplicate key value"):
		return DuplicateKeyErr, true
	case strings.Contains(s, "not null constraint failed"):
		return NotNullViolationErr, true
	case strings.Contains(s, "check constraint failed"):
		return CheckConstraintViolationErr, true
	case strings.Contains(s, "no such column"):
		return NoColumnErr, true
	case strings.Contains(s, "no such table"):
		return NoTableErr, true
	case strings.Contains(s, "already exists") && strings.Contains(s, "table"):
		return ExistTableErr, true
	}
	return UnknownErr, false
}

func IsDuplicateKey(err error) bool {
	k, _ := ClassifyError(err)
	return k == DuplicateKeyErr
}

func IsForeignKeyViolation(err error) bool {
	k, _ := ClassifyError(err)
	return k == ForeignKeyViolationErr
}
