/*
 * Copyright 2026 gannetio.
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
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotConnected is returned when a database operation is attempted before
// Connect has succeeded or after Disconnect.
var ErrNotConnected = errors.New("database not connected")

// StoreError classifies driver-level failures into a portable taxonomy so
// callers can branch on constraint violations without depending on a driver.
type StoreError int

const (
	UnknownErr StoreError = iota
	NoTableErr
	NoColumnErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
)

// ClassifyError reports whether err is a recognized store-level error and
// which kind. MySQL errors are matched by error number, PostgreSQL and
// SQLite by SQLSTATE or message text.
func ClassifyError(err error) (StoreError, bool) {
	if err == nil {
		return UnknownErr, false
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1054:
			return NoColumnErr, true
		case 1050:
			return ExistTableErr, true
		case 1062:
			return DuplicateKeyErr, true
		case 1048:
			return NotNullViolationErr, true
		case 1216, 1217, 1451, 1452:
			return ForeignKeyViolationErr, true
		case 3819:
			return CheckConstraintViolationErr, true
		case 1265:
			return DataTruncatedErr, true
		case 1146:
			return NoTableErr, true
		default:
			return UnknownErr, true
		}
	}

	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "sqlstate 42p01"),
		strings.Contains(s, "undefined table"),
		strings.Contains(s, "no such table"):
		return NoTableErr, true
	case strings.Contains(s, "sqlstate 42703"),
		strings.Contains(s, "undefined column"),
		strings.Contains(s, "no such column"):
		return NoColumnErr, true
	case strings.Contains(s, "already exists") && (strings.Contains(s, "table") || strings.Contains(s, "relation")):
		return ExistTableErr, true
	case strings.Contains(s, "duplicate key value"),
		strings.Contains(s, "unique constraint failed"),
		strings.Contains(s, "sqlstate 23505"):
		return DuplicateKeyErr, true
	case strings.Contains(s, "not-null constraint"),
		strings.Contains(s, "not null constraint failed"),
		strings.Contains(s, "sqlstate 23502"):
		return NotNullViolationErr, true
	case strings.Contains(s, "foreign key violation"),
		strings.Contains(s, "foreign key constraint failed"),
		strings.Contains(s, "sqlstate 23503"):
		return ForeignKeyViolationErr, true
	case strings.Contains(s, "check constraint"),
		strings.Contains(s, "sqlstate 23514"):
		return CheckConstraintViolationErr, true
	case strings.Contains(s, "string data right truncation"),
		strings.Contains(s, "data truncated"),
		strings.Contains(s, "sqlstate 22001"):
		return DataTruncatedErr, true
	}
	return UnknownErr, false
}
