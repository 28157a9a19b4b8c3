// Package repository contains data access logic over database/sql.  This
// file defines the errors shared across repositories and the mapping from
// MySQL driver errors to them.  Handlers translate ErrNotFound into 404,
// ErrForbidden into 403 and booking.FieldErrors into 400.
package repository

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/airport-service/internal/booking"
)

// ErrNotFound is returned when the requested row does not exist or is not
// visible to the caller (orders of other users).
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// MySQL server error numbers the repositories react to.
const (
	errDuplicateEntry = 1062
	errNoReferenced   = 1452
)

func mysqlCode(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlCode(err) == errDuplicateEntry }

var fkColumn = regexp.MustCompile("FOREIGN KEY \\(`([a-z_]+)`\\)")

// referenceError turns "cannot add or update a child row" into a field
// error naming the request field (source_id -> source).  Other errors pass
// through untouched.
func referenceError(err error) error {
	if mysqlCode(err) != errNoReferenced {
		return err
	}
	field := booking.NonFieldKey
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		if m := fkColumn.FindStringSubmatch(me.Message); m != nil {
			field = strings.TrimSuffix(m[1], "_id")
		}
	}
	return booking.Field(field, "object does not exist")
}

// uniqueTogether is the message reported when a composite unique key is hit.
func uniqueTogether(fields ...string) booking.FieldErrors {
	return booking.Field(booking.NonFieldKey,
		"The fields "+strings.Join(fields, ", ")+" must make a unique set.")
}
