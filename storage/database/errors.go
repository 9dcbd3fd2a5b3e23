package database

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Iamayomi/academic-management-platform/core"
)

// postgres error codes
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// TrapError maps driver errors to the core storage errors: "no rows" becomes notFound,
// constraint violations become core.ErrDuplicateRecord, core.ErrInvalidReference or core.ErrMissingValue.
// Anything else is wrapped with msg.
func TrapError(err error, notFound error, msg string) error {
	if err == nil || core.IsNotFound(err) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		if notFound == nil {
			return core.ErrRecordNotFound
		}
		return notFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return core.ErrDuplicateRecord
		case pgForeignKeyViolation:
			return core.ErrInvalidReference
		case pgNotNullViolation, pgCheckViolation:
			return core.ErrMissingValue
		}
	}
	if mapped := trapSQLiteError(err); mapped != nil {
		return mapped
	}
	return errors.Wrap(err, msg)
}
