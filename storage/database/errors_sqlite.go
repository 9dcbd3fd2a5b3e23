//go:build cgo

package database

import (
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/Iamayomi/academic-management-platform/core"
)

func trapSQLiteError(err error) error {
	var sqlErr sqlite3.Error
	if !errors.As(err, &sqlErr) || sqlErr.Code != sqlite3.ErrConstraint {
		return nil
	}
	switch sqlErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return core.ErrDuplicateRecord
	case sqlite3.ErrConstraintForeignKey:
		return core.ErrInvalidReference
	case sqlite3.ErrConstraintNotNull, sqlite3.ErrConstraintCheck:
		return core.ErrMissingValue
	}
	return nil
}
