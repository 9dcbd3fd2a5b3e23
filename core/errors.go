package core

import "github.com/pkg/errors"

var (
	// storage errors, translated from driver-specific codes
	ErrRecordNotFound   = NewNotFoundError("record does not exist")
	ErrDuplicateRecord  = NewConflictError("a record with this value already exists")
	ErrInvalidReference = NewValidationError(errors.New("referenced record does not exist"))
	ErrMissingValue     = NewValidationError(errors.New("a required field is missing"))
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// NotFoundError is returned when a requested object does not exist, or must look like it does not.
type NotFoundError struct {
	msg string
}

func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{msg: msg}
}

func (err NotFoundError) Error() string { return err.msg }

// PermissionError is returned when the acting user may not perform an operation on an existing object.
type PermissionError struct {
	msg string
}

func NewPermissionError(msg string) *PermissionError {
	return &PermissionError{msg: msg}
}

func (err PermissionError) Error() string { return err.msg }

// ConflictError is returned when an operation would break a uniqueness rule.
type ConflictError struct {
	msg string
}

func NewConflictError(msg string) *ConflictError {
	return &ConflictError{msg: msg}
}

func (err ConflictError) Error() string { return err.msg }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}
