package sdk

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a record collides with an existing one.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInUse is returned when a record cannot be deleted because others
	// reference it.
	ErrInUse = errors.New("record in use")
	// ErrInvalid is returned for records that fail validation.
	ErrInvalid = errors.New("invalid record")
)

// Error carries a user facing message for one of the sentinel errors above.
// Error() returns only the message so it can be shown unchanged.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// Errorf builds an *Error of the given kind.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
