package core

import (
	"errors"
	"fmt"

	"dairy-backend-go/internal/db"
)

// Error kinds returned by every service. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication failed")
	ErrForbidden       = errors.New("not authorized")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Error carries a client-facing message alongside one of the error kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// notFoundOr turns db.ErrNotFound into a NotFound error named after the entity and wraps
// anything else as an unexpected store failure.
func notFoundOr(err error, entity, id string) error {
	if errors.Is(err, db.ErrNotFound) {
		return newError(ErrNotFound, "%s not found", entity)
	}
	return fmt.Errorf("failed to load %s '%s': %w", entity, id, err)
}
