package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks lookups and updates against a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrProtectedList is returned when deleting the default list.
	ErrProtectedList = errors.New("default list cannot be deleted")
	// ErrDuplicateTag is returned when creating a tag whose name exists.
	ErrDuplicateTag = errors.New("tag name already exists")
	// ErrSessionActive is returned when starting a focus session while
	// another one is still running.
	ErrSessionActive = errors.New("a focus session is already active")
	// ErrInvalid marks input rejected before any database access, so
	// adapters can map it to a validation failure instead of a server
	// error.
	ErrInvalid = errors.New("invalid input")
)

// notFound wraps ErrNotFound with the entity noun and identifier, so the
// message reads "task 3f2a... not found" and errors.Is still matches.
func notFound(entity, id string) error {
	return fmt.Errorf("%s %s %w", entity, id, ErrNotFound)
}

// invalid wraps ErrInvalid with a human-readable reason.
func invalid(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalid)...)
}
