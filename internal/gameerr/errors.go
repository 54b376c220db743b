// Package gameerr holds the error taxonomy shared by the lantern contexts.
package gameerr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidData indicates a malformed client payload.
	ErrInvalidData = errors.New("invalid data")
	// ErrDoesNotExist indicates a missing station, round, team, session or game user pool.
	ErrDoesNotExist = errors.New("does not exist")
	// ErrDatabase indicates a failed store operation.
	ErrDatabase = errors.New("database error")
	// ErrExternal indicates a failed call to a third-party system.
	ErrExternal = errors.New("external error")
	// ErrNotAllowed indicates the caller may not perform the operation.
	ErrNotAllowed = errors.New("not allowed")
	// ErrUnauthorized indicates a missing or invalid token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict indicates a conditional store update lost against another writer.
	ErrConflict = errors.New("conflict")
)

// InvalidData builds an ErrInvalidData error with context.
func InvalidData(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidData, msg)
}

// DoesNotExist builds an ErrDoesNotExist error with context.
func DoesNotExist(msg string) error {
	return fmt.Errorf("%w: %s", ErrDoesNotExist, msg)
}

// NotAllowed builds an ErrNotAllowed error with context.
func NotAllowed(msg string) error {
	return fmt.Errorf("%w: %s", ErrNotAllowed, msg)
}

// Conflict builds an ErrConflict error with context.
func Conflict(msg string) error {
	return fmt.Errorf("%w: %s", ErrConflict, msg)
}

// Database wraps a store failure. Errors already in the taxonomy pass through.
func Database(err error) error {
	if err == nil {
		return nil
	}
	if IsKnown(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDatabase, err)
}

// External wraps a third-party failure.
func External(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrExternal, err)
}

// IsKnown reports whether err already carries a taxonomy sentinel.
func IsKnown(err error) bool {
	for _, target := range []error{ErrInvalidData, ErrDoesNotExist, ErrDatabase, ErrExternal, ErrNotAllowed, ErrUnauthorized, ErrConflict} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
