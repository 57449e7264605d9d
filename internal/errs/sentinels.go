// Package errs contains sentinel errors shared by the save pipeline and its stores.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when a save is attempted with nobody signed in.
	ErrNotAuthenticated = errors.New("user not signed in")

	// ErrSaveInFlight is returned by the single-flight save policy while a save is running.
	ErrSaveInFlight = errors.New("save already in flight")

	// ErrNotFound indicates the requested draft or document does not exist.
	ErrNotFound = errors.New("not found")
)

// PersistenceWriteError wraps any failure reported by a document store write.
type PersistenceWriteError struct {
	Collection string
	Err        error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("writing to collection %q: %v", e.Collection, e.Err)
}

func (e *PersistenceWriteError) Unwrap() error {
	return e.Err
}
