package engine

import (
	"errors"
	"fmt"
)

// PersistenceError reports a failed Store call during insert or refresh.
//
// On insert the reminder is not queued. On refresh the previous live set is
// kept; a failed refresh never wipes state.
type PersistenceError struct {
	// Op is the store operation that failed ("insert", "refresh").
	Op string

	// OwnerID identifies the engine's owner.
	OwnerID int64

	// Err is the underlying store error.
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s failed (owner=%d): %v", e.Op, e.OwnerID, e.Err)
}

// Unwrap returns the underlying store error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// DispatchError reports a notification that could not be delivered.
// The reminder is consumed regardless.
type DispatchError struct {
	ReminderID int64
	Stage      string // "lookup" or "send"
	Err        error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch: %s failed (reminder=%d): %v", e.Stage, e.ReminderID, e.Err)
}

// Unwrap returns the underlying error.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// IsPersistenceError returns true if the error is a persistence error.
// Uses errors.As to handle wrapped errors.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsDispatchError returns true if the error is a dispatch error.
// Uses errors.As to handle wrapped errors.
func IsDispatchError(err error) bool {
	var de *DispatchError
	return errors.As(err, &de)
}
