package reservation

import (
	"errors"
	"fmt"
)

var (
	// ErrConstruction marks an invalid task or request; raised when building it,
	// never during negotiation.
	ErrConstruction = errors.New("invalid reservation request")
	ErrNotFound     = errors.New("not found")
)

// NotFoundError reports that no rendered date or court matched a request. It aborts
// only the request it belongs to.
type NotFoundError struct {
	What string // "date" or "court"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.What, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ExpiredError is a permanent, non-retryable failure for one slot.
type ExpiredError struct {
	Range TimeRange
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("slot %s has expired", e.Range)
}

// ContestedError means another claimant holds the slot right now.
type ContestedError struct {
	Range TimeRange
}

func (e *ContestedError) Error() string {
	return fmt.Sprintf("slot %s is held by another claimant", e.Range)
}

// AuthError aborts a whole task before any slot is resolved.
type AuthError struct {
	Username string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authenticate %q: %v", e.Username, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }
