// ABOUTME: Error taxonomy for entity service operations
// ABOUTME: Sentinels for errors.Is plus typed errors carrying table, id and remote message

package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is matched by NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrRemoteFailure is matched by RemoteFailureError.
	ErrRemoteFailure = errors.New("remote failure")

	// ErrNotInitialized is returned when a service has no record-store client.
	ErrNotInitialized = errors.New("record store not initialized")

	// ErrInvalid is matched by ValidationError.
	ErrInvalid = errors.New("invalid payload")
)

// NotFoundError reports a requested id that is absent remotely.
type NotFoundError struct {
	Table string
	ID    int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Table, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// RemoteFailureError carries the store's rejection message through to the caller.
type RemoteFailureError struct {
	Op      string
	Message string
	Err     error
}

func (e *RemoteFailureError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: remote failure", e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *RemoteFailureError) Is(target error) bool {
	return target == ErrRemoteFailure
}

func (e *RemoteFailureError) Unwrap() error {
	return e.Err
}

// ValidationError lists every problem found in a payload before it is sent.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}
