// ABOUTME: Errors returned by optimistic collection updates
// ABOUTME: Distinguishes a missing entity from a detached collection

package state

import "errors"

var (
	ErrMissing  = errors.New("entity not in collection")
	ErrDetached = errors.New("collection detached")
)
