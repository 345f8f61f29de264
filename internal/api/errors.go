package api

import (
	"errors"
	"fmt"
)

// ErrAuthExpired is returned when the backend rejects the bearer token. By the
// time the caller sees it, the session has already been cleared by the
// transport layer.
var ErrAuthExpired = errors.New("authorization expired, sign in again")

// FetchError reports a failed read (list/get). Retriable: the local store
// keeps its last-known contents.
type FetchError struct {
	Status int
	Detail string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed: %s (status %d)", e.Detail, e.Status)
}

// MutationError reports a failed write (create/update/delete/transaction).
type MutationError struct {
	Status int
	Detail string
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("mutation rejected: %s (status %d)", e.Detail, e.Status)
}
