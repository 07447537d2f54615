package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by the repositories and services. Handlers map them
// to HTTP statuses.
var (
	// ErrNotFound is returned when no record matches the given key or filter.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned for identifiers that are not well-formed store
	// keys, checked before any query is issued.
	ErrInvalidID = errors.New("invalid id format")
	// ErrDuplicateEmail is returned on signup when the email is already taken.
	ErrDuplicateEmail = errors.New("user already exists")
	// ErrInvalidCredentials is returned for both an unknown email and a wrong
	// password so that callers cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports every missing or malformed input field of a request
// in a single pass, rather than stopping at the first one.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid fields: %s", strings.Join(e.Fields, ", "))
}

// UploadError wraps a failure transferring an image to the remote media store.
type UploadError struct {
	Slot string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload %s: %v", e.Slot, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
