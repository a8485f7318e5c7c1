package drive

import (
	"errors"
	"fmt"
)

// NotFoundError indicates that an identifier does not resolve to a folder.
type NotFoundError struct {
	Resource string // "folder", "file"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// AccessError indicates that a folder exists but cannot be read, typically
// because permission was revoked after it was listed.
type AccessError struct {
	ID  string
	Err error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("access denied: %s: %v", e.ID, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// NewAccessError creates an AccessError wrapping the underlying cause.
func NewAccessError(id string, err error) *AccessError {
	return &AccessError{ID: id, Err: err}
}

// InvalidInputError indicates a malformed argument.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewInvalidInputError creates an InvalidInputError.
func NewInvalidInputError(field, reason string) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: reason}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsAccess reports whether err is an AccessError.
func IsAccess(err error) bool {
	var e *AccessError
	return errors.As(err, &e)
}

// IsInvalidInput reports whether err is an InvalidInputError.
func IsInvalidInput(err error) bool {
	var e *InvalidInputError
	return errors.As(err, &e)
}
