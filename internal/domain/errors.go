// Package domain provides shared domain-level sentinel errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateID indicates an entity with the same ID already exists.
var ErrDuplicateID = errors.New("duplicate id")

// ErrValidation indicates the input failed validation.
var ErrValidation = errors.New("validation")

// ErrDispatchNotification indicates the worker notification capability failed.
var ErrDispatchNotification = errors.New("dispatch notification failed")

// DispatchError carries the role a failed notification was addressed to.
// It matches ErrDispatchNotification with errors.Is and unwraps to the cause.
type DispatchError struct {
	Role string
	Err  error
}

func (e *DispatchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("notify %s: %s", e.Role, ErrDispatchNotification)
	}
	return e.Err.Error()
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *DispatchError) Unwrap() []error {
	return []error{ErrDispatchNotification, e.Err}
}

// Validationf builds an error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
