// Package apperr defines the error taxonomy shared by the map subsystem.
// Handlers map these kinds onto HTTP statuses; services wrap lower-level
// failures into one of them so callers never inspect driver errors.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed input rejected before any state
// mutation took place.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Validationf builds a ValidationError for the given field
func Validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PersistenceError reports a failed backend write. The optimistic mutation
// that triggered it has already been rolled back when this surfaces.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a PersistenceError for the named operation
func Persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// NotFoundError reports a missing entity or an address with no geocoding
// match.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// NotFound builds a NotFoundError
func NotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

// FetchError reports a failed per-layer data load. Other layers are
// unaffected.
type FetchError struct {
	LayerID string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("data fetch failed for layer %s: %v", e.LayerID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetch wraps err as a FetchError for the given layer
func Fetch(layerID string, err error) error {
	return &FetchError{LayerID: layerID, Err: err}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

// IsPersistence reports whether err is a PersistenceError
func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}
