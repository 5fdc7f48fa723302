package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NonFieldErrors is the key for messages that are not tied to one input field.
const NonFieldErrors = "non_field_errors"

var (
	// ErrNotFound also covers records that exist in another tenant or in
	// the wrong state, so callers cannot tell them apart.
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is deactivated")
)

// ValidationError carries field level messages keyed by input field name.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// FieldError is shorthand for a ValidationError with a single message.
func FieldError(field, message string) *ValidationError {
	v := NewValidationError()
	v.Add(field, message)
	return v
}

func (v *ValidationError) Add(field string, messages ...string) {
	if v.Fields == nil {
		v.Fields = map[string][]string{}
	}
	v.Fields[field] = append(v.Fields[field], messages...)
}

func (v *ValidationError) Merge(fields map[string][]string) {
	for field, messages := range fields {
		v.Add(field, messages...)
	}
}

func (v *ValidationError) Has(field string) bool {
	return len(v.Fields[field]) > 0
}

func (v *ValidationError) Empty() bool {
	return len(v.Fields) == 0
}

// OrNil returns v when it holds messages and nil otherwise.
func (v *ValidationError) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(v.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// InternalError wraps an unexpected failure. Its message is safe to show;
// the cause is for logs only.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: internal error", e.Op)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
