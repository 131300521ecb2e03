package types

import (
	"errors"
	"fmt"
	"strings"
)

// Store and lookup errors.
var (
	ErrNotFound      = errors.New("object not found")
	ErrInvalidID     = errors.New("invalid object ID")
	ErrInvalidData   = errors.New("invalid object data")
	ErrInvalidFilter = errors.New("invalid filter value type")
)

// Backend lifecycle errors.
var (
	ErrAlreadyAttached = errors.New("backend already attached")
	ErrDetached        = errors.New("backend is detached")
)

// Relationship errors.
var (
	ErrSelfReference   = errors.New("object may not be related to itself")
	ErrInvalidSequence = errors.New("sequence must be a positive integer")
	ErrAlreadyMember   = errors.New("object is already a child of the parent")
	ErrNotMember       = errors.New("object is not a child of the parent")
	ErrNoParents       = errors.New("at least one parent is required")
	ErrNoObjects       = errors.New("at least one object is required")
)

// StoreError reports that the underlying store rejected a read or write.
type StoreError struct {
	Op  string // Operation that failed, e.g. "commit" or "load".
	PID string // Subject object, when known.
	Err error
}

func (e *StoreError) Error() string {
	if e.PID != "" {
		return fmt.Sprintf("store %s %s: %v", e.Op, e.PID, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err as a StoreError. A nil err stays nil.
func NewStoreError(op, pid string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, PID: pid, Err: err}
}

// IsStoreFailure reports whether err is, or wraps, a StoreError.
func IsStoreFailure(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// Form fields a validation error may be scoped to.
const (
	FieldChild  = "child"
	FieldParent = "parent"
)

// FieldError is one field-scoped validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every FieldError found in one validation pass.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

// Add appends a FieldError.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Field returns the messages recorded for field in order.
func (e *ValidationError) Field(field string) []string {
	var msgs []string
	for _, fe := range e.Errors {
		if fe.Field == field {
			msgs = append(msgs, fe.Message)
		}
	}
	return msgs
}

// Empty reports whether no errors were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Errors) == 0
}

// Err returns e as an error, or nil when nothing was recorded.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError extracts a ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
