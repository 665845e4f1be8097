package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates that a requested contact was not found.
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicateEntry indicates a unique constraint violation reported by storage.
	ErrDuplicateEntry = errors.New("duplicate entry")
	// ErrConflict is matched by every *ConflictError.
	ErrConflict = errors.New("conflict")
)

// ConflictError reports a business rule collision, such as a mobile phone already in use.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NewConflictError builds a ConflictError with the given message.
func NewConflictError(msg string) *ConflictError {
	return &ConflictError{Message: msg}
}

// ValidationError carries every failing field of a request, keyed by the wire field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fieldLabel(k)+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

// fieldLabel capitalizes a wire field name for human-facing messages ("nome" -> "Nome").
func fieldLabel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
