package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pageza/foodgram/backend/internal/validation"
)

// Error kinds. Match with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthorized     = errors.New("unauthorized")
)

// Error is a failure of a known kind with a client-facing message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// MetricLabel names the kind in Prometheus result labels.
func (e *Error) MetricLabel() string {
	return strings.ReplaceAll(e.Kind.Error(), " ", "_")
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NotFound reports a missing entity or marker.
func NotFound(message string) error {
	return newError(ErrNotFound, message)
}

// Conflict reports a duplicate marker.
func Conflict(message string) error {
	return newError(ErrConflict, message)
}

// InvalidRequest reports a request that can never succeed, such as following oneself.
func InvalidRequest(message string) error {
	return newError(ErrInvalidRequest, message)
}

// PermissionDenied reports a mutation by someone other than the owner.
func PermissionDenied(message string) error {
	return newError(ErrPermissionDenied, message)
}

// Unauthorized reports missing or bad credentials.
func Unauthorized(message string) error {
	return newError(ErrUnauthorized, message)
}

// ValidationError maps request fields to the problems found in them.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an error carrying one message for one field.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add appends a message to field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no field has a problem.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Err returns e, or nil when it holds nothing.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) MetricLabel() string {
	return "invalid"
}

// validate runs struct validation and converts failures to a ValidationError.
func validate(s any) error {
	err := validation.Struct(s)
	if err == nil {
		return nil
	}
	fields := validation.FieldErrors(err)
	if fields == nil {
		return fmt.Errorf("validating input: %w", err)
	}
	return &ValidationError{Fields: fields}
}
