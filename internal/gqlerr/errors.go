package gqlerr

import (
	"fmt"
	"sort"
	"strings"
)

// The engine classifies execution errors into a closed set of domain
// variants. Resolver and storage layers translate their own failures into
// these before they reach the formatter; anything else is treated as an
// unexpected execution error.

// NotFoundError reports that a requested entity does not exist. The internal
// message may carry identifying detail; clients only ever see
// "<Kind> not found.".
type NotFoundError struct {
	Kind string
	ID   any
}

func NotFound(kind string, id any) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s not found: %v", e.Kind, e.ID)
}

// ClientMessage is the sanitized message returned to API clients.
func (e *NotFoundError) ClientMessage() string {
	return e.Kind + " not found."
}

// ValidationError reports that input validation failed, carrying per-field
// violation messages. Violations are preserved structurally in the formatted
// output; the summary becomes the client-visible message.
type ValidationError struct {
	Summary    string
	Violations map[string][]string
}

func Invalid(summary string) *ValidationError {
	return &ValidationError{Summary: summary, Violations: map[string][]string{}}
}

// WithViolation appends a violation message for a field and returns the
// error for chaining.
func (e *ValidationError) WithViolation(field, message string) *ValidationError {
	if e.Violations == nil {
		e.Violations = map[string][]string{}
	}
	e.Violations[field] = append(e.Violations[field], message)
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return e.Summary
	}
	fields := make([]string, 0, len(e.Violations))
	for f := range e.Violations {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("%s (%s)", e.Summary, strings.Join(fields, ", "))
}
