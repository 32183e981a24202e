package gqlerr

import (
	"context"
	"errors"
	"fmt"

	eventbus "github.com/graphload/graphload/internal/eventbus"
	events "github.com/graphload/graphload/internal/events"
	executor "github.com/graphload/graphload/internal/executor"
	language "github.com/graphload/graphload/internal/language"
)

// Category tells the client which kind of failure an error entry represents.
type Category string

const (
	CategoryGraphQL    Category = "graphql"
	CategoryClient     Category = "client"
	CategoryValidation Category = "validation"
)

const internalErrorMessage = "Internal server error"

// FormattedError is one entry of the response's errors list.
type FormattedError struct {
	Message    string              `json:"message"`
	Category   Category            `json:"category"`
	Locations  []language.Location `json:"locations,omitempty"`
	Path       []any               `json:"path,omitempty"`
	Validation map[string][]string `json:"validation,omitempty"`
	Extensions map[string]any      `json:"extensions,omitempty"`
}

// DebugFlags control how much internal detail unexpected errors expose to
// clients. They never affect reporting to the sink.
type DebugFlags struct {
	IncludeMessage bool
	IncludeTrace   bool
}

// Formatter classifies execution errors and shapes them for the response.
// Every error is reported to the sink (eventbus subscribers) with its
// original cause before any message rewriting; classification only changes
// presentation, never drops an entry.
type Formatter struct {
	debug DebugFlags
}

func NewFormatter(debug DebugFlags) *Formatter {
	return &Formatter{debug: debug}
}

// FormatAll formats every error collected during one walk, in order.
func (f *Formatter) FormatAll(ctx context.Context, errs []executor.GraphQLError, operationName string) []FormattedError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]FormattedError, len(errs))
	for i, ge := range errs {
		out[i] = f.Format(ctx, ge, operationName)
	}
	return out
}

// Format classifies one execution error. First match wins: not-found becomes
// a client error with a generic message, validation keeps its summary and
// attaches violations, everything else passes through as a graphql-category
// error subject to the debug flags.
func (f *Formatter) Format(ctx context.Context, ge executor.GraphQLError, operationName string) FormattedError {
	cause := ge.Err
	if cause == nil {
		cause = errors.New(ge.Message)
	}

	eventbus.Publish(ctx, events.ExecutionError{
		Err:           cause,
		Path:          ge.Path.String(),
		OperationName: operationName,
	})

	fe := FormattedError{
		Category:   CategoryGraphQL,
		Locations:  ge.Locations,
		Path:       responsePath(ge.Path),
		Extensions: ge.Extensions,
	}

	var nf *NotFoundError
	var ve *ValidationError
	switch {
	case errors.As(cause, &nf):
		fe.Category = CategoryClient
		fe.Message = nf.ClientMessage()
	case errors.As(cause, &ve):
		fe.Category = CategoryValidation
		fe.Message = ve.Summary
		fe.Validation = ve.Violations
	default:
		fe.Message = internalErrorMessage
		if f.debug.IncludeMessage {
			fe.Message = ge.Message
		}
		if f.debug.IncludeTrace {
			if fe.Extensions == nil {
				fe.Extensions = map[string]any{}
			}
			fe.Extensions["trace"] = errorChain(cause)
		}
	}
	return fe
}

func responsePath(p executor.Path) []any {
	if len(p) == 0 {
		return nil
	}
	out := make([]any, len(p))
	for i, elem := range p {
		out[i] = elem
	}
	return out
}

// errorChain renders the cause chain outermost-first for debug output.
func errorChain(err error) []string {
	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T: %s", e, e.Error()))
	}
	return chain
}
