package executor

import (
	"fmt"

	language "github.com/graphload/graphload/internal/language"
)

// Path locates a field in the response tree: string elements are response
// names, int elements are list indexes.
type Path []PathElement

type PathElement any

func (p Path) String() string {
	out := ""
	for i, elem := range p {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				out += "."
			}
			out += v
		case int:
			out += fmt.Sprintf("[%d]", v)
		}
	}
	return out
}

// GraphQLError is a located execution error. Err carries the original cause
// for classification and reporting; it is never serialized directly.
type GraphQLError struct {
	Message    string              `json:"message"`
	Path       Path                `json:"path,omitempty"`
	Locations  []language.Location `json:"locations,omitempty"`
	Extensions map[string]any      `json:"extensions,omitempty"`
	Err        error               `json:"-"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// Unwrap exposes the originating cause to errors.As/errors.Is.
func (e GraphQLError) Unwrap() error {
	return e.Err
}

// ExecutionResult is the outcome of one execution walk: a possibly partial
// data tree plus every error collected along the way. Rounds counts the
// batch rounds the walk needed.
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
	Rounds int            `json:"-"`
}
