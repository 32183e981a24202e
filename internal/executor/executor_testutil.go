package executor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	language "github.com/graphload/graphload/internal/language"
	schema "github.com/graphload/graphload/internal/schema"
)

// resultDiffOpts ignores error internals that wants would have to replicate
// verbatim (source positions and wrapped causes).
var resultDiffOpts = []cmp.Option{
	cmpopts.IgnoreFields(GraphQLError{}, "Err", "Locations"),
	cmpopts.IgnoreFields(ExecutionResult{}, "Rounds"),
}

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

// mustBuildSchema builds a schema from SDL and fails the test on error.
func mustBuildSchema(t *testing.T, sdl string) *schema.Schema {
	t.Helper()
	s, err := schema.BuildFromSDL("test.graphql", sdl)
	if err != nil {
		t.Fatalf("schema build error: %v", err)
	}
	return s
}
