package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestVariableCoercion(t *testing.T) {
	sch := mustBuildSchema(t, `
		type Query { echo(msg: String, n: Int): String }
	`)
	echo := func(ctx context.Context, src any, args map[string]any) (any, error) {
		return fmt.Sprintf("%v/%v", args["msg"], args["n"]), nil
	}

	t.Run("Provided variable", func(t *testing.T) {
		rt := NewMockRuntime(map[string]MockResolver{"Query.echo": echo})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, `query ($m: String) { echo(msg: $m, n: 1) }`)

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", map[string]any{"m": "hi"}, nil)

		wantRes := &ExecutionResult{
			Data:   map[string]any{"echo": "hi/1"},
			Errors: []GraphQLError{},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Default value applies", func(t *testing.T) {
		rt := NewMockRuntime(map[string]MockResolver{"Query.echo": echo})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, `query ($m: String = "dflt") { echo(msg: $m, n: 2) }`)

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &ExecutionResult{
			Data:   map[string]any{"echo": "dflt/2"},
			Errors: []GraphQLError{},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Missing required variable", func(t *testing.T) {
		rt := NewMockRuntime(map[string]MockResolver{"Query.echo": echo})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, `query ($m: String!) { echo(msg: $m, n: 3) }`)

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		if gotRes.Data != nil {
			t.Fatalf("expected nil data, got %v", gotRes.Data)
		}
		if len(gotRes.Errors) != 1 {
			t.Fatalf("expected 1 error, got %v", gotRes.Errors)
		}
	})

	t.Run("JSON number coerces to Int", func(t *testing.T) {
		rt := NewMockRuntime(map[string]MockResolver{"Query.echo": echo})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, `query ($n: Int) { echo(msg: "x", n: $n) }`)

		// JSON decoding hands variables over as float64.
		gotRes := exec.ExecuteRequest(context.Background(), doc, "", map[string]any{"n": float64(7)}, nil)

		wantRes := &ExecutionResult{
			Data:   map[string]any{"echo": "x/7"},
			Errors: []GraphQLError{},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestOperationSelection(t *testing.T) {
	sch := mustBuildSchema(t, `
		type Query { a: String }
	`)

	t.Run("Named operation", func(t *testing.T) {
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.a": NewMockValueResolver("A"),
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, `query First { a } query Second { a }`)

		gotRes := exec.ExecuteRequest(context.Background(), doc, "Second", nil, nil)

		wantRes := &ExecutionResult{
			Data:   map[string]any{"a": "A"},
			Errors: []GraphQLError{},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Ambiguous unnamed operation", func(t *testing.T) {
		rt := NewMockRuntime(nil)
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, `query First { a } query Second { a }`)

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		if len(gotRes.Errors) != 1 || gotRes.Errors[0].Message != "operation not found" {
			t.Fatalf("expected operation-not-found error, got %v", gotRes.Errors)
		}
	})
}
