package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestErrorsLocatedPaths(t *testing.T) {
	t.Run("Simple", func(t *testing.T) {
		sch := mustBuildSchema(t, `
			type Query { a: String }
		`)
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.a": NewMockErrorResolver(fmt.Errorf("boom")),
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "{ a }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &ExecutionResult{
			Data:   map[string]any{"a": nil},
			Errors: []GraphQLError{{Message: "boom", Path: Path{"a"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Nested", func(t *testing.T) {
		sch := mustBuildSchema(t, `
			type Query { obj: Obj }
			type Obj { a: String }
		`)
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.obj": NewMockValueResolver(map[string]any{}),
			"Obj.a":     NewMockErrorResolver(fmt.Errorf("boom")),
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "{ obj { a } }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &ExecutionResult{
			Data:   map[string]any{"obj": map[string]any{"a": nil}},
			Errors: []GraphQLError{{Message: "boom", Path: Path{"obj", "a"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("List index in path", func(t *testing.T) {
		sch := mustBuildSchema(t, `
			type Query { objs: [Obj] }
			type Obj { a: String }
		`)
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.objs": NewMockValueResolver([]any{map[string]any{"idx": 0}, map[string]any{"idx": 1}}),
			"Obj.a": func(ctx context.Context, src any, args map[string]any) (any, error) {
				if src.(map[string]any)["idx"].(int) == 1 {
					return nil, fmt.Errorf("boom")
				}
				return "A", nil
			},
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "{ objs { a } }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &ExecutionResult{
			Data:   map[string]any{"objs": []any{map[string]any{"a": "A"}, map[string]any{"a": nil}}},
			Errors: []GraphQLError{{Message: "boom", Path: Path{"objs", 1, "a"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Sibling survives error", func(t *testing.T) {
		sch := mustBuildSchema(t, `
			type Query { a: String, b: String }
		`)
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.a": NewMockErrorResolver(fmt.Errorf("boom")),
			"Query.b": NewMockValueResolver("B"),
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "{ a b }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &ExecutionResult{
			Data:   map[string]any{"a": nil, "b": "B"},
			Errors: []GraphQLError{{Message: "boom", Path: Path{"a"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Unknown field", func(t *testing.T) {
		sch := mustBuildSchema(t, `
			type Query { a: String }
		`)
		rt := NewMockRuntime(nil)
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "{ nope }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		if len(gotRes.Errors) != 1 {
			t.Fatalf("expected 1 error, got %d: %v", len(gotRes.Errors), gotRes.Errors)
		}
		if gotRes.Errors[0].Message != "Cannot query field 'nope' on type 'Query'" {
			t.Fatalf("unexpected message: %q", gotRes.Errors[0].Message)
		}
	})

	t.Run("Error cause preserved", func(t *testing.T) {
		sch := mustBuildSchema(t, `
			type Query { a: String }
		`)
		cause := fmt.Errorf("boom")
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.a": NewMockErrorResolver(cause),
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "{ a }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		if len(gotRes.Errors) != 1 {
			t.Fatalf("expected 1 error, got %d", len(gotRes.Errors))
		}
		if gotRes.Errors[0].Unwrap() != cause {
			t.Fatalf("expected original cause to be carried, got %v", gotRes.Errors[0].Unwrap())
		}
	})
}
