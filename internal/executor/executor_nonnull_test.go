package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	loader "github.com/graphload/graphload/internal/loader"
)

func TestNonNullPropagation(t *testing.T) {
	t.Run("Error under non-null nulls parent", func(t *testing.T) {
		sch := mustBuildSchema(t, `
			type Query { obj: Obj }
			type Obj { a: String! }
		`)
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.obj": NewMockValueResolver(map[string]any{}),
			"Obj.a":     NewMockErrorResolver(fmt.Errorf("boom")),
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "{ obj { a } }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &ExecutionResult{
			Data:   map[string]any{"obj": nil},
			Errors: []GraphQLError{{Message: "boom", Path: Path{"obj", "a"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Null for non-null records violation", func(t *testing.T) {
		sch := mustBuildSchema(t, `
			type Query { obj: Obj }
			type Obj { a: String! }
		`)
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.obj": NewMockValueResolver(map[string]any{}),
			"Obj.a":     NewMockValueResolver(nil),
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "{ obj { a } }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &ExecutionResult{
			Data:   map[string]any{"obj": nil},
			Errors: []GraphQLError{{Message: "Cannot return null for non-nullable field obj.a", Path: Path{"obj", "a"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Non-null list item nulls the list", func(t *testing.T) {
		sch := mustBuildSchema(t, `
			type Query { objs: [Obj!] }
			type Obj { a: String }
		`)
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.objs": NewMockValueResolver([]any{map[string]any{"a": "A"}, nil}),
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "{ objs { a } }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &ExecutionResult{
			Data:   map[string]any{"objs": nil},
			Errors: []GraphQLError{{Message: "Cannot return null for non-nullable field objs[1]", Path: Path{"objs", 1}}},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Deferred non-null leaf nulls nearest nullable ancestor", func(t *testing.T) {
		sch := mustBuildSchema(t, `
			type Query { user: User, other: String }
			type User { name: String, profile: Profile }
			type Profile { secret: String! }
		`)
		loaders := loader.NewRegistry()
		loaders.Register("secrets", func(ctx context.Context, keys []any) (map[any]any, error) {
			return map[any]any{}, nil
		})
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.user":   NewMockValueResolver(map[string]any{"name": "Ada"}),
			"Query.other":  NewMockValueResolver("other"),
			"User.profile": NewMockValueResolver(map[string]any{}),
			"Profile.secret": func(ctx context.Context, src any, args map[string]any) (any, error) {
				l, _ := loader.FromContext(ctx)
				return l.Load("secrets", "ada"), nil
			},
		})
		exec := NewExecutor(rt, sch, WithLoaders(loaders))
		doc := mustParseQuery(t, "{ user { name profile { secret } } other }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		// Only profile goes null; user and its siblings survive.
		wantRes := &ExecutionResult{
			Data: map[string]any{
				"user":  map[string]any{"name": "Ada", "profile": nil},
				"other": "other",
			},
			Errors: []GraphQLError{{
				Message: "Cannot return null for non-nullable field user.profile.secret",
				Path:    Path{"user", "profile", "secret"},
			}},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Deferred non-null chain skips non-null intermediates", func(t *testing.T) {
		sch := mustBuildSchema(t, `
			type Query { user: User, other: String }
			type User { profile: Profile! }
			type Profile { secret: String! }
		`)
		loaders := loader.NewRegistry()
		loaders.Register("secrets", func(ctx context.Context, keys []any) (map[any]any, error) {
			return map[any]any{}, nil
		})
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.user":   NewMockValueResolver(map[string]any{}),
			"Query.other":  NewMockValueResolver("other"),
			"User.profile": NewMockValueResolver(map[string]any{}),
			"Profile.secret": func(ctx context.Context, src any, args map[string]any) (any, error) {
				l, _ := loader.FromContext(ctx)
				return l.Load("secrets", "ada"), nil
			},
		})
		exec := NewExecutor(rt, sch, WithLoaders(loaders))
		doc := mustParseQuery(t, "{ user { profile { secret } } other }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		// profile is Non-Null, so the null passes it and lands on user.
		wantRes := &ExecutionResult{
			Data: map[string]any{"user": nil, "other": "other"},
			Errors: []GraphQLError{{
				Message: "Cannot return null for non-nullable field user.profile.secret",
				Path:    Path{"user", "profile", "secret"},
			}},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Null for non-null root field nulls data", func(t *testing.T) {
		sch := mustBuildSchema(t, `
			type Query { a: String!, b: String }
		`)
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.a": NewMockValueResolver(nil),
			"Query.b": NewMockValueResolver("B"),
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "{ a b }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &ExecutionResult{
			Data: nil,
			Errors: []GraphQLError{{
				Message: "Cannot return null for non-nullable field a",
				Path:    Path{"a"},
			}},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Deferred null for non-null root field nulls data", func(t *testing.T) {
		sch := mustBuildSchema(t, `
			type Query { a: String!, b: String }
		`)
		loaders := loader.NewRegistry()
		loaders.Register("empty", func(ctx context.Context, keys []any) (map[any]any, error) {
			return map[any]any{}, nil
		})
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.a": func(ctx context.Context, src any, args map[string]any) (any, error) {
				l, _ := loader.FromContext(ctx)
				return l.Load("empty", "a"), nil
			},
			"Query.b": NewMockValueResolver("B"),
		})
		exec := NewExecutor(rt, sch, WithLoaders(loaders))
		doc := mustParseQuery(t, "{ a b }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &ExecutionResult{
			Data: nil,
			Errors: []GraphQLError{{
				Message: "Cannot return null for non-nullable field a",
				Path:    Path{"a"},
			}},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Tombstone drops suspensions under nullified subtree", func(t *testing.T) {
		sch := mustBuildSchema(t, `
			type Query { obj: Obj, other: String }
			type Obj { a: String!, b: String }
		`)

		var bResolved bool
		loaders := loader.NewRegistry()
		loaders.Register("fail", func(ctx context.Context, keys []any) (map[any]any, error) {
			return nil, fmt.Errorf("boom")
		})
		loaders.Register("ok", func(ctx context.Context, keys []any) (map[any]any, error) {
			out := make(map[any]any, len(keys))
			for _, k := range keys {
				out[k] = "B"
			}
			return out, nil
		})

		rt := NewMockRuntime(map[string]MockResolver{
			"Query.obj":   NewMockValueResolver(map[string]any{}),
			"Query.other": NewMockValueResolver("other"),
			"Obj.a": func(ctx context.Context, src any, args map[string]any) (any, error) {
				l, _ := loader.FromContext(ctx)
				return l.Load("fail", "a"), nil
			},
			"Obj.b": func(ctx context.Context, src any, args map[string]any) (any, error) {
				l, _ := loader.FromContext(ctx)
				bResolved = true
				return l.Load("ok", "b"), nil
			},
		})
		exec := NewExecutor(rt, sch, WithLoaders(loaders))
		doc := mustParseQuery(t, "{ obj { a b } other }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &ExecutionResult{
			Data:   map[string]any{"obj": nil, "other": "other"},
			Errors: []GraphQLError{{Message: "boom", Path: Path{"obj", "a"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes, resultDiffOpts...); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
		if !bResolved {
			t.Fatal("Obj.b resolver should have run before the batch round")
		}
	})
}
