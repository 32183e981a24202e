package introspection

import (
	"context"
	"testing"

	executor "github.com/graphload/graphload/internal/executor"
	language "github.com/graphload/graphload/internal/language"
	resolver "github.com/graphload/graphload/internal/resolver"
	schema "github.com/graphload/graphload/internal/schema"
)

const testSDL = `
type Query {
	user(id: ID!): User
}

"A registered account."
type User implements Node {
	id: ID!
	name: String
	role: Role @deprecated(reason: "use permissions")
}

interface Node { id: ID! }

enum Role { ADMIN, MEMBER }
`

func execIntrospection(t *testing.T, query string) *executor.ExecutionResult {
	t.Helper()
	sch, err := schema.BuildFromSDL("test.graphql", testSDL)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	reg := resolver.NewRegistry()
	Register(reg, sch)
	exec := executor.NewExecutor(resolver.NewStrategy(reg), Extend(sch))

	doc, err := language.ParseQuery(query)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	return res
}

func TestSchemaQuery(t *testing.T) {
	res := execIntrospection(t, `{ __schema { queryType { name } types { name } } }`)

	data := res.Data.(map[string]any)
	s := data["__schema"].(map[string]any)
	if s["queryType"].(map[string]any)["name"] != "Query" {
		t.Fatalf("unexpected queryType: %v", s["queryType"])
	}

	names := map[string]bool{}
	for _, tv := range s["types"].([]any) {
		names[tv.(map[string]any)["name"].(string)] = true
	}
	for _, want := range []string{"Query", "User", "Node", "Role", "String"} {
		if !names[want] {
			t.Fatalf("missing type %q in %v", want, names)
		}
	}
	if names["__Schema"] {
		t.Fatalf("introspection types must not appear in their own listing")
	}
}

func TestTypeQuery(t *testing.T) {
	res := execIntrospection(t, `{
		__type(name: "User") {
			kind
			name
			fields { name type { kind name ofType { name } } }
			interfaces { name }
		}
	}`)

	data := res.Data.(map[string]any)
	ut := data["__type"].(map[string]any)
	if ut["kind"] != "OBJECT" || ut["name"] != "User" {
		t.Fatalf("unexpected type header: %v", ut)
	}

	fields := ut["fields"].([]any)
	byName := map[string]map[string]any{}
	for _, f := range fields {
		fm := f.(map[string]any)
		byName[fm["name"].(string)] = fm
	}
	if _, ok := byName["role"]; ok {
		t.Fatalf("deprecated field should be hidden by default")
	}
	idType := byName["id"]["type"].(map[string]any)
	if idType["kind"] != "NON_NULL" {
		t.Fatalf("expected NON_NULL wrapper, got %v", idType)
	}
	if idType["ofType"].(map[string]any)["name"] != "ID" {
		t.Fatalf("expected ID inner type, got %v", idType)
	}

	ifaces := ut["interfaces"].([]any)
	if len(ifaces) != 1 || ifaces[0].(map[string]any)["name"] != "Node" {
		t.Fatalf("unexpected interfaces: %v", ifaces)
	}
}

func TestDeprecatedFieldsIncluded(t *testing.T) {
	res := execIntrospection(t, `{
		__type(name: "User") {
			fields(includeDeprecated: true) { name isDeprecated deprecationReason }
		}
	}`)

	data := res.Data.(map[string]any)
	fields := data["__type"].(map[string]any)["fields"].([]any)
	var role map[string]any
	for _, f := range fields {
		fm := f.(map[string]any)
		if fm["name"] == "role" {
			role = fm
		}
	}
	if role == nil {
		t.Fatalf("role not listed with includeDeprecated")
	}
	if role["isDeprecated"] != true || role["deprecationReason"] != "use permissions" {
		t.Fatalf("unexpected deprecation info: %v", role)
	}
}

func TestEnumValuesAndPossibleTypes(t *testing.T) {
	res := execIntrospection(t, `{
		role: __type(name: "Role") { enumValues { name } }
		node: __type(name: "Node") { possibleTypes { name } }
	}`)

	data := res.Data.(map[string]any)
	evs := data["role"].(map[string]any)["enumValues"].([]any)
	if len(evs) != 2 {
		t.Fatalf("expected 2 enum values, got %v", evs)
	}
	pts := data["node"].(map[string]any)["possibleTypes"].([]any)
	if len(pts) != 1 || pts[0].(map[string]any)["name"] != "User" {
		t.Fatalf("unexpected possibleTypes: %v", pts)
	}
}
