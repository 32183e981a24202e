package introspection

import (
	"context"
	"fmt"
	"sort"

	resolver "github.com/graphload/graphload/internal/resolver"
	schema "github.com/graphload/graphload/internal/schema"
)

// Register installs resolver units for the introspection surface on reg.
// Queries are answered against sch, which should be the original schema so
// the introspection types stay out of their own listings. Plain value fields
// (name, description, isDeprecated) resolve through the strategy's property
// fallback and need no entry here.
func Register(reg *resolver.Registry, sch *schema.Schema) {
	queryType := sch.QueryType
	if queryType == "" {
		queryType = "Query"
	}

	reg.RegisterFunc(queryType, "__schema", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		return sch, nil
	})
	reg.RegisterFunc(queryType, "__type", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		name, _ := args["name"].(string)
		if name == "" {
			return nil, nil
		}
		return sch.Types[name], nil
	})

	registerSchemaFields(reg, sch)
	registerTypeFields(reg, sch)
	registerFieldFields(reg)
	registerInputValueFields(reg)
	registerEnumValueFields(reg)
	registerDirectiveFields(reg)
}

func registerSchemaFields(reg *resolver.Registry, sch *schema.Schema) {
	reg.RegisterFunc("__Schema", "types", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		s := source.(*schema.Schema)
		out := make([]*schema.Type, 0, len(s.Types))
		for _, t := range s.Types {
			out = append(out, t)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, nil
	})
	reg.RegisterFunc("__Schema", "queryType", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		return source.(*schema.Schema).GetQueryType(), nil
	})
	reg.RegisterFunc("__Schema", "mutationType", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		return source.(*schema.Schema).GetMutationType(), nil
	})
	reg.RegisterFunc("__Schema", "subscriptionType", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		return source.(*schema.Schema).GetSubscriptionType(), nil
	})
	reg.RegisterFunc("__Schema", "directives", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		s := source.(*schema.Schema)
		out := make([]*schema.Directive, 0, len(s.Directives))
		for _, d := range s.Directives {
			out = append(out, d)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, nil
	})
}

// registerTypeFields covers __Type, whose source is either a named *Type or
// a *TypeRef wrapper chain.
func registerTypeFields(reg *resolver.Registry, sch *schema.Schema) {
	field := func(name string, fn func(t *schema.Type, args map[string]any) any) {
		reg.RegisterFunc("__Type", name, func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
			switch src := source.(type) {
			case *schema.Type:
				return fn(src, args), nil
			case *schema.TypeRef:
				// Wrapper refs answer kind/name/ofType themselves and
				// delegate the rest to the named type.
				switch name {
				case "kind":
					if src.Kind == schema.TypeRefKindList || src.Kind == schema.TypeRefKindNonNull {
						return string(src.Kind), nil
					}
				case "name":
					if src.Kind != schema.TypeRefKindNamed {
						return nil, nil
					}
				case "ofType":
					if src.Kind == schema.TypeRefKindList || src.Kind == schema.TypeRefKindNonNull {
						return src.OfType, nil
					}
					return nil, nil
				}
				if def := sch.Types[schema.GetNamedType(src)]; def != nil {
					return fn(def, args), nil
				}
				return nil, nil
			default:
				return nil, fmt.Errorf("unexpected __Type source %T", source)
			}
		})
	}

	field("kind", func(t *schema.Type, args map[string]any) any { return string(t.Kind) })
	field("name", func(t *schema.Type, args map[string]any) any { return t.Name })
	field("description", func(t *schema.Type, args map[string]any) any { return nullableString(t.Description) })
	field("fields", func(t *schema.Type, args map[string]any) any {
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil
		}
		includeDeprecated := boolArg(args, "includeDeprecated", false)
		out := []*schema.Field{}
		for _, f := range t.Fields {
			if !includeDeprecated && f.IsDeprecated {
				continue
			}
			out = append(out, f)
		}
		return out
	})
	field("interfaces", func(t *schema.Type, args map[string]any) any {
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil
		}
		out := make([]*schema.Type, 0, len(t.Interfaces))
		for _, name := range t.Interfaces {
			if def := sch.Types[name]; def != nil {
				out = append(out, def)
			}
		}
		return out
	})
	field("possibleTypes", func(t *schema.Type, args map[string]any) any {
		if t.Kind != schema.TypeKindInterface && t.Kind != schema.TypeKindUnion {
			return nil
		}
		out := make([]*schema.Type, 0, len(t.PossibleTypes))
		for _, name := range t.PossibleTypes {
			if def := sch.Types[name]; def != nil {
				out = append(out, def)
			}
		}
		return out
	})
	field("enumValues", func(t *schema.Type, args map[string]any) any {
		if t.Kind != schema.TypeKindEnum {
			return nil
		}
		includeDeprecated := boolArg(args, "includeDeprecated", false)
		out := []*schema.EnumValue{}
		for _, ev := range t.EnumValues {
			if !includeDeprecated && ev.IsDeprecated {
				continue
			}
			out = append(out, ev)
		}
		return out
	})
	field("inputFields", func(t *schema.Type, args map[string]any) any {
		if t.Kind != schema.TypeKindInputObject {
			return nil
		}
		return t.InputFields
	})
	field("ofType", func(t *schema.Type, args map[string]any) any { return nil })
	field("specifiedByURL", func(t *schema.Type, args map[string]any) any { return nil })
	field("isOneOf", func(t *schema.Type, args map[string]any) any { return false })
}

func registerFieldFields(reg *resolver.Registry) {
	reg.RegisterFunc("__Field", "args", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		f := source.(*schema.Field)
		if f.Arguments == nil {
			return []*schema.InputValue{}, nil
		}
		return f.Arguments, nil
	})
	reg.RegisterFunc("__Field", "deprecationReason", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		f := source.(*schema.Field)
		if !f.IsDeprecated {
			return nil, nil
		}
		return f.DeprecationReason, nil
	})
}

func registerInputValueFields(reg *resolver.Registry) {
	reg.RegisterFunc("__InputValue", "defaultValue", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		iv := source.(*schema.InputValue)
		if iv.DefaultValue == nil {
			return nil, nil
		}
		return fmt.Sprintf("%v", iv.DefaultValue), nil
	})
	reg.RegisterFunc("__InputValue", "isDeprecated", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		return false, nil
	})
	reg.RegisterFunc("__InputValue", "deprecationReason", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		return nil, nil
	})
}

func registerEnumValueFields(reg *resolver.Registry) {
	reg.RegisterFunc("__EnumValue", "deprecationReason", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		ev := source.(*schema.EnumValue)
		if !ev.IsDeprecated {
			return nil, nil
		}
		return ev.DeprecationReason, nil
	})
}

func registerDirectiveFields(reg *resolver.Registry) {
	reg.RegisterFunc("__Directive", "args", func(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
		d := source.(*schema.Directive)
		if d.Arguments == nil {
			return []*schema.InputValue{}, nil
		}
		return d.Arguments, nil
	})
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolArg(args map[string]any, name string, def bool) bool {
	if args == nil {
		return def
	}
	if v, ok := args[name]; ok {
		if b, ok2 := v.(bool); ok2 {
			return b
		}
	}
	return def
}
