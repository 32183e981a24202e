package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Render produces SDL for the schema with deterministic ordering (type and
// directive names sorted lexicographically, built-ins omitted).
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	var b strings.Builder

	if s.QueryType != "Query" || s.MutationType != "" && s.MutationType != "Mutation" ||
		s.SubscriptionType != "" && s.SubscriptionType != "Subscription" {
		fmt.Fprintf(&b, "schema {\n  query: %s\n", s.QueryType)
		if s.MutationType != "" {
			fmt.Fprintf(&b, "  mutation: %s\n", s.MutationType)
		}
		if s.SubscriptionType != "" {
			fmt.Fprintf(&b, "  subscription: %s\n", s.SubscriptionType)
		}
		b.WriteString("}\n\n")
	}

	names := make([]string, 0, len(s.Types))
	for name, t := range s.Types {
		if isBuiltinType(t) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		renderType(&b, s.Types[name])
	}

	dirNames := make([]string, 0, len(s.Directives))
	for name, d := range s.Directives {
		if isBuiltinDirective(d) {
			continue
		}
		dirNames = append(dirNames, name)
	}
	sort.Strings(dirNames)
	for _, name := range dirNames {
		renderDirectiveDef(&b, s.Directives[name])
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderType(b *strings.Builder, t *Type) {
	renderDescription(b, t.Description, "")
	switch t.Kind {
	case TypeKindScalar:
		fmt.Fprintf(b, "scalar %s\n\n", t.Name)
	case TypeKindEnum:
		fmt.Fprintf(b, "enum %s {\n", t.Name)
		for _, v := range t.EnumValues {
			renderDescription(b, v.Description, "  ")
			fmt.Fprintf(b, "  %s%s\n", v.Name, deprecationSuffix(v.IsDeprecated, v.DeprecationReason))
		}
		b.WriteString("}\n\n")
	case TypeKindUnion:
		fmt.Fprintf(b, "union %s = %s\n\n", t.Name, strings.Join(t.PossibleTypes, " | "))
	case TypeKindInputObject:
		fmt.Fprintf(b, "input %s {\n", t.Name)
		for _, in := range t.InputFields {
			renderDescription(b, in.Description, "  ")
			fmt.Fprintf(b, "  %s: %s%s\n", in.Name, renderTypeRef(in.Type), defaultSuffix(in.DefaultValue))
		}
		b.WriteString("}\n\n")
	case TypeKindObject, TypeKindInterface:
		keyword := "type"
		if t.Kind == TypeKindInterface {
			keyword = "interface"
		}
		implements := ""
		if len(t.Interfaces) > 0 {
			implements = " implements " + strings.Join(t.Interfaces, " & ")
		}
		fmt.Fprintf(b, "%s %s%s {\n", keyword, t.Name, implements)
		for _, f := range t.Fields {
			renderDescription(b, f.Description, "  ")
			fmt.Fprintf(b, "  %s%s: %s%s\n", f.Name, renderArguments(f.Arguments), renderTypeRef(f.Type), deprecationSuffix(f.IsDeprecated, f.DeprecationReason))
		}
		b.WriteString("}\n\n")
	}
}

func renderDirectiveDef(b *strings.Builder, d *Directive) {
	renderDescription(b, d.Description, "")
	repeatable := ""
	if d.IsRepeatable {
		repeatable = " repeatable"
	}
	fmt.Fprintf(b, "directive @%s%s%s on %s\n\n", d.Name, renderArguments(d.Arguments), repeatable, strings.Join(d.Locations, " | "))
}

func renderArguments(args []*InputValue) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%s: %s%s", a.Name, renderTypeRef(a.Type), defaultSuffix(a.DefaultValue))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func renderTypeRef(t *TypeRef) string {
	switch t.Kind {
	case TypeRefKindNonNull:
		return renderTypeRef(t.OfType) + "!"
	case TypeRefKindList:
		return "[" + renderTypeRef(t.OfType) + "]"
	default:
		return t.Named
	}
}

func renderDescription(b *strings.Builder, desc, indent string) {
	if desc == "" {
		return
	}
	fmt.Fprintf(b, "%s\"\"\"%s\"\"\"\n", indent, strings.ReplaceAll(desc, `"""`, `\"""`))
}

func deprecationSuffix(deprecated bool, reason string) string {
	if !deprecated {
		return ""
	}
	if reason == "" || reason == "No longer supported" {
		return " @deprecated"
	}
	return fmt.Sprintf(" @deprecated(reason: %s)", strconv.Quote(reason))
}

func defaultSuffix(v any) string {
	if v == nil {
		return ""
	}
	return " = " + renderValue(v)
}

func renderValue(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = renderValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + renderValue(val[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", val)
	}
}
