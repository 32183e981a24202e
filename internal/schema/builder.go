package schema

import (
	"fmt"
	"sort"
	"strconv"

	language "github.com/graphload/graphload/internal/language"
)

// BuildFromSDL parses an SDL document and builds the executable schema.
// Type extensions are merged into their base definitions. Built-in scalars
// and directives are always present.
func BuildFromSDL(name, sdl string) (*Schema, error) {
	doc, err := language.ParseSchema(name, sdl)
	if err != nil {
		return nil, err
	}
	return BuildFromDocument(doc)
}

// BuildFromDocument builds the executable schema from a parsed SDL document.
func BuildFromDocument(doc *language.SchemaDocument) (*Schema, error) {
	s := &Schema{
		Types:      map[string]*Type{},
		Directives: map[string]*Directive{},
	}
	for _, t := range []*Type{stringType, intType, floatType, booleanType, idType} {
		s.Types[t.Name] = t
	}
	for _, d := range []*Directive{includeDirective, skipDirective, deprecatedDirective} {
		s.Directives[d.Name] = d
	}

	defs := make(map[string]*language.Definition, len(doc.Definitions))
	order := make([]string, 0, len(doc.Definitions))
	for _, def := range doc.Definitions {
		if _, dup := defs[def.Name]; dup {
			return nil, fmt.Errorf("duplicate type definition %q", def.Name)
		}
		defs[def.Name] = def
		order = append(order, def.Name)
	}
	for _, ext := range doc.Extensions {
		base, ok := defs[ext.Name]
		if !ok {
			return nil, fmt.Errorf("extension of undefined type %q", ext.Name)
		}
		if base.Kind != ext.Kind {
			return nil, fmt.Errorf("extension kind mismatch for type %q", ext.Name)
		}
		base.Fields = append(base.Fields, ext.Fields...)
		base.Types = append(base.Types, ext.Types...)
		base.EnumValues = append(base.EnumValues, ext.EnumValues...)
		base.Interfaces = append(base.Interfaces, ext.Interfaces...)
	}

	for _, name := range order {
		t, err := buildType(defs[name])
		if err != nil {
			return nil, err
		}
		s.Types[t.Name] = t
	}
	for _, dd := range doc.Directives {
		s.Directives[dd.Name] = buildDirective(dd)
	}

	resolvePossibleTypes(s)
	resolveRootTypes(s, doc)

	if s.QueryType == "" || s.Types[s.QueryType] == nil {
		return nil, fmt.Errorf("schema has no query root type")
	}
	return s, nil
}

func buildType(def *language.Definition) (*Type, error) {
	t := &Type{Name: def.Name, Description: def.Description}
	switch def.Kind {
	case language.Object:
		t.Kind = TypeKindObject
		t.Interfaces = append(t.Interfaces, def.Interfaces...)
		for _, fd := range def.Fields {
			t.Fields = append(t.Fields, buildField(fd))
		}
	case language.Interface:
		t.Kind = TypeKindInterface
		t.Interfaces = append(t.Interfaces, def.Interfaces...)
		for _, fd := range def.Fields {
			t.Fields = append(t.Fields, buildField(fd))
		}
	case language.Union:
		t.Kind = TypeKindUnion
		t.PossibleTypes = append(t.PossibleTypes, def.Types...)
	case language.Enum:
		t.Kind = TypeKindEnum
		for _, ev := range def.EnumValues {
			val := &EnumValue{Name: ev.Name, Description: ev.Description}
			val.IsDeprecated, val.DeprecationReason = deprecation(ev.Directives)
			t.EnumValues = append(t.EnumValues, val)
		}
	case language.Scalar:
		t.Kind = TypeKindScalar
	case language.InputObject:
		t.Kind = TypeKindInputObject
		for _, fd := range def.Fields {
			t.InputFields = append(t.InputFields, &InputValue{
				Name:         fd.Name,
				Description:  fd.Description,
				Type:         buildTypeRef(fd.Type),
				DefaultValue: defaultValueFromAST(fd.DefaultValue),
			})
		}
	default:
		return nil, fmt.Errorf("unsupported definition kind %s for type %q", def.Kind, def.Name)
	}
	return t, nil
}

func buildField(fd *language.FieldDefinition) *Field {
	f := &Field{
		Name:        fd.Name,
		Description: fd.Description,
		Type:        buildTypeRef(fd.Type),
	}
	f.IsDeprecated, f.DeprecationReason = deprecation(fd.Directives)
	for _, ad := range fd.Arguments {
		f.Arguments = append(f.Arguments, &InputValue{
			Name:         ad.Name,
			Description:  ad.Description,
			Type:         buildTypeRef(ad.Type),
			DefaultValue: defaultValueFromAST(ad.DefaultValue),
		})
	}
	return f
}

func buildDirective(dd *language.DirectiveDefinition) *Directive {
	d := &Directive{
		Name:         dd.Name,
		Description:  dd.Description,
		IsRepeatable: dd.IsRepeatable,
	}
	for _, loc := range dd.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, ad := range dd.Arguments {
		d.Arguments = append(d.Arguments, &InputValue{
			Name:         ad.Name,
			Description:  ad.Description,
			Type:         buildTypeRef(ad.Type),
			DefaultValue: defaultValueFromAST(ad.DefaultValue),
		})
	}
	return d
}

func buildTypeRef(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.NamedType != "" {
		ref = NamedType(t.NamedType)
	} else {
		ref = ListType(buildTypeRef(t.Elem))
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}

func deprecation(directives language.DirectiveList) (bool, string) {
	d := directives.ForName("deprecated")
	if d == nil {
		return false, ""
	}
	reason := "No longer supported"
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		reason = arg.Value.Raw
	}
	return true, reason
}

// defaultValueFromAST converts a literal default value into a plain Go value.
// Variables are not legal in schema position, so they are ignored.
func defaultValueFromAST(v *language.Value) any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case language.IntValue:
		iv, _ := strconv.Atoi(v.Raw)
		return iv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(v.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue, language.EnumValue:
		return v.Raw
	case language.BooleanValue:
		return v.Raw == "true"
	case language.NullValue:
		return nil
	case language.ListValue:
		out := make([]any, len(v.Children))
		for i, c := range v.Children {
			out[i] = defaultValueFromAST(c.Value)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any, len(v.Children))
		for _, c := range v.Children {
			m[c.Name] = defaultValueFromAST(c.Value)
		}
		return m
	default:
		return nil
	}
}

// resolvePossibleTypes fills interface possible-type lists from the objects
// that declare them.
func resolvePossibleTypes(s *Schema) {
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := s.Types[name]
		if t.Kind != TypeKindObject {
			continue
		}
		for _, ifaceName := range t.Interfaces {
			iface := s.Types[ifaceName]
			if iface == nil || iface.Kind != TypeKindInterface {
				continue
			}
			iface.PossibleTypes = append(iface.PossibleTypes, t.Name)
		}
	}
}

func resolveRootTypes(s *Schema, doc *language.SchemaDocument) {
	for _, sd := range append(doc.Schema, doc.SchemaExtension...) {
		s.Description = sd.Description
		for _, ot := range sd.OperationTypes {
			switch ot.Operation {
			case language.Query:
				s.QueryType = ot.Type
			case language.Mutation:
				s.MutationType = ot.Type
			case language.Subscription:
				s.SubscriptionType = ot.Type
			}
		}
	}
	// Default root type names apply when no schema block names them.
	if s.QueryType == "" && s.Types["Query"] != nil {
		s.QueryType = "Query"
	}
	if s.MutationType == "" && s.Types["Mutation"] != nil {
		s.MutationType = "Mutation"
	}
	if s.SubscriptionType == "" && s.Types["Subscription"] != nil {
		s.SubscriptionType = "Subscription"
	}
}
