package resolver

import (
	"context"
	"fmt"
	"reflect"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Strategy resolves field values by cascading through, in order: a resolver
// unit registered for the field, keyed-mapping access, and property access on
// structured records (Go structs and protobuf messages). The first non-nil
// outcome wins.
//
// A registered resolver that returns (nil, nil) falls through to
// mapping/property access. This keeps the cascade's original ambiguity: a
// legitimate null from a resolver is indistinguishable from "no resolver
// handled it", and the parent value gets a chance to supply the field.
type Strategy struct {
	reg *Registry
}

func NewStrategy(reg *Registry) *Strategy {
	return &Strategy{reg: reg}
}

// Registry returns the registry the strategy dispatches through.
func (s *Strategy) Registry() *Registry { return s.reg }

// ResolveField implements the resolver → mapping → property cascade.
// Missing keys and properties yield null, never an error; a resolver error
// propagates immediately as a field-level error.
func (s *Strategy) ResolveField(ctx context.Context, source any, args map[string]any, pos Position) (any, error) {
	if res, ok := s.reg.Lookup(pos.ParentType, pos.Field); ok {
		v, err := res.Resolve(ctx, source, args, pos)
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
	}

	if source == nil {
		return nil, nil
	}

	property := snakeCase(pos.Field)

	if m, ok := source.(map[string]any); ok {
		return m[property], nil
	}

	if pm, ok := source.(proto.Message); ok {
		return protoProperty(pm, property), nil
	}

	return structProperty(source, property), nil
}

// ResolveType names the concrete object type for an abstract value. A
// registered type resolver wins; otherwise a "__typename" key on a mapping
// value is honored.
func (s *Strategy) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	if fn, ok := s.reg.typeResolvers[abstractType]; ok {
		return fn(ctx, value)
	}
	if m, ok := value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok && name != "" {
			return name, nil
		}
	}
	return "", fmt.Errorf("no type resolver registered for abstract type %s", abstractType)
}

// SerializeLeaf serializes scalar and enum values. Custom scalar serializers
// registered on the registry take precedence; built-in scalars get standard
// JSON-safe coercion and unknown leaves pass through unchanged.
func (s *Strategy) SerializeLeaf(ctx context.Context, typeName string, value any) (any, error) {
	if fn, ok := s.reg.scalars[typeName]; ok {
		return fn(value)
	}
	return serializeBuiltinLeaf(typeName, value)
}

// structProperty reads the exported struct field whose snake-cased name
// matches property. Pointers are dereferenced; embedded fields are visible.
func structProperty(source any, property string) any {
	rv := reflect.ValueOf(source)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	for _, sf := range reflect.VisibleFields(rv.Type()) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		if snakeCase(sf.Name) != property {
			continue
		}
		fv := rv.FieldByIndex(sf.Index)
		if !fv.IsValid() {
			return nil
		}
		return fv.Interface()
	}
	return nil
}

// protoProperty reads a field from a protobuf message by its proto field
// name (proto field names are snake_case already). Unset and unknown fields
// yield nil.
func protoProperty(pm proto.Message, property string) any {
	m := pm.ProtoReflect()
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(property))
	if fd == nil {
		return nil
	}
	if fd.HasPresence() && !m.Has(fd) {
		return nil
	}
	return protoValue(fd, m.Get(fd))
}

func protoValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) any {
	if fd.IsList() {
		list := v.List()
		out := make([]any, list.Len())
		for i := 0; i < list.Len(); i++ {
			out[i] = protoScalar(fd, list.Get(i))
		}
		return out
	}
	if fd.IsMap() {
		out := make(map[string]any)
		v.Map().Range(func(mk protoreflect.MapKey, mv protoreflect.Value) bool {
			out[mk.String()] = protoScalar(fd.MapValue(), mv)
			return true
		})
		return out
	}
	return protoScalar(fd, v)
}

func protoScalar(fd protoreflect.FieldDescriptor, v protoreflect.Value) any {
	switch fd.Kind() {
	case protoreflect.EnumKind:
		if ev := fd.Enum().Values().ByNumber(v.Enum()); ev != nil {
			return string(ev.Name())
		}
		return int32(v.Enum())
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return v.Message().Interface()
	default:
		return v.Interface()
	}
}
