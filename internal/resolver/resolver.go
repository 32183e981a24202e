package resolver

import (
	"context"
	"fmt"
)

// Position identifies the field being resolved: the parent type name and the
// field name as written in the schema. It is created fresh per field visit
// and discarded after resolution.
type Position struct {
	ParentType string
	Field      string
}

func (p Position) String() string { return p.ParentType + "." + p.Field }

// Resolver computes one field's value. Implementations may return a plain
// value, a *loader.Pending obtained from the walk's batch loader, or a Thunk
// to be resumed after the next batch round.
type Resolver interface {
	Resolve(ctx context.Context, source any, args map[string]any, pos Position) (any, error)
}

// Func adapts a plain function to the Resolver interface.
type Func func(ctx context.Context, source any, args map[string]any, pos Position) (any, error)

func (f Func) Resolve(ctx context.Context, source any, args map[string]any, pos Position) (any, error) {
	return f(ctx, source, args, pos)
}

// Thunk is a deferred computation returned in place of a final value. The
// executor invokes it after the next batch round with the same parent,
// arguments, and position the field was resolved with; it may return another
// Thunk or a *loader.Pending to suspend again.
type Thunk func(ctx context.Context, source any, args map[string]any, pos Position) (any, error)

// TypeResolverFunc names the concrete object type for a value of an abstract
// (interface or union) type.
type TypeResolverFunc func(ctx context.Context, value any) (string, error)

// ScalarFunc serializes a custom scalar value into a JSON-safe Go value.
type ScalarFunc func(value any) (any, error)

type entryKey struct {
	typeName string
	field    string
}

// Registry maps (parentTypeName, fieldName) to the resolver unit that
// computes that field, plus abstract-type resolvers and custom scalar
// serializers. It is populated at startup and read-only afterwards, so it is
// safe to share across concurrent walks.
type Registry struct {
	entries       map[entryKey]Resolver
	typeResolvers map[string]TypeResolverFunc
	scalars       map[string]ScalarFunc
}

func NewRegistry() *Registry {
	return &Registry{
		entries:       map[entryKey]Resolver{},
		typeResolvers: map[string]TypeResolverFunc{},
		scalars:       map[string]ScalarFunc{},
	}
}

// Register binds a resolver unit to a field. Registering the same field
// twice is a wiring bug and panics.
func (r *Registry) Register(typeName, field string, res Resolver) {
	key := entryKey{typeName, field}
	if _, dup := r.entries[key]; dup {
		panic(fmt.Sprintf("resolver: duplicate registration for %s.%s", typeName, field))
	}
	r.entries[key] = res
}

// RegisterFunc binds a plain function as the resolver for a field.
func (r *Registry) RegisterFunc(typeName, field string, fn Func) {
	r.Register(typeName, field, fn)
}

// Lookup returns the resolver unit registered for the field, if any.
func (r *Registry) Lookup(typeName, field string) (Resolver, bool) {
	res, ok := r.entries[entryKey{typeName, field}]
	return res, ok
}

// RegisterTypeResolver installs the concrete-type resolver for an abstract
// type.
func (r *Registry) RegisterTypeResolver(abstractType string, fn TypeResolverFunc) {
	r.typeResolvers[abstractType] = fn
}

// RegisterScalar installs a serializer for a custom scalar.
func (r *Registry) RegisterScalar(name string, fn ScalarFunc) {
	r.scalars[name] = fn
}
