package executor

import (
	"context"

	resolver "github.com/graphload/graphload/internal/resolver"
)

// Runtime is the host integration surface for field resolution, abstract
// type resolution, and leaf serialization. The resolver package's Strategy
// is the standard implementation; tests substitute their own.
//
// Contract:
//   - ResolveField may return a plain value, a *loader.Pending issued by the
//     walk's batch loader, or a resolver.Thunk. Placeholders suspend the
//     field until the executor's next drain round; everything else is
//     completed immediately.
//   - The executor drives one walk from one goroutine, so implementations
//     see no concurrent calls for the same request. Shared state (the
//     resolver registry) must still be read-only across requests.
//   - Errors returned from any method become located GraphQL errors. A
//     Non-Null field's error propagates null to the nearest nullable
//     ancestor per the GraphQL spec; siblings keep resolving.
//   - Implementations must not mutate source or args values.
type Runtime interface {
	// ResolveField produces the value for one field position given the
	// parent source value and coerced arguments.
	ResolveField(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error)

	// ResolveType names the concrete object type for a value of an abstract
	// (interface or union) type. The returned name must be a possible type
	// of abstractType in the schema.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeaf coerces a scalar or enum value into a JSON-safe Go value.
	// Enum values serialize to their symbolic name.
	SerializeLeaf(ctx context.Context, typeName string, value any) (any, error)
}
