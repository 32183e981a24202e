package executor

import (
	"context"
	"fmt"
	"sync"

	resolver "github.com/graphload/graphload/internal/resolver"
)

// MockResolver resolves a single field position in tests.
type MockResolver func(ctx context.Context, source any, args map[string]any) (any, error)

// NewMockValueResolver returns a MockResolver that always returns the provided value.
func NewMockValueResolver(val any) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return val, nil
	}
}

// NewMockErrorResolver returns a MockResolver that always returns the provided error.
func NewMockErrorResolver(err error) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return nil, err
	}
}

// Call records one ResolveField invocation.
type Call struct {
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
}

// MockRuntime implements Runtime with a resolver map keyed "ObjectType.Field"
// and a call log. Unmapped fields fall back to map property access so tests
// can feed plain map sources without registering every leaf.
type MockRuntime struct {
	mu        sync.Mutex
	resolvers map[string]MockResolver
	calls     []Call

	typeResolver func(value any) (string, error)
	serializer   func(typeName string, val any) (any, error)
}

// NewMockRuntime creates a MockRuntime with the provided resolvers.
func NewMockRuntime(resolvers map[string]MockResolver) *MockRuntime {
	m := &MockRuntime{
		resolvers: make(map[string]MockResolver),
		typeResolver: func(value any) (string, error) {
			if mv, ok := value.(map[string]any); ok {
				if typename, ok := mv["__typename"].(string); ok {
					return typename, nil
				}
			}
			return "", fmt.Errorf("cannot resolve type")
		},
		serializer: func(typeName string, val any) (any, error) {
			return val, nil
		},
	}
	for k, v := range resolvers {
		m.resolvers[k] = v
	}
	return m
}

// SetResolver registers or updates a resolver for the given object type and field.
func (m *MockRuntime) SetResolver(objectType, field string, r MockResolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolvers[objectType+"."+field] = r
}

// SetTypeResolver overrides abstract type resolution.
func (m *MockRuntime) SetTypeResolver(f func(value any) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typeResolver = f
}

// SetSerializer overrides leaf serialization.
func (m *MockRuntime) SetSerializer(f func(typeName string, val any) (any, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serializer = f
}

// ResolveField implements Runtime.
func (m *MockRuntime) ResolveField(ctx context.Context, source any, args map[string]any, pos resolver.Position) (any, error) {
	key := pos.ParentType + "." + pos.Field

	m.mu.Lock()
	r := m.resolvers[key]
	m.calls = append(m.calls, Call{
		ObjectType: pos.ParentType,
		Field:      pos.Field,
		Source:     source,
		Args:       args,
	})
	m.mu.Unlock()

	if r != nil {
		return r(ctx, source, args)
	}
	if mv, ok := source.(map[string]any); ok {
		return mv[pos.Field], nil
	}
	return nil, nil
}

// ResolveType implements Runtime.
func (m *MockRuntime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	m.mu.Lock()
	f := m.typeResolver
	m.mu.Unlock()
	if f == nil {
		return "", fmt.Errorf("type resolver not configured")
	}
	return f(value)
}

// SerializeLeaf implements Runtime.
func (m *MockRuntime) SerializeLeaf(ctx context.Context, typeName string, value any) (any, error) {
	m.mu.Lock()
	f := m.serializer
	m.mu.Unlock()
	if f == nil {
		return value, nil
	}
	return f(typeName, value)
}

// GetCalls returns a copy of the recorded calls in order.
func (m *MockRuntime) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset clears recorded calls (resolvers remain).
func (m *MockRuntime) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
