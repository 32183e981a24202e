package eventbus

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
)

// Handler processes events of type T.
type Handler[T any] func(context.Context, T)

// Bus dispatches events to subscribers by the event's concrete type.
// Publishing with no subscribers is free; the engine emits events
// unconditionally and sinks opt in.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]func(context.Context, any)
}

// New creates an empty Bus.
func New() *Bus { return &Bus{handlers: make(map[reflect.Type][]func(context.Context, any))} }

func (b *Bus) subscribe(t reflect.Type, h func(context.Context, any)) {
	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], h)
	b.mu.Unlock()
}

func (b *Bus) emit(ctx context.Context, e any) {
	t := reflect.TypeOf(e)
	var hs []func(context.Context, any)
	b.mu.RLock()
	hs = append(hs, b.handlers[t]...)
	b.mu.RUnlock()
	for _, h := range hs {
		h(ctx, e)
	}
}

var global atomic.Pointer[Bus]

// Use installs b as the process-wide bus. Passing nil disables publishing.
func Use(b *Bus) { global.Store(b) }

// Subscribe registers h with the process-wide bus for events of type T.
// It is a no-op when no bus is installed.
func Subscribe[T any](h Handler[T]) {
	b := global.Load()
	if b == nil {
		return
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.subscribe(t, func(ctx context.Context, v any) { h(ctx, v.(T)) })
}

// Publish sends e through the process-wide bus, if one is installed.
func Publish[T any](ctx context.Context, e T) {
	if b := global.Load(); b != nil {
		b.emit(ctx, e)
	}
}
