package loader

import "context"

type ctxKey struct{}

// NewContext returns a copy of parent carrying the walk's Loader. The
// executor installs it once per request; resolvers pick it up via
// FromContext to issue loads.
func NewContext(parent context.Context, l *Loader) context.Context {
	return context.WithValue(parent, ctxKey{}, l)
}

// FromContext extracts the walk's Loader from ctx.
func FromContext(ctx context.Context) (*Loader, bool) {
	l, ok := ctx.Value(ctxKey{}).(*Loader)
	return l, ok
}
