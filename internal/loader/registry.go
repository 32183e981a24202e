package loader

// Registry holds the batch functions an application registers at startup.
// It is immutable after wiring and shared across requests; each execution
// walk gets its own Loader with fresh pending and memoization tables.
type Registry struct {
	fns map[string]BatchFunc
}

func NewRegistry() *Registry {
	return &Registry{fns: map[string]BatchFunc{}}
}

// Register installs the batch function for a group.
func (r *Registry) Register(name string, fn BatchFunc) {
	r.fns[name] = fn
}

// NewLoader creates a fresh per-walk Loader with every registered group.
func (r *Registry) NewLoader() *Loader {
	l := New()
	for name, fn := range r.fns {
		l.Register(name, fn)
	}
	return l
}
