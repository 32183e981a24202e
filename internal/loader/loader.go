package loader

import (
	"context"
	"fmt"
	"sort"
	"time"

	eventbus "github.com/graphload/graphload/internal/eventbus"
	events "github.com/graphload/graphload/internal/events"
)

// BatchFunc fetches all values for one deduplicated key set in a single call.
// The returned map is keyed by the input keys; keys absent from the map
// resolve to null. An error fails every key in the batch uniformly.
type BatchFunc func(ctx context.Context, keys []any) (map[any]any, error)

// Loader collects keyed load requests issued during a single execution walk
// and resolves them together, one batch-function call per group per round.
// Results are memoized per (group, key) for the lifetime of the walk, so the
// batch function never sees the same key twice.
//
// A Loader belongs to exactly one execution walk and is driven from a single
// goroutine: resolvers call Load while the walk expands, the coordinator
// calls Run between rounds. It is not safe for concurrent use.
type Loader struct {
	groups map[string]*group
}

type group struct {
	name    string
	fn      BatchFunc
	pending []any            // keys awaiting the next Run, insertion order
	slots   map[any]*Pending // memoized slots for the whole walk
	calls   int
}

// Pending is a result slot for one (group, key) pair. It is unfilled until a
// Run round covers its group.
type Pending struct {
	group string
	key   any
	done  bool
	value any
	err   error
}

// Done reports whether a batch round has filled this slot.
func (p *Pending) Done() bool { return p.done }

// Result returns the loaded value. Calling Result before the slot is filled
// is a coordinator bug and panics.
func (p *Pending) Result() (any, error) {
	if !p.done {
		panic(fmt.Sprintf("loader: result read before batch round for %s/%v", p.group, p.key))
	}
	return p.value, p.err
}

func New() *Loader {
	return &Loader{groups: map[string]*group{}}
}

// Register installs the batch function for a group. Registering the same
// group twice replaces the function but keeps memoized slots.
func (l *Loader) Register(name string, fn BatchFunc) {
	if g, ok := l.groups[name]; ok {
		g.fn = fn
		return
	}
	l.groups[name] = &group{name: name, fn: fn, slots: map[any]*Pending{}}
}

// Load registers key under the named group and returns its result slot.
// Repeated loads of the same (group, key) pair within the walk return the
// same slot without re-enqueueing the key. The group must have been
// registered; loading from an unknown group is a programming error.
func (l *Loader) Load(name string, key any) *Pending {
	g, ok := l.groups[name]
	if !ok {
		panic(fmt.Sprintf("loader: load from unregistered group %q", name))
	}
	if slot, ok := g.slots[key]; ok {
		return slot
	}
	slot := &Pending{group: name, key: key}
	g.slots[key] = slot
	g.pending = append(g.pending, key)
	return slot
}

// PendingCount reports how many keys across all groups await the next Run.
func (l *Loader) PendingCount() int {
	n := 0
	for _, g := range l.groups {
		n += len(g.pending)
	}
	return n
}

// Run executes one batch round: every group with pending keys has its batch
// function invoked exactly once with the full deduplicated key set collected
// since the previous round. Slots are filled from the returned map; keys the
// batch function did not answer resolve to null. A batch-function error
// fails every slot pending in that group with the same error.
//
// Run may be called repeatedly; resolutions resumed by one round can enqueue
// keys for the next.
func (l *Loader) Run(ctx context.Context) {
	names := make([]string, 0, len(l.groups))
	for name, g := range l.groups {
		if len(g.pending) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		g := l.groups[name]
		keys := g.pending
		g.pending = nil
		g.calls++

		start := time.Now()
		values, err := g.fn(ctx, keys)
		eventbus.Publish(ctx, events.BatchRound{
			Group:    name,
			KeyCount: len(keys),
			Err:      err,
			Duration: time.Since(start),
		})

		for _, key := range keys {
			slot := g.slots[key]
			slot.done = true
			if err != nil {
				slot.err = err
				continue
			}
			slot.value = values[key]
		}
	}
}

// Calls reports how many batch rounds have run for the named group. Used by
// tests and instrumentation.
func (l *Loader) Calls(name string) int {
	if g, ok := l.groups[name]; ok {
		return g.calls
	}
	return 0
}
