package reaktor

import (
	"reflect"
	"sort"
)

// Reactor wraps a plain map so that every property is read and written
// through its own internal signal. Direct mutation through Set and Delete
// becomes observable, and structural queries (Has, Keys) subscribe to a
// dedicated shape signal so key-set changes retrigger shape readers
// without disturbing value-only readers.
//
// Nested maps and slices read out of a Reactor come back wrapped, with
// referential stability: reading the same nested object twice yields the
// identical wrapper, so dependency edges never fragment across duplicate
// wrappers.
type Reactor struct {
	raw map[string]any

	// props holds one signal per accessed property key. At most one
	// signal ever exists per key for the lifetime of the Reactor.
	props map[string]*core

	// shape tracks the key set. Has and Keys read through it.
	shape *core

	// cache maps accessed keys to their nested wrappers, validated
	// against the identity of the raw value on every wrap.
	cache map[string]any
}

// NewReactor wraps target. A nil target becomes an empty map. The wrapper
// aliases the map; mutations must go through the Reactor to be observable.
func NewReactor(target map[string]any) *Reactor {
	if target == nil {
		target = make(map[string]any)
	}
	r := &Reactor{
		raw:   target,
		props: make(map[string]*core),
		cache: make(map[string]any),
	}
	r.shape = newCore()
	r.shape.def = func() any { return r.keySnapshot() }
	r.shape.recompute()
	return r
}

// prop returns the property signal for key, creating it lazily. The
// definition re-reads the raw map, so forcing a recompute after a raw
// mutation settles the property to its post-mutation value.
func (r *Reactor) prop(key string) *core {
	if c, ok := r.props[key]; ok {
		return c
	}
	c := newCore()
	c.def = func() any { return r.wrapChild(key, r.raw[key]) }
	c.recompute()
	r.props[key] = c
	return c
}

// Get reads a property through its signal, recording a dependency edge
// for the node currently being evaluated. Nested maps and slices come
// back wrapped.
func (r *Reactor) Get(key string) any {
	v, err := r.prop(key).access()
	if err != nil {
		panic(err)
	}
	return v
}

// Set writes a property on the raw map and propagates through the
// property signal. Adding a new key also propagates the shape signal; the
// two run as one logical write, so observers depending on both trigger
// once.
func (r *Reactor) Set(key string, value any) error {
	prev, existed := r.raw[key]
	r.raw[key] = value

	rollback := func() {
		if existed {
			r.raw[key] = prev
		} else {
			delete(r.raw, key)
		}
	}
	if existed {
		return settleCores(rollback, r.prop(key))
	}
	return settleCores(rollback, r.prop(key), r.shape)
}

// Delete removes a property and propagates both the property signal
// (which settles to nil) and the shape signal as one logical write.
// Deleting an absent key is a no-op.
func (r *Reactor) Delete(key string) error {
	prev, existed := r.raw[key]
	if !existed {
		return nil
	}
	delete(r.raw, key)

	rollback := func() { r.raw[key] = prev }
	return settleCores(rollback, r.prop(key), r.shape)
}

// Has reports whether key exists, subscribing the current reader to the
// shape signal: shape readers retrigger when keys come and go, not when
// values change.
func (r *Reactor) Has(key string) bool {
	if _, err := r.shape.access(); err != nil {
		panic(err)
	}
	_, ok := r.raw[key]
	return ok
}

// Keys returns the current key set, subscribing to the shape signal.
func (r *Reactor) Keys() []string {
	v, err := r.shape.access()
	if err != nil {
		panic(err)
	}
	keys := v.([]string)
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Len returns the number of keys, subscribing to the shape signal.
func (r *Reactor) Len() int {
	v, err := r.shape.access()
	if err != nil {
		panic(err)
	}
	return len(v.([]string))
}

// Shuck returns the raw wrapped map. Needed when callers must hand the
// underlying data to code that cannot work through the wrapper.
func (r *Reactor) Shuck() map[string]any {
	return r.raw
}

func (r *Reactor) keySnapshot() []string {
	keys := make([]string, 0, len(r.raw))
	for k := range r.raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// wrapChild wraps nested maps and slices. The cache is keyed by the key
// the child was read through; a cached wrapper is reused only while it
// still wraps the same raw object, so replacing a child yields a fresh
// wrapper. A wrapper is owned by the key it was read through: the same
// raw slice stored under two keys gives each key its own wrapper, and a
// reallocating mutation through one does not follow the other.
func (r *Reactor) wrapChild(key string, v any) any {
	switch t := v.(type) {
	case map[string]any:
		if w, ok := r.cache[key].(*Reactor); ok && sameMap(w.raw, t) {
			return w
		}
		w := NewReactor(t)
		// Normalize nil children so the next read sees the same map.
		r.raw[key] = w.raw
		r.cache[key] = w
		return w
	case []any:
		if w, ok := r.cache[key].(*ListReactor); ok && sameSlice(w.raw, t) {
			return w
		}
		w := NewListReactor(t)
		w.writeback = func(_, next []any) {
			r.raw[key] = next
		}
		r.raw[key] = w.raw
		r.cache[key] = w
		return w
	}
	return v
}

// Shuck unwraps a Reactor or ListReactor back to its raw object and
// passes anything else through unchanged.
func Shuck(v any) any {
	switch t := v.(type) {
	case *Reactor:
		return t.raw
	case *ListReactor:
		return t.raw
	}
	return v
}

// settleCores propagates each core as part of one logical write: the
// writes share a batch, so an observer depending on several of the cores
// triggers once with all of them settled. When the aggregated error
// contains a LoopError the caller's raw mutation is rolled back, and the
// cores are recomputed so their settled values re-derive from the
// restored raw state instead of keeping the discarded write.
func settleCores(rollback func(), cores ...*core) error {
	var errs []error
	if berr := Batch(func() {
		for _, c := range cores {
			if c == nil {
				continue
			}
			if err := propagate(c); err != nil {
				errs = append(errs, err)
			}
		}
	}); berr != nil {
		errs = append(errs, berr)
	}

	err := mergeErrors(errs)
	if err != nil && rollback != nil && hasLoopError(err) {
		rollback()
		for _, c := range cores {
			if c != nil {
				c.recompute()
			}
		}
	}
	return err
}

func slicePtr(s []any) uintptr {
	return reflect.ValueOf(s).Pointer()
}

// sameMap reports whether two maps are the same underlying object.
func sameMap(a, b map[string]any) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// sameSlice reports whether two slices view the same underlying storage.
// Zero-length slices can share the runtime's zero-size base, so length is
// part of the identity.
func sameSlice(a, b []any) bool {
	return len(a) == len(b) && slicePtr(a) == slicePtr(b)
}
