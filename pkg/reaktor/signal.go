package reaktor

// Signal is a reactive value container. It holds either a plain value or a
// derived definition; reading it during a tracked evaluation (a derived
// definition or an observer body) records a dependency edge, and writing
// it settles every transitively dependent signal before the affected
// observers fire.
type Signal[T any] struct {
	c *core

	// equal, when set, suppresses propagation for value writes that
	// compare equal to the current value. Off by default: a write always
	// propagates.
	equal func(T, T) bool
}

// NewSignal creates a signal holding a plain value.
func NewSignal[T any](initial T) *Signal[T] {
	c := newCore()
	c.value = initial
	return &Signal[T]{c: c}
}

// Define creates a derived signal. The definition runs immediately under
// tracking, so the signal's dependency edges exist from construction; a
// failure is stored and surfaces on the first read. Define panics with
// ErrNilFunction when fn is nil.
func Define[T any](fn func() T) *Signal[T] {
	if fn == nil {
		panic(ErrNilFunction)
	}
	c := newCore()
	c.def = func() any { return fn() }
	c.recompute()
	return &Signal[T]{c: c}
}

// Get returns the current value and records a dependency edge for the
// node currently being evaluated. If the signal's last recompute failed,
// Get panics with that error so corruption surfaces at the reader instead
// of flowing downstream; inside definitions and observer bodies the panic
// is recovered by the engine and aggregated. Use TryGet for a
// non-panicking read.
func (s *Signal[T]) Get() T {
	v, err := s.c.access()
	if err != nil {
		panic(err)
	}
	t, _ := v.(T)
	return t
}

// TryGet is Get with the failure of the last recompute returned instead
// of panicked. It still records the dependency edge.
func (s *Signal[T]) TryGet() (T, error) {
	v, err := s.c.access()
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// Peek returns the last settled value without recording a dependency edge.
func (s *Signal[T]) Peek() T {
	t, _ := s.c.value.(T)
	return t
}

// Set writes a plain value and runs propagation to completion. The
// returned error aggregates every failure raised while the graph settled
// and observers fired; nil means the write fully propagated.
func (s *Signal[T]) Set(value T) error {
	if s.equal != nil && s.c.def == nil && s.c.err == nil {
		if cur, ok := s.c.value.(T); ok && s.equal(cur, value) {
			return nil
		}
	}
	return s.c.write(value, nil)
}

// SetFunc replaces the signal's contents with a derived definition and
// propagates. The definition is recomputed as the root of the walk.
func (s *Signal[T]) SetFunc(fn func() T) error {
	if fn == nil {
		return ErrNilFunction
	}
	return s.c.write(nil, func() any { return fn() })
}

// Update writes fn(current value). The read does not record an edge.
func (s *Signal[T]) Update(fn func(T) T) error {
	return s.Set(fn(s.Peek()))
}

// WithEquals configures an equality cut-off: value writes that compare
// equal to the current value are dropped without propagating. The default
// (no cut-off) matches assignment semantics, where every write propagates.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the unique identifier of this signal's graph node.
func (s *Signal[T]) ID() uint64 {
	return s.c.id
}
