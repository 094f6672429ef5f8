package reaktor

// ListReactor wraps a slice so that element reads and structural queries
// are dependency-tracked. Each accessed index gets its own internal
// signal; Len reads a length signal and Values reads a contents signal,
// so observers iterating the list retrigger on any mutation while
// single-element readers only retrigger when their element changes.
//
// Every mutating method is one logical write: an appended element touches
// the length, the contents, and possibly shifted element signals, yet an
// observer depending on several of them triggers exactly once per call.
type ListReactor struct {
	raw []any

	// elems holds one signal per accessed index.
	elems map[int]*core

	// length tracks len(raw).
	length *core

	// contents tracks the full (wrapped) element snapshot for Values.
	contents *core

	// cache maps accessed indices to their nested wrappers, validated
	// against the identity of the raw element on every wrap.
	cache map[int]any

	// writeback, when the list is itself nested inside a wrapper, keeps
	// the parent's raw reference pointing at the current slice after a
	// reallocating mutation.
	writeback func(old, next []any)
}

// NewListReactor wraps items. A nil slice becomes an empty one.
func NewListReactor(items []any) *ListReactor {
	if items == nil {
		items = []any{}
	}
	l := &ListReactor{
		raw:   items,
		elems: make(map[int]*core),
		cache: make(map[int]any),
	}
	l.length = newCore()
	l.length.def = func() any { return len(l.raw) }
	l.length.recompute()
	l.contents = newCore()
	l.contents.def = func() any { return l.snapshot() }
	l.contents.recompute()
	return l
}

func (l *ListReactor) elem(i int) *core {
	if c, ok := l.elems[i]; ok {
		return c
	}
	c := newCore()
	c.def = func() any {
		if i < 0 || i >= len(l.raw) {
			return nil
		}
		return l.wrapChild(i, l.raw[i])
	}
	c.recompute()
	l.elems[i] = c
	return c
}

// At reads the element at i through its signal, recording a dependency
// edge. Out-of-range reads return nil and still subscribe, so an observer
// watching a not-yet-appended index triggers once the index exists.
func (l *ListReactor) At(i int) any {
	v, err := l.elem(i).access()
	if err != nil {
		panic(err)
	}
	return v
}

// Len returns the current length, subscribing to the length signal only.
func (l *ListReactor) Len() int {
	v, err := l.length.access()
	if err != nil {
		panic(err)
	}
	return v.(int)
}

// Values returns a wrapped snapshot of all elements, subscribing to the
// contents signal: any mutation of the list retriggers Values readers.
func (l *ListReactor) Values() []any {
	v, err := l.contents.access()
	if err != nil {
		panic(err)
	}
	snap := v.([]any)
	out := make([]any, len(snap))
	copy(out, snap)
	return out
}

// SetAt replaces the element at i.
func (l *ListReactor) SetAt(i int, value any) error {
	if i < 0 || i >= len(l.raw) {
		return ErrIndexRange
	}
	prev := l.raw[i]
	l.raw[i] = value

	rollback := func() { l.raw[i] = prev }
	return settleCores(rollback, l.existingElem(i), l.contents)
}

// Append adds items to the end of the list.
func (l *ListReactor) Append(items ...any) error {
	if len(items) == 0 {
		return nil
	}
	old := l.raw
	l.replace(append(l.raw, items...))

	// Element signals may already exist for the new indices when a
	// reader watched past the end of the list.
	cores := []*core{l.length, l.contents}
	for i := len(old); i < len(l.raw); i++ {
		if c, ok := l.elems[i]; ok {
			cores = append(cores, c)
		}
	}

	rollback := func() { l.replace(old) }
	return settleCores(rollback, cores...)
}

// Insert places value at index i, shifting later elements up. i == Len()
// appends.
func (l *ListReactor) Insert(i int, value any) error {
	if i < 0 || i > len(l.raw) {
		return ErrIndexRange
	}
	old := l.raw
	next := make([]any, 0, len(old)+1)
	next = append(next, old[:i]...)
	next = append(next, value)
	next = append(next, old[i:]...)
	l.replace(next)

	rollback := func() { l.replace(old) }
	return settleCores(rollback, l.shiftedCores(i)...)
}

// RemoveAt deletes the element at index i, shifting later elements down.
func (l *ListReactor) RemoveAt(i int) error {
	if i < 0 || i >= len(l.raw) {
		return ErrIndexRange
	}
	old := l.raw
	next := make([]any, 0, len(old)-1)
	next = append(next, old[:i]...)
	next = append(next, old[i+1:]...)
	l.replace(next)

	rollback := func() { l.replace(old) }
	return settleCores(rollback, l.shiftedCores(i)...)
}

// Pop removes and returns the last element.
func (l *ListReactor) Pop() (any, error) {
	n := len(l.raw)
	if n == 0 {
		return nil, ErrIndexRange
	}
	last := l.raw[n-1]
	return last, l.RemoveAt(n - 1)
}

// Shuck returns the raw wrapped slice.
func (l *ListReactor) Shuck() []any {
	return l.raw
}

// replace swaps in a new backing slice and tells the owning wrapper, if
// any, so the parent's raw data keeps pointing at live storage.
func (l *ListReactor) replace(next []any) {
	old := l.raw
	l.raw = next
	if l.writeback != nil {
		l.writeback(old, next)
	}
}

// existingElem returns the signal for index i only if a reader created
// it; untouched indices have no dependents to notify.
func (l *ListReactor) existingElem(i int) *core {
	return l.elems[i]
}

// shiftedCores collects every signal affected by a structural change at
// index i: all accessed element signals from i on, the length, and the
// contents.
func (l *ListReactor) shiftedCores(i int) []*core {
	cores := make([]*core, 0, len(l.elems)+2)
	for idx, c := range l.elems {
		if idx >= i {
			cores = append(cores, c)
		}
	}
	cores = append(cores, l.length, l.contents)
	return cores
}

func (l *ListReactor) snapshot() []any {
	out := make([]any, len(l.raw))
	for i, v := range l.raw {
		out[i] = l.wrapChild(i, v)
	}
	return out
}

// wrapChild mirrors Reactor.wrapChild for list elements: the cache is
// keyed by index and validated against the raw element's identity, so a
// structural shift that moves a different object under the index yields
// a fresh wrapper.
func (l *ListReactor) wrapChild(i int, v any) any {
	switch t := v.(type) {
	case map[string]any:
		if w, ok := l.cache[i].(*Reactor); ok && sameMap(w.raw, t) {
			return w
		}
		w := NewReactor(t)
		if i >= 0 && i < len(l.raw) {
			l.raw[i] = w.raw
		}
		l.cache[i] = w
		return w
	case []any:
		if w, ok := l.cache[i].(*ListReactor); ok && sameSlice(w.raw, t) {
			return w
		}
		w := NewListReactor(t)
		w.writeback = func(_, next []any) {
			if i >= 0 && i < len(l.raw) {
				l.raw[i] = next
			}
		}
		if i >= 0 && i < len(l.raw) {
			l.raw[i] = w.raw
		}
		l.cache[i] = w
		return w
	}
	return v
}
