package reaktor

// reader is a node that can be attributed reads: a derived signal core
// while its definition runs, or an observer while its body runs. The graph
// is a closed set of the two; propagation type-switches on them.
type reader interface {
	// readerID returns the node's unique ID, used for edge deduplication.
	readerID() uint64

	// recordSource records a core this node read, so the matching
	// back-edge can be severed before the node re-runs.
	recordSource(c *core)
}

// dependentSet is an ordered, ID-deduplicated set of readers. Order is
// insertion order, which fixes the order observers fire in.
type dependentSet struct {
	items []reader
}

// add appends r unless a reader with the same ID is already present.
func (s *dependentSet) add(r reader) bool {
	id := r.readerID()
	for _, existing := range s.items {
		if existing.readerID() == id {
			return false
		}
	}
	s.items = append(s.items, r)
	return true
}

// remove deletes the reader with the given ID, preserving order.
func (s *dependentSet) remove(id uint64) {
	for i, existing := range s.items {
		if existing.readerID() == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// snapshot returns a copy of the set, so propagation can iterate while
// recomputing nodes rebuilds edges underneath it.
func (s *dependentSet) snapshot() []reader {
	out := make([]reader, len(s.items))
	copy(out, s.items)
	return out
}

func (s *dependentSet) empty() bool {
	return len(s.items) == 0
}
