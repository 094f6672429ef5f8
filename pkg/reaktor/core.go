package reaktor

// core is the type-erased signal node. Signal[T], observer result values,
// and Reactor property signals are all cores underneath; the propagation
// engine only ever sees cores.
type core struct {
	id uint64

	// def recomputes the value when set. nil means value is a plain
	// stored literal.
	def func() any

	// value is the current value: the stored literal or the last
	// successful result of def.
	value any

	// err is the failure of the last recompute, nil when it succeeded.
	// Reads surface it instead of handing out a stale value.
	err error

	// sources are the cores this node read during its last recompute.
	sources []*core

	// deps are the readers that last read this core.
	deps dependentSet
}

func newCore() *core {
	c := &core{id: nextID()}
	hookNodeCreated(NodeInfo{ID: c.id, Kind: KindSignal})
	return c
}

func (c *core) readerID() uint64 { return c.id }

// recordSource registers an outgoing edge, deduplicated by identity.
func (c *core) recordSource(s *core) {
	for _, existing := range c.sources {
		if existing == s {
			return
		}
	}
	c.sources = append(c.sources, s)
}

// clearSources severs all outgoing edges and their back-edges.
func (c *core) clearSources() {
	for _, s := range c.sources {
		s.deps.remove(c.id)
		hookEdgeRemoved(c.id, s.id)
	}
	c.sources = c.sources[:0]
}

// track registers the bidirectional edge between this core and the node
// currently being evaluated, if any. Self-edges are never recorded.
func (c *core) track() {
	r := getCurrentReader()
	if r == nil || r.readerID() == c.id {
		return
	}
	if c.deps.add(r) {
		hookEdgeAdded(r.readerID(), c.id)
	}
	r.recordSource(c)
}

// access is the read protocol: record the dependency edge, then return the
// value, or the last recompute failure if there was one.
func (c *core) access() (any, error) {
	c.track()
	if c.err != nil {
		return nil, c.err
	}
	return c.value, nil
}

// recompute re-evaluates the node: sever old outgoing edges, then re-run
// the definition with this core as the current reader. A panic from the
// definition is recorded as the node's error, never rethrown, so one
// broken branch cannot stop the rest of the graph from settling. Plain
// value cores are already settled; recompute only clears a stale error.
func (c *core) recompute() error {
	c.clearSources()
	if c.def == nil {
		c.err = nil
		return nil
	}

	var err error
	func() {
		prev := setCurrentReader(c)
		defer func() {
			setCurrentReader(prev)
			if p := recover(); p != nil {
				err = recoveredError(p)
			}
		}()
		c.value = c.def()
	}()

	c.err = err
	return err
}

// write is the write protocol: replace the contents, then settle the graph
// rooted here. When propagation detects observer self-reentrancy the write
// is rolled back, leaving the value as it was before the offending write.
func (c *core) write(value any, def func() any) error {
	prevValue, prevDef, prevErr := c.value, c.def, c.err
	c.def = def
	if def == nil {
		c.value = value
		c.err = nil
	}

	err := propagate(c)
	if err != nil && hasLoopError(err) {
		c.value, c.def, c.err = prevValue, prevDef, prevErr
	}
	return err
}
