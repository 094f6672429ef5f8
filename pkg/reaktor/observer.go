package reaktor

import "time"

// Observer is a leaf node of the dependency graph: a side-effecting body
// that re-executes whenever a signal it read during its last run changes.
// Observers are created running and trigger once at construction.
//
// The body's return value is itself observable through Value(), so
// observers compose like derived signals.
type Observer struct {
	id uint64

	// fn is the body. Replaceable via SetBody.
	fn func(args ...any) any

	// args are the remembered arguments, updated by Call.
	args []any

	// sources are the cores read during the last run.
	sources []*core

	// result holds the body's last return value for chaining.
	result *core

	running    bool
	triggering bool
}

// NewObserver creates an observer and triggers it once. The observer is
// returned even when the initial run fails; the failure is the returned
// error. A nil body yields ErrNilFunction.
func NewObserver(fn func(args ...any) any) (*Observer, error) {
	if fn == nil {
		return nil, ErrNilFunction
	}
	o := &Observer{
		id:      nextID(),
		fn:      fn,
		result:  newCore(),
		running: true,
	}
	hookNodeCreated(NodeInfo{ID: o.id, Kind: KindObserver})
	return o, o.trigger()
}

func (o *Observer) readerID() uint64 { return o.id }

// recordSource registers an outgoing edge, deduplicated by identity.
func (o *Observer) recordSource(c *core) {
	for _, existing := range o.sources {
		if existing == c {
			return
		}
	}
	o.sources = append(o.sources, c)
}

func (o *Observer) clearSources() {
	for _, c := range o.sources {
		c.deps.remove(o.id)
		hookEdgeRemoved(o.id, c.id)
	}
	o.sources = o.sources[:0]
}

// trigger re-executes the body. Re-entrant triggering of an observer that
// is still mid-run is a programming error and fails with a LoopError
// rather than looping. Old dependency edges are severed before the run so
// only the branches actually taken this time contribute edges.
func (o *Observer) trigger() error {
	if o.triggering {
		return &LoopError{ObserverID: o.id}
	}
	o.clearSources()

	start := time.Now()
	ret, err := o.runBody()
	hookObserverTriggered(TriggerStats{
		ObserverID: o.id,
		Duration:   time.Since(start),
		Err:        err,
	})
	if err != nil {
		return err
	}

	// Publish the return value for chaining. Skipping propagation when
	// nothing reads it keeps side-effect-only observers cheap.
	if o.result.deps.empty() {
		o.result.value = ret
		o.result.err = nil
		return nil
	}
	return o.result.write(ret, nil)
}

// runBody executes fn with this observer as the current reader. The
// reader and the triggering flag are restored on every exit path,
// including panics, which are returned as errors.
func (o *Observer) runBody() (ret any, err error) {
	o.triggering = true
	prev := setCurrentReader(o)
	defer func() {
		setCurrentReader(prev)
		o.triggering = false
		if p := recover(); p != nil {
			err = recoveredError(p)
		}
	}()
	ret = o.fn(o.args...)
	return ret, nil
}

// Start resumes a stopped observer and triggers it once. Starting a
// running observer is a no-op, so repeated calls cannot duplicate the
// initial execution.
func (o *Observer) Start() error {
	if o.running {
		return nil
	}
	o.running = true
	return o.trigger()
}

// Stop halts the observer and severs all dependency edges, so it receives
// no further notifications. It does not prevent Call.
func (o *Observer) Stop() {
	o.running = false
	o.clearSources()
}

// Call invokes the observer directly with new arguments: the arguments
// are remembered for future triggers, the observer is started if stopped,
// and the body runs immediately. It returns the body's return value.
func (o *Observer) Call(args ...any) (any, error) {
	o.args = args
	o.running = true
	err := o.trigger()
	return o.result.value, err
}

// SetBody replaces the observer's body, clears its dependencies, and
// retriggers with the remembered arguments. The observer is started if it
// was stopped, since the new body re-establishes edges.
func (o *Observer) SetBody(fn func(args ...any) any) error {
	if fn == nil {
		return ErrNilFunction
	}
	o.fn = fn
	o.running = true
	return o.trigger()
}

// Value returns the body's last return value, recording a dependency edge
// like any signal read. Reading it inside another observer's body chains
// the two.
func (o *Observer) Value() any {
	v, err := o.result.access()
	if err != nil {
		panic(err)
	}
	return v
}

// Running reports whether the observer is receiving notifications.
func (o *Observer) Running() bool {
	return o.running
}

// ID returns the unique identifier of this observer's graph node.
func (o *Observer) ID() uint64 {
	return o.id
}
