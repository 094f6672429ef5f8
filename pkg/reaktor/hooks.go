package reaktor

import "time"

// NodeKind discriminates graph nodes in instrumentation events.
type NodeKind string

const (
	KindSignal   NodeKind = "signal"
	KindObserver NodeKind = "observer"
)

// NodeInfo describes a newly created graph node.
type NodeInfo struct {
	ID   uint64
	Kind NodeKind
}

// PropagationStats summarizes one settle-then-notify pass.
type PropagationStats struct {
	// RootID is the written signal the pass started from.
	RootID uint64

	// Signals is the number of signal nodes recomputed.
	Signals int

	// Observers is the number of observers collected for notification,
	// including ones deferred to an open batch.
	Observers int

	Duration time.Duration

	// Err is the aggregated propagation error, nil on success.
	Err error
}

// TriggerStats summarizes one observer body execution.
type TriggerStats struct {
	ObserverID uint64
	Duration   time.Duration
	Err        error
}

// Hook observes engine activity. Implementations must be fast and must not
// write signals; they run synchronously inside propagation. Embed BaseHook
// to implement only the methods of interest.
type Hook interface {
	NodeCreated(NodeInfo)
	EdgeAdded(readerID, sourceID uint64)
	EdgeRemoved(readerID, sourceID uint64)
	PropagationStarted(rootID uint64)
	PropagationDone(PropagationStats)
	ObserverTriggered(TriggerStats)
}

// BaseHook is a no-op Hook for embedding.
type BaseHook struct{}

func (BaseHook) NodeCreated(NodeInfo)                  {}
func (BaseHook) EdgeAdded(readerID, sourceID uint64)   {}
func (BaseHook) EdgeRemoved(readerID, sourceID uint64) {}
func (BaseHook) PropagationStarted(rootID uint64)      {}
func (BaseHook) PropagationDone(PropagationStats)      {}
func (BaseHook) ObserverTriggered(TriggerStats)        {}

// hooks is the registered hook list. Registration is expected at program
// startup, before the graph is active.
var hooks []Hook

// RegisterHook adds a hook observing all engine activity.
func RegisterHook(h Hook) {
	if h == nil {
		return
	}
	hooks = append(hooks, h)
}

// ResetHooks removes all registered hooks. Intended for tests.
func ResetHooks() {
	hooks = nil
}

func hookNodeCreated(info NodeInfo) {
	for _, h := range hooks {
		h.NodeCreated(info)
	}
}

func hookEdgeAdded(readerID, sourceID uint64) {
	for _, h := range hooks {
		h.EdgeAdded(readerID, sourceID)
	}
}

func hookEdgeRemoved(readerID, sourceID uint64) {
	for _, h := range hooks {
		h.EdgeRemoved(readerID, sourceID)
	}
}

func hookPropagationStarted(rootID uint64) {
	for _, h := range hooks {
		h.PropagationStarted(rootID)
	}
}

func hookPropagationDone(stats PropagationStats) {
	for _, h := range hooks {
		h.PropagationDone(stats)
	}
}

func hookObserverTriggered(stats TriggerStats) {
	for _, h := range hooks {
		h.ObserverTriggered(stats)
	}
}
