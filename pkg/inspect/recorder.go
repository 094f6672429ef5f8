// Package inspect provides a live HTTP inspector for a dependency graph.
// A Recorder hook mirrors the graph's nodes and edges as they change; the
// Server exposes the mirror as a JSON snapshot, a websocket event stream,
// and a Prometheus scrape endpoint.
package inspect

import (
	"sort"
	"sync"
	"time"

	"github.com/reaktor-dev/reaktor/pkg/reaktor"
)

// Event types emitted on the stream.
const (
	EventNodeCreated = "node_created"
	EventEdgeAdded   = "edge_added"
	EventEdgeRemoved = "edge_removed"
	EventPropagation = "propagation"
	EventTrigger     = "trigger"
)

// Event is one graph change or engine activity record.
type Event struct {
	Time time.Time `json:"time"`
	Type string    `json:"type"`

	NodeID uint64 `json:"node_id,omitempty"`
	Kind   string `json:"kind,omitempty"`

	ReaderID uint64 `json:"reader_id,omitempty"`
	SourceID uint64 `json:"source_id,omitempty"`

	Signals    int     `json:"signals,omitempty"`
	Observers  int     `json:"observers,omitempty"`
	DurationMs float64 `json:"duration_ms,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Node is one graph node in a snapshot.
type Node struct {
	ID        uint64    `json:"id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Edge is one dependency edge in a snapshot: the reader depends on the
// source.
type Edge struct {
	ReaderID uint64 `json:"reader_id"`
	SourceID uint64 `json:"source_id"`
}

// Snapshot is the current graph state plus the recent event history.
type Snapshot struct {
	Time   time.Time `json:"time"`
	Nodes  []Node    `json:"nodes"`
	Edges  []Edge    `json:"edges"`
	Events []Event   `json:"events"`
}

// Recorder is a reaktor.Hook that mirrors the live graph. It is safe to
// read from other goroutines while the engine goroutine mutates the
// graph, which is what lets an HTTP server serve snapshots of a running
// system.
type Recorder struct {
	mu    sync.RWMutex
	nodes map[uint64]Node
	edges map[Edge]struct{}

	// fixed-size ring of recent events
	events     []Event
	eventIndex int
	eventCount int

	// sink receives every event, set by the Server for broadcasting.
	sink func(Event)
}

// NewRecorder creates a recorder keeping the given number of recent
// events. A non-positive size defaults to 256.
func NewRecorder(eventBuffer int) *Recorder {
	if eventBuffer <= 0 {
		eventBuffer = 256
	}
	return &Recorder{
		nodes:  make(map[uint64]Node),
		edges:  make(map[Edge]struct{}),
		events: make([]Event, eventBuffer),
	}
}

func (r *Recorder) record(e Event) {
	e.Time = time.Now()

	r.mu.Lock()
	r.events[r.eventIndex] = e
	r.eventIndex = (r.eventIndex + 1) % len(r.events)
	if r.eventCount < len(r.events) {
		r.eventCount++
	}
	sink := r.sink
	r.mu.Unlock()

	if sink != nil {
		sink(e)
	}
}

func (r *Recorder) setSink(fn func(Event)) {
	r.mu.Lock()
	r.sink = fn
	r.mu.Unlock()
}

// NodeCreated implements reaktor.Hook.
func (r *Recorder) NodeCreated(info reaktor.NodeInfo) {
	r.mu.Lock()
	r.nodes[info.ID] = Node{ID: info.ID, Kind: string(info.Kind), CreatedAt: time.Now()}
	r.mu.Unlock()

	r.record(Event{Type: EventNodeCreated, NodeID: info.ID, Kind: string(info.Kind)})
}

// EdgeAdded implements reaktor.Hook.
func (r *Recorder) EdgeAdded(readerID, sourceID uint64) {
	r.mu.Lock()
	r.edges[Edge{ReaderID: readerID, SourceID: sourceID}] = struct{}{}
	r.mu.Unlock()

	r.record(Event{Type: EventEdgeAdded, ReaderID: readerID, SourceID: sourceID})
}

// EdgeRemoved implements reaktor.Hook.
func (r *Recorder) EdgeRemoved(readerID, sourceID uint64) {
	r.mu.Lock()
	delete(r.edges, Edge{ReaderID: readerID, SourceID: sourceID})
	r.mu.Unlock()

	r.record(Event{Type: EventEdgeRemoved, ReaderID: readerID, SourceID: sourceID})
}

// PropagationStarted implements reaktor.Hook.
func (r *Recorder) PropagationStarted(rootID uint64) {}

// PropagationDone implements reaktor.Hook.
func (r *Recorder) PropagationDone(stats reaktor.PropagationStats) {
	e := Event{
		Type:       EventPropagation,
		NodeID:     stats.RootID,
		Signals:    stats.Signals,
		Observers:  stats.Observers,
		DurationMs: float64(stats.Duration) / float64(time.Millisecond),
	}
	if stats.Err != nil {
		e.Error = stats.Err.Error()
	}
	r.record(e)
}

// ObserverTriggered implements reaktor.Hook.
func (r *Recorder) ObserverTriggered(stats reaktor.TriggerStats) {
	e := Event{
		Type:       EventTrigger,
		NodeID:     stats.ObserverID,
		DurationMs: float64(stats.Duration) / float64(time.Millisecond),
	}
	if stats.Err != nil {
		e.Error = stats.Err.Error()
	}
	r.record(e)
}

// Snapshot returns the current graph state. Nodes and edges come out in
// a stable order so consecutive snapshots diff cleanly.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		Time:  time.Now(),
		Nodes: make([]Node, 0, len(r.nodes)),
		Edges: make([]Edge, 0, len(r.edges)),
	}

	for _, n := range r.nodes {
		snap.Nodes = append(snap.Nodes, n)
	}
	sort.Slice(snap.Nodes, func(i, j int) bool { return snap.Nodes[i].ID < snap.Nodes[j].ID })

	for e := range r.edges {
		snap.Edges = append(snap.Edges, e)
	}
	sort.Slice(snap.Edges, func(i, j int) bool {
		if snap.Edges[i].ReaderID != snap.Edges[j].ReaderID {
			return snap.Edges[i].ReaderID < snap.Edges[j].ReaderID
		}
		return snap.Edges[i].SourceID < snap.Edges[j].SourceID
	})

	// Oldest first.
	snap.Events = make([]Event, 0, r.eventCount)
	start := r.eventIndex - r.eventCount
	if start < 0 {
		start += len(r.events)
	}
	for i := 0; i < r.eventCount; i++ {
		snap.Events = append(snap.Events, r.events[(start+i)%len(r.events)])
	}

	return snap
}
