// Package reaktor provides a fine-grained reactive dataflow engine.
//
// Signals are observable value containers. Reading a signal inside a derived
// definition or an observer body automatically records a dependency edge;
// writing a signal settles every transitively dependent signal and then
// triggers the affected observers exactly once.
//
// # Core Types
//
// Signal[T] holds either a plain value or a derived definition:
//
//	a := NewSignal(1)
//	b := Define(func() int { return a.Get() + 1 })
//	a.Set(3)        // b now reads 4
//
// Observer is a self-re-executing side effect:
//
//	o, _ := NewObserver(func(args ...any) any {
//	    fmt.Println("count is", a.Get())
//	    return nil
//	})
//	o.Stop()
//
// Reactor wraps a map so that each property is tracked through its own
// internal signal, and ListReactor does the same for slices:
//
//	r := NewReactor(map[string]any{"foo": "bar"})
//	r.Set("foo", "baz") // observers reading r.Get("foo") retrigger once
//
// # Propagation
//
// A write settles the dependency graph breadth-first before any observer
// runs, so an observer never sees a graph where only some of its
// dependencies reflect the write. Errors raised by definitions or observer
// bodies during one write are collected; a single error is returned with
// its identity intact, several are bundled into a CompoundError.
//
// # Batching and Hiding
//
// Batch defers observer notification across multiple writes:
//
//	Batch(func() {
//	    first.Set("John")
//	    last.Set("Doe")
//	})  // dependents trigger once
//
// Hide (alias Unobserve) reads values without recording dependency edges.
//
// # Concurrency
//
// Propagation is fully synchronous. The tracking context is per-goroutine,
// and a given dependency graph must be mutated from a single goroutine;
// there is no locking around edge sets.
package reaktor
