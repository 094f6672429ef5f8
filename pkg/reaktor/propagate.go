package reaktor

import "time"

// propagate settles the graph rooted at a written core, then notifies the
// affected observers.
//
// Phase one walks the signal layer breadth-first: each visited core is
// recomputed (rebuilding its edges) and its signal dependents are queued
// exactly once. Observer dependents are collected into an ordered set but
// not run. Phase two, after the queue drains, triggers each collected
// observer at most once — or defers it to the enclosing batch. The split
// is what makes observer-visible state atomic: no observer runs while any
// of its dependencies is still stale.
//
// Errors from recomputes and triggers are collected, never shortcut the
// walk, and fold into the returned error (single error verbatim, several
// as a CompoundError).
func propagate(root *core) error {
	ctx := getTrackingContext()
	start := time.Now()
	hookPropagationStarted(root.id)

	queue := []*core{root}
	visited := map[uint64]struct{}{root.id: {}}
	var observers []*Observer
	collected := make(map[uint64]struct{})
	var errs []error
	settled := 0

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		settled++

		if err := c.recompute(); err != nil {
			errs = append(errs, err)
		}

		for _, d := range c.deps.snapshot() {
			switch n := d.(type) {
			case *core:
				if _, ok := visited[n.id]; !ok {
					visited[n.id] = struct{}{}
					queue = append(queue, n)
				}
			case *Observer:
				if _, ok := collected[n.id]; !ok {
					collected[n.id] = struct{}{}
					observers = append(observers, n)
				}
			}
		}
	}

	if ctx.batchDepth > 0 {
		ctx.pendingObservers = append(ctx.pendingObservers, observers...)
	} else {
		for _, o := range observers {
			if !o.running {
				continue
			}
			if err := o.trigger(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	err := mergeErrors(errs)
	hookPropagationDone(PropagationStats{
		RootID:    root.id,
		Signals:   settled,
		Observers: len(observers),
		Duration:  time.Since(start),
		Err:       err,
	})
	return err
}
