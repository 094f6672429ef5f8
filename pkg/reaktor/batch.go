package reaktor

// Batch groups multiple signal writes into a single notification phase.
// Signal recomputation still happens eagerly at each write; only observer
// triggering is deferred, deduplicated, and flushed when the outermost
// batch exits. Batches nest transparently.
//
//	Batch(func() {
//	    first.Set("John")
//	    last.Set("Doe")
//	})
//	// observers depending on either trigger once, seeing both writes
//
// The returned error aggregates failures from the deferred triggers. A
// panic from fn still flushes and re-propagates; when the flush itself
// raises trigger errors they travel with the repanicked value as a
// CompoundError instead of being dropped.
func Batch(fn func()) (err error) {
	ctx := getTrackingContext()
	ctx.batchDepth++

	defer func() {
		ctx.batchDepth--
		if ctx.batchDepth != 0 {
			return
		}
		flushErr := flushPending(ctx)
		if p := recover(); p != nil {
			if flushErr != nil {
				panic(mergeErrors([]error{recoveredError(p), flushErr}))
			}
			panic(p)
		}
		err = flushErr
	}()

	fn()
	return nil
}

// flushPending deduplicates and triggers all observers deferred during the
// batch. Observers stopped while the batch was open are skipped.
func flushPending(ctx *trackingContext) error {
	pending := ctx.pendingObservers
	ctx.pendingObservers = nil
	if len(pending) == 0 {
		return nil
	}

	seen := make(map[uint64]struct{}, len(pending))
	var errs []error
	for _, o := range pending {
		if _, dup := seen[o.id]; dup {
			continue
		}
		seen[o.id] = struct{}{}
		if !o.running {
			continue
		}
		if err := o.trigger(); err != nil {
			errs = append(errs, err)
		}
	}
	return mergeErrors(errs)
}

// Hide runs fn with dependency tracking suppressed: reads inside still
// return settled values but record no edges back to the node currently
// being evaluated. The result passes through unchanged. Used to
// read-and-mutate the same data without self-triggering.
func Hide[T any](fn func() T) T {
	old := setCurrentReader(nil)
	defer setCurrentReader(old)
	return fn()
}

// Unobserve is Hide under its other conventional name.
func Unobserve[T any](fn func() T) T {
	return Hide(fn)
}

// Untracked is Hide for functions with no result.
func Untracked(fn func()) {
	old := setCurrentReader(nil)
	defer setCurrentReader(old)
	fn()
}
