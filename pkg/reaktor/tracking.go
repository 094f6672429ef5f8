package reaktor

import (
	"runtime"
	"sync"
)

// trackingContext holds the reactive state for a goroutine: the node that
// is currently being evaluated (top of the dependency stack), the batch
// nesting depth, and the observers whose notification has been deferred by
// an open batch.
type trackingContext struct {
	// currentReader is the node currently being evaluated. Signal reads
	// attribute themselves to it. nil means reads are untracked.
	currentReader reader

	// batchDepth tracks nested Batch() calls. While > 0, propagation
	// queues observer notifications instead of firing them.
	batchDepth int

	// pendingObservers accumulates observers to trigger when the
	// outermost batch exits. Deduplicated by ID before triggering.
	pendingObservers []*Observer
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine,
// parsed from the runtime stack header. Implementation detail; not exposed.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> ".
	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current
// goroutine, creating it on first use.
func getTrackingContext() *trackingContext {
	gid := getGoroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}

	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// cleanupGoroutineContext removes the tracking context for the current
// goroutine. Should be called when a goroutine is about to exit to
// prevent memory leaks. This is optional; contexts are lightweight and
// will be overwritten if the goroutine ID is reused.
func cleanupGoroutineContext() {
	trackingContexts.Delete(getGoroutineID())
}

// setCurrentReader sets the node that signal reads will be attributed to
// and returns the previous one so it can be restored. Callers must restore
// with defer so the stack discipline survives panics.
func setCurrentReader(r reader) reader {
	ctx := getTrackingContext()
	old := ctx.currentReader
	ctx.currentReader = r
	return old
}

// getCurrentReader returns the node currently being evaluated, or nil when
// no tracking is active.
func getCurrentReader() reader {
	return getTrackingContext().currentReader
}
