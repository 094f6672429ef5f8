package reaktor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNilFunction is returned (or panicked from constructors) when a nil
// function is supplied where a definition or observer body is required.
var ErrNilFunction = errors.New("reaktor: function must not be nil")

// ErrIndexRange is returned by ListReactor mutators for out-of-bounds indices.
var ErrIndexRange = errors.New("reaktor: index out of range")

// LoopError reports an observer that was retriggered while it was still
// running its own body, usually because the body writes a signal it also
// reads. The offending write is rolled back on the root signal.
type LoopError struct {
	// ObserverID identifies the self-reentrant observer.
	ObserverID uint64
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("reaktor: observer %d triggered while already running", e.ObserverID)
}

// CompoundError bundles multiple errors collected during one propagation
// pass. Propagation never stops at the first broken branch; every error
// raised by a definition or observer body during the same write ends up
// here, in the order it was collected.
type CompoundError struct {
	Errors []error
}

func (e *CompoundError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return "reaktor: multiple errors during propagation: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the constituent errors for errors.Is and errors.As.
func (e *CompoundError) Unwrap() []error {
	return e.Errors
}

// mergeErrors folds an error list into a single result: nil for an empty
// list, the error itself (identity preserved) for one, a CompoundError for
// more.
func mergeErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &CompoundError{Errors: errs}
	}
}

// recoveredError converts a recovered panic value into an error, keeping
// the identity of values that already are errors.
func recoveredError(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("reaktor: panic during recompute: %v", p)
}

// hasLoopError reports whether err contains a LoopError anywhere in its tree.
func hasLoopError(err error) bool {
	var le *LoopError
	return errors.As(err, &le)
}
