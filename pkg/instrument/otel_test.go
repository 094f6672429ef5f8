package instrument

import (
	"context"
	"errors"
	"testing"

	"github.com/reaktor-dev/reaktor/pkg/reaktor"
)

// The global tracer provider defaults to a no-op, so these tests exercise
// the hook's span stack discipline rather than exported span contents.

func TestOTelHook_BalancesSpanStack(t *testing.T) {
	hook := OpenTelemetry(WithTracerName("test"), WithContext(context.Background()))
	reaktor.RegisterHook(hook)
	defer reaktor.ResetHooks()

	a := reaktor.NewSignal(1)
	b := reaktor.Define(func() int { return a.Get() + 1 })

	if _, err := reaktor.NewObserver(func(args ...any) any {
		return b.Get()
	}); err != nil {
		t.Fatalf("NewObserver: %v", err)
	}

	if err := a.Set(2); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(hook.spans) != 0 || len(hook.ctxs) != 0 {
		t.Fatalf("span stack not drained: %d spans, %d ctxs", len(hook.spans), len(hook.ctxs))
	}
}

func TestOTelHook_NestedPropagationsUnwind(t *testing.T) {
	hook := OpenTelemetry()
	reaktor.RegisterHook(hook)
	defer reaktor.ResetHooks()

	a := reaktor.NewSignal(1)
	mirror := reaktor.NewSignal(0)

	// Writing from inside an observer body nests a propagation within the
	// one currently notifying.
	if _, err := reaktor.NewObserver(func(args ...any) any {
		v := a.Get()
		if err := mirror.Set(v); err != nil {
			t.Fatalf("mirror.Set: %v", err)
		}
		return nil
	}); err != nil {
		t.Fatalf("NewObserver: %v", err)
	}

	if err := a.Set(7); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := mirror.Peek(); got != 7 {
		t.Fatalf("mirror=%v, want 7", got)
	}
	if len(hook.spans) != 0 {
		t.Fatalf("span stack not drained: %d spans", len(hook.spans))
	}
}

func TestOTelHook_ErrorPropagationUnwinds(t *testing.T) {
	hook := OpenTelemetry()
	reaktor.RegisterHook(hook)
	defer reaktor.ResetHooks()

	a := reaktor.NewSignal(1)
	boom := errors.New("boom")
	if _, err := reaktor.NewObserver(func(args ...any) any {
		_ = a.Get()
		panic(boom)
	}); !errors.Is(err, boom) {
		t.Fatalf("NewObserver error = %v, want boom", err)
	}

	if err := a.Set(2); !errors.Is(err, boom) {
		t.Fatalf("Set error = %v, want boom", err)
	}
	if len(hook.spans) != 0 {
		t.Fatalf("span stack not drained: %d spans", len(hook.spans))
	}
}

func TestOTelHook_DoneWithoutStartedIsIgnored(t *testing.T) {
	hook := OpenTelemetry()

	// Simulates registration in the middle of a propagation: Done arrives
	// with no span on the stack.
	hook.PropagationDone(reaktor.PropagationStats{RootID: 1})

	if len(hook.spans) != 0 {
		t.Fatalf("span stack corrupted: %d spans", len(hook.spans))
	}
}
