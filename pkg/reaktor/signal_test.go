package reaktor

import (
	"errors"
	"testing"
)

func TestSignalBasic(t *testing.T) {
	count := NewSignal(0)

	if count.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Get())
	}

	if err := count.Set(5); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if count.Get() != 5 {
		t.Errorf("expected value 5, got %d", count.Get())
	}

	if err := count.Update(func(n int) int { return n * 2 }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if count.Get() != 10 {
		t.Errorf("expected value 10, got %d", count.Get())
	}
}

func TestDerivedChain(t *testing.T) {
	a := NewSignal(1)
	b := Define(func() int { return a.Get() + 1 })
	c := Define(func() int { return a.Get() + b.Get() })

	if b.Get() != 2 {
		t.Errorf("expected b=2, got %d", b.Get())
	}
	if c.Get() != 3 {
		t.Errorf("expected c=3, got %d", c.Get())
	}

	if err := a.Set(3); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if b.Get() != 4 {
		t.Errorf("expected b=4 after write, got %d", b.Get())
	}
	if c.Get() != 7 {
		t.Errorf("expected c=7 after write, got %d", c.Get())
	}
}

func TestDerivedSettlesBeforeObserver(t *testing.T) {
	a := NewSignal(1)
	b := Define(func() int { return a.Get() * 10 })

	var seen []int
	o, err := NewObserver(func(args ...any) any {
		seen = append(seen, b.Get())
		return nil
	})
	if err != nil {
		t.Fatalf("NewObserver: %v", err)
	}
	defer o.Stop()

	if err := a.Set(2); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// The observer must never see b stale: 10 at construction, then 20.
	if len(seen) != 2 || seen[0] != 10 || seen[1] != 20 {
		t.Errorf("expected observer to see [10 20], got %v", seen)
	}
}

func TestSignalPeekDoesNotTrack(t *testing.T) {
	count := NewSignal(42)

	runs := 0
	o, err := NewObserver(func(args ...any) any {
		runs++
		_ = count.Peek()
		return nil
	})
	if err != nil {
		t.Fatalf("NewObserver: %v", err)
	}
	defer o.Stop()

	if err := count.Set(100); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if runs != 1 {
		t.Errorf("Peek must not subscribe, observer ran %d times", runs)
	}
}

func TestSetFuncConvertsToDerived(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(0)

	if err := b.SetFunc(func() int { return a.Get() * 2 }); err != nil {
		t.Fatalf("SetFunc: %v", err)
	}
	if b.Get() != 2 {
		t.Errorf("expected b=2, got %d", b.Get())
	}

	if err := a.Set(5); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if b.Get() != 10 {
		t.Errorf("expected b=10 after dependency write, got %d", b.Get())
	}

	// Writing a plain value severs the definition.
	if err := b.Set(7); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := a.Set(9); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if b.Get() != 7 {
		t.Errorf("expected b=7 after plain write, got %d", b.Get())
	}
}

func TestSetFuncNil(t *testing.T) {
	a := NewSignal(1)
	if err := a.SetFunc(nil); !errors.Is(err, ErrNilFunction) {
		t.Errorf("expected ErrNilFunction, got %v", err)
	}
}

func TestDefineNilPanics(t *testing.T) {
	defer func() {
		if p := recover(); p == nil {
			t.Error("expected panic for nil definition")
		}
	}()
	Define[int](nil)
}

func TestFailedRecomputeSurfacesOnRead(t *testing.T) {
	boom := errors.New("boom")
	a := NewSignal(0)
	b := Define(func() int {
		if a.Get() > 0 {
			panic(boom)
		}
		return a.Get()
	})

	if _, err := b.TryGet(); err != nil {
		t.Fatalf("unexpected initial error: %v", err)
	}

	err := a.Set(1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom from write, got %v", err)
	}

	// The broken signal must not hand out a stale value.
	if _, err := b.TryGet(); !errors.Is(err, boom) {
		t.Errorf("expected boom from read, got %v", err)
	}

	// Recovery: once the dependency is healthy again, so is b.
	if err := a.Set(0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, err := b.TryGet(); err != nil || v != 0 {
		t.Errorf("expected recovered read 0, got %v, %v", v, err)
	}
}

func TestErrorPropagatesThroughDerivedReaders(t *testing.T) {
	boom := errors.New("boom")
	a := NewSignal(0)
	b := Define(func() int {
		if a.Get() > 0 {
			panic(boom)
		}
		return 1
	})
	c := Define(func() int { return b.Get() + 1 })

	if c.Get() != 2 {
		t.Fatalf("expected c=2, got %d", c.Get())
	}

	err := a.Set(1)
	// Both b's recompute and c's read of the broken b fail.
	var compound *CompoundError
	if !errors.As(err, &compound) {
		t.Fatalf("expected CompoundError, got %v", err)
	}
	if _, cerr := c.TryGet(); !errors.Is(cerr, boom) {
		t.Errorf("expected boom through c, got %v", cerr)
	}
}

func TestWithEqualsSuppressesPropagation(t *testing.T) {
	count := NewSignal(1).WithEquals(func(a, b int) bool { return a == b })

	runs := 0
	o, err := NewObserver(func(args ...any) any {
		runs++
		_ = count.Get()
		return nil
	})
	if err != nil {
		t.Fatalf("NewObserver: %v", err)
	}
	defer o.Stop()

	if err := count.Set(1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if runs != 1 {
		t.Errorf("equal write must not propagate, observer ran %d times", runs)
	}

	if err := count.Set(2); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if runs != 2 {
		t.Errorf("unequal write must propagate, observer ran %d times", runs)
	}
}

func TestWriteWithoutEqualsAlwaysPropagates(t *testing.T) {
	count := NewSignal(1)

	runs := 0
	o, err := NewObserver(func(args ...any) any {
		runs++
		_ = count.Get()
		return nil
	})
	if err != nil {
		t.Fatalf("NewObserver: %v", err)
	}
	defer o.Stop()

	if err := count.Set(1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if runs != 2 {
		t.Errorf("write of the same value must still propagate, observer ran %d times", runs)
	}
}

func TestDynamicDependencies(t *testing.T) {
	useFirst := NewSignal(true)
	first := NewSignal("a")
	second := NewSignal("b")

	runs := 0
	o, err := NewObserver(func(args ...any) any {
		runs++
		if useFirst.Get() {
			_ = first.Get()
		} else {
			_ = second.Get()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("NewObserver: %v", err)
	}
	defer o.Stop()

	// Branch not taken contributes no edge.
	if err := second.Set("b2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if runs != 1 {
		t.Errorf("untaken branch must not subscribe, observer ran %d times", runs)
	}

	if err := useFirst.Set(false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if runs != 2 {
		t.Fatalf("expected rerun on branch switch, got %d", runs)
	}

	// Edges re-form for the new branch and dissolve for the old one.
	if err := first.Set("a2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if runs != 2 {
		t.Errorf("stale branch must not retrigger, observer ran %d times", runs)
	}
	if err := second.Set("b3"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if runs != 3 {
		t.Errorf("active branch must retrigger, observer ran %d times", runs)
	}
}

func TestHideSuppressesEdges(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(2)

	runs := 0
	o, err := NewObserver(func(args ...any) any {
		runs++
		_ = a.Get()
		got := Hide(func() int { return b.Get() })
		return got
	})
	if err != nil {
		t.Fatalf("NewObserver: %v", err)
	}
	defer o.Stop()

	if v := o.Value(); v != 2 {
		t.Errorf("Hide must pass the result through, got %v", v)
	}

	if err := b.Set(3); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if runs != 1 {
		t.Errorf("hidden read must not subscribe, observer ran %d times", runs)
	}

	if err := a.Set(4); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if runs != 2 {
		t.Errorf("tracked read must still subscribe, observer ran %d times", runs)
	}
	if v := o.Value(); v != 3 {
		t.Errorf("hidden read must still see fresh values, got %v", v)
	}
}

func TestUnobserveAlias(t *testing.T) {
	b := NewSignal(10)
	got := Unobserve(func() int { return b.Get() })
	if got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
}
