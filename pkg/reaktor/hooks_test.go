package reaktor

import (
	"errors"
	"testing"
)

// recordingHook captures engine events for assertions.
type recordingHook struct {
	BaseHook
	nodes        []NodeInfo
	edges        int
	removed      int
	propagations []PropagationStats
	triggers     []TriggerStats
}

func (h *recordingHook) NodeCreated(info NodeInfo) { h.nodes = append(h.nodes, info) }
func (h *recordingHook) EdgeAdded(r, s uint64)     { h.edges++ }
func (h *recordingHook) EdgeRemoved(r, s uint64)   { h.removed++ }

func (h *recordingHook) PropagationDone(s PropagationStats) {
	h.propagations = append(h.propagations, s)
}

func (h *recordingHook) ObserverTriggered(s TriggerStats) {
	h.triggers = append(h.triggers, s)
}

func TestHookObservesEngineActivity(t *testing.T) {
	hook := &recordingHook{}
	RegisterHook(hook)
	defer ResetHooks()

	a := NewSignal(1)
	b := Define(func() int { return a.Get() + 1 })
	o, err := NewObserver(func(args ...any) any {
		return b.Get()
	})
	if err != nil {
		t.Fatalf("NewObserver: %v", err)
	}
	defer o.Stop()

	var signals, observers int
	for _, n := range hook.nodes {
		switch n.Kind {
		case KindSignal:
			signals++
		case KindObserver:
			observers++
		}
	}
	if signals < 2 || observers != 1 {
		t.Errorf("expected >=2 signals and 1 observer, got %d/%d", signals, observers)
	}
	if hook.edges < 2 {
		t.Errorf("expected edges for b->a and o->b, got %d", hook.edges)
	}

	if err := a.Set(2); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(hook.propagations) == 0 {
		t.Fatal("expected a propagation event")
	}
	last := hook.propagations[len(hook.propagations)-1]
	if last.RootID != a.ID() {
		t.Errorf("expected root %d, got %d", a.ID(), last.RootID)
	}
	if last.Signals != 2 {
		t.Errorf("expected 2 settled signals (a and b), got %d", last.Signals)
	}
	if last.Observers != 1 {
		t.Errorf("expected 1 collected observer, got %d", last.Observers)
	}
	if last.Err != nil {
		t.Errorf("unexpected propagation error: %v", last.Err)
	}
	if len(hook.triggers) == 0 || hook.triggers[len(hook.triggers)-1].ObserverID != o.ID() {
		t.Error("expected a trigger event for the observer")
	}
}

func TestHookSeesPropagationError(t *testing.T) {
	hook := &recordingHook{}
	RegisterHook(hook)
	defer ResetHooks()

	boom := errors.New("boom")
	a := NewSignal(0)
	o, err := NewObserver(func(args ...any) any {
		if a.Get() > 0 {
			panic(boom)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("NewObserver: %v", err)
	}
	defer o.Stop()

	if err := a.Set(1); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	last := hook.propagations[len(hook.propagations)-1]
	if !errors.Is(last.Err, boom) {
		t.Errorf("expected propagation stats to carry the error, got %v", last.Err)
	}
	lastTrigger := hook.triggers[len(hook.triggers)-1]
	if !errors.Is(lastTrigger.Err, boom) {
		t.Errorf("expected trigger stats to carry the error, got %v", lastTrigger.Err)
	}
}
