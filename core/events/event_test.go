package events

import (
	"testing"

	"github.com/Bukola-tech/smart-contracts/core/types"
)

type stubEvent struct {
	typ string
}

func (s stubEvent) EventType() string { return s.typ }

func (s stubEvent) Event() *types.Event {
	return &types.Event{Type: s.typ, Attributes: map[string]string{}}
}

func TestMemoryEmitterCapturesInOrder(t *testing.T) {
	m := &MemoryEmitter{}
	m.Emit(stubEvent{typ: "first"})
	m.Emit(stubEvent{typ: "second"})

	captured := m.Events()
	if len(captured) != 2 {
		t.Fatalf("captured %d events, want 2", len(captured))
	}
	if captured[0].Type != "first" || captured[1].Type != "second" {
		t.Fatalf("events out of order: %s, %s", captured[0].Type, captured[1].Type)
	}

	m.Reset()
	if len(m.Events()) != 0 {
		t.Fatalf("reset did not drop events")
	}
}

func TestMultiEmitterFansOut(t *testing.T) {
	a := &MemoryEmitter{}
	b := &MemoryEmitter{}
	multi := MultiEmitter{a, nil, b, NoopEmitter{}}

	multi.Emit(stubEvent{typ: "evt"})

	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Fatalf("fan-out missed an emitter: %d, %d", len(a.Events()), len(b.Events()))
	}
}
