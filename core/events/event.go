package events

import "github.com/Bukola-tech/smart-contracts/core/types"

// Event represents a structured state change emitted by the ledger.
type Event interface {
	EventType() string
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. CLIs, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// MemoryEmitter records every emitted event in order. Intended for tests and
// for the CLI, which replays the captured events after a command completes.
type MemoryEmitter struct {
	events []*types.Event
}

// Emit implements the Emitter interface.
func (m *MemoryEmitter) Emit(evt Event) {
	if m == nil || evt == nil {
		return
	}
	payload := evt.Event()
	if payload == nil {
		return
	}
	m.events = append(m.events, payload)
}

// Events returns the captured events in emission order.
func (m *MemoryEmitter) Events() []*types.Event {
	if m == nil {
		return nil
	}
	out := make([]*types.Event, len(m.events))
	copy(out, m.events)
	return out
}

// Reset drops all captured events.
func (m *MemoryEmitter) Reset() {
	if m != nil {
		m.events = nil
	}
}

// MultiEmitter fans every event out to each wrapped emitter in order.
type MultiEmitter []Emitter

// Emit implements the Emitter interface.
func (m MultiEmitter) Emit(evt Event) {
	for _, e := range m {
		if e != nil {
			e.Emit(evt)
		}
	}
}
