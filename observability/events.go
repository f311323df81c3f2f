package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Bukola-tech/smart-contracts/core/events"
)

type eventMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured ledger events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "escrow",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of emitted ledger events segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.emitted)
	})
	return eventRegistry
}

// RecordEvent increments the counter for the supplied event type.
func (m *eventMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(eventType)
	if normalized == "" {
		normalized = "unknown"
	}
	m.emitted.WithLabelValues(normalized).Inc()
}

// MeteredEmitter wraps another emitter and records a metric per event before
// forwarding it.
type MeteredEmitter struct {
	next events.Emitter
}

// NewMeteredEmitter wires metrics recording in front of next. A nil next
// behaves like a pure metrics sink.
func NewMeteredEmitter(next events.Emitter) *MeteredEmitter {
	return &MeteredEmitter{next: next}
}

// Emit implements the events.Emitter interface.
func (m *MeteredEmitter) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	Events().RecordEvent(evt.EventType())
	if m.next != nil {
		m.next.Emit(evt)
	}
}
