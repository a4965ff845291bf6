package observability

import (
	"github.com/aretw0/refgraph/pkg/object"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EventMetrics counts document events.
type EventMetrics struct {
	events *prometheus.CounterVec
}

// NewEventMetrics registers the event collectors with reg.
func NewEventMetrics(reg prometheus.Registerer) *EventMetrics {
	factory := promauto.With(reg)
	return &EventMetrics{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "refgraph_events_total",
			Help: "Notifications received by the document, by event type and sender class.",
		}, []string{"type", "class"}),
	}
}

// Observe counts ev. It matches the callback signature of Document.Watch.
func (m *EventMetrics) Observe(ev *object.Event) error {
	class := ""
	if ev.Sender != nil {
		class = ev.Sender.ObjectBase().Class().Name()
	}
	m.events.WithLabelValues(ev.Type.String(), class).Inc()
	return nil
}

// Counter returns the counter of one event type and sender class.
func (m *EventMetrics) Counter(eventType, class string) (prometheus.Counter, error) {
	return m.events.GetMetricWithLabelValues(eventType, class)
}
