package observability

import (
	"net/http"

	"github.com/aretw0/automaton/pkg/fsm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts accepted and rejected events.
type Metrics struct {
	registry    *prometheus.Registry
	Transitions *prometheus.CounterVec
	Illegal     *prometheus.CounterVec
}

// NewMetrics registers the automaton collectors on registry. A nil registry
// gets a fresh one, which keeps tests and multiple instances isolated from
// the global default.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: registry,
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automaton_transitions_total",
				Help: "Total number of accepted events by transition",
			},
			[]string{"from", "event", "to"},
		),
		Illegal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "automaton_illegal_events_total",
				Help: "Total number of events rejected by the current state",
			},
			[]string{"state", "event"},
		),
	}
	registry.MustRegister(m.Transitions, m.Illegal)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks records every dispatched event.
func (m *Metrics) Hooks() fsm.Hooks {
	return fsm.Hooks{
		OnTransition: func(t fsm.Transition) {
			m.Transitions.WithLabelValues(t.From, t.Event, t.To).Inc()
		},
		OnRejected: func(t fsm.Transition) {
			m.Illegal.WithLabelValues(t.From, t.Event).Inc()
		},
	}
}
