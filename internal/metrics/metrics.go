package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "asketch"

// Metrics groups the dispatch pipeline counters. The plugin accepts a nil
// sink, keeping the hot path free of observability work unless asked for.
type Metrics struct {
	Events        prometheus.Counter
	ParseFailures prometheus.Counter
	SketchUpdates *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events run through the dispatch loop.",
		}),
		ParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Events dropped for a malformed buffer.",
		}),
		SketchUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sketch_updates_total",
			Help:      "Fingerprint updates applied, per sketch index.",
		}, []string{"sketch"}),
	}
	reg.MustRegister(m.Events, m.ParseFailures, m.SketchUpdates)
	return m
}
