package anomaly

import (
	log "github.com/rs/zerolog"

	"github.com/maxgio92/asketch/internal/metrics"
	"github.com/maxgio92/asketch/pkg/state"
)

type Option func(*Plugin)

func WithLogger(logger log.Logger) Option {
	return func(p *Plugin) {
		p.logger = logger.With().Str("component", "anomaly").Logger()
	}
}

// WithThreadTable binds the host thread table the fingerprint extractor
// reads from and the dispatch loop writes the last-event fd to.
func WithThreadTable(t state.ThreadTable) Option {
	return func(p *Plugin) {
		p.table = t
	}
}

// WithMetrics attaches an optional metrics sink to the dispatch loop.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Plugin) {
		p.metrics = m
	}
}
