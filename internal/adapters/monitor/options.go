package monitor

import (
	"time"

	"github.com/okian/cabina/pkg/logger"
)

// Option applies a configuration option to the Monitor.
type Option func(*Monitor)

// WithInterval sets the pause between two cycles.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithAlertSink routes critical snapshots to sink.
func WithAlertSink(sink AlertSink) Option {
	return func(m *Monitor) {
		m.alerts = sink
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSubscriberBuffer sets how many snapshots a slow subscriber may lag.
func WithSubscriberBuffer(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.subBuffer = n
		}
	}
}
