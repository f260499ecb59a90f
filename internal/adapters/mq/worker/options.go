package worker

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/cabina/internal/domain/model"
	"github.com/okian/cabina/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithLimiter caps automatic escalations. Share one limiter across a pool
// so the cap holds for the whole service. Manual alerts are never limited.
func WithLimiter(l *rate.Limiter) Option {
	return func(w *InMemoryWorker) {
		w.limiter = l
	}
}

// WithIncidentHandler is called after every recorded incident.
func WithIncidentHandler(h func(ctx context.Context, inc model.Incident)) Option {
	return func(w *InMemoryWorker) {
		w.onIncident = h
	}
}

// PerMinute returns a limiter admitting n escalations per minute with no
// burst beyond the first. n <= 0 means unlimited and returns nil.
func PerMinute(n int) *rate.Limiter {
	if n <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
}
