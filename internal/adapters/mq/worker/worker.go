// Package worker runs the notifier workers that drain the alert queue.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/cabina/internal/domain/model"
	"github.com/okian/cabina/pkg/logger"
	"github.com/okian/cabina/pkg/metrics"
)

const (
	defaultWorkerCount  = 1
	poolShutdownTimeout = 30 * time.Second
)

// Queue defines how workers receive alerts.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Alert
}

// Notifier escalates one alert.
type Notifier interface {
	Notify(ctx context.Context, alert model.Alert) (model.Incident, error)
}

// Recorder persists incidents.
type Recorder interface {
	Save(ctx context.Context, inc model.Incident) error
}

// Worker processes alerts.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker escalates alerts through a Notifier and records the result.
type InMemoryWorker struct {
	queue      Queue
	notifier   Notifier
	recorder   Recorder
	name       string
	limiter    *rate.Limiter
	onIncident func(ctx context.Context, inc model.Incident)
	processed  atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, notifier Notifier, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		notifier: notifier,
		recorder: recorder,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	alerts := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case alert, ok := <-alerts:
			if !ok {
				return
			}
			if _, err := w.Process(ctx, alert); err != nil {
				w.logger.Error(ctx, "error processing alert", logger.Error(err))
			}
		}
	}
}

// Process escalates one alert. It returns false with a nil error when the
// rate limit suppressed an automatic escalation.
func (w *InMemoryWorker) Process(ctx context.Context, alert model.Alert) (bool, error) { //nolint:gocritic // hugeParam: Alert mirrors the queue payload
	if alert.Source != model.SourceManual && w.limiter != nil && !w.limiter.Allow() {
		metrics.RecordNotificationThrottled()
		w.logger.Warn(ctx, "escalation suppressed by rate limit",
			logger.Uint64("snapshot_version", alert.SnapshotVersion),
		)
		return false, nil
	}

	if _, err := w.Escalate(ctx, alert); err != nil {
		return false, err
	}
	return true, nil
}

// Escalate notifies and records alert without consulting the rate limit.
func (w *InMemoryWorker) Escalate(ctx context.Context, alert model.Alert) (model.Incident, error) { //nolint:gocritic // hugeParam
	inc, err := w.notifier.Notify(ctx, alert)
	if err != nil {
		metrics.RecordNotificationFailed()
		metrics.RecordErrorByComponent("worker", "notify")
		return model.Incident{}, fmt.Errorf("notify snapshot %d: %w", alert.SnapshotVersion, err)
	}
	metrics.RecordNotificationSent()

	if err := w.recorder.Save(ctx, inc); err != nil {
		metrics.RecordErrorByComponent("worker", "record")
		return model.Incident{}, fmt.Errorf("record incident %s: %w", inc.ID, err)
	}
	w.processed.Add(1)

	if w.onIncident != nil {
		w.onIncident(ctx, inc)
	}
	return inc, nil
}

// Processed returns the number of incidents this worker recorded.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers sharing opts.
func NewPool(workerCount int, queue Queue, notifier Notifier, recorder Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Nop(),
	}

	// Resolve the shared options once for the pool's own logger.
	base := &InMemoryWorker{logger: logger.Nop()}
	for _, opt := range opts {
		opt(base)
	}
	pool.logger = base.logger.Named("worker-pool")

	for i := 0; i < workerCount; i++ {
		workerOpts := append(append([]Option(nil), opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(queue, notifier, recorder, workerOpts...)
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of incidents recorded by all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue and waits for every worker to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
