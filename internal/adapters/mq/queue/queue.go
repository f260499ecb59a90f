// Package queue holds the bounded alert queue between the monitor and the
// notifier workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/cabina/internal/domain/model"
	"github.com/okian/cabina/pkg/metrics"
)

const defaultQueueCapacity = 64

// Alert is the payload flowing through the queue.
type Alert = model.Alert

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an alert to the queue. It never blocks; a full or
	// closed queue yields an error.
	Enqueue(ctx context.Context, a Alert) error

	// Dequeue returns a channel that receives alerts as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Alert

	// Len returns the current number of queued alerts.
	Len() int

	// Close stops accepting alerts and closes the dequeue channels.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	alerts   chan Alert
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.alerts = make(chan Alert, q.capacity)

	metrics.UpdateAlertQueueCapacity(q.capacity)
	metrics.UpdateAlertQueueSize(0)
	return q
}

// Enqueue adds an alert to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, a Alert) error { //nolint:gocritic // hugeParam: Alert is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordAlertDropped("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordAlertDropped("context_cancelled")
		return err
	}

	select {
	case q.alerts <- a:
		metrics.RecordAlertEnqueued()
		metrics.UpdateAlertQueueSize(len(q.alerts))
		return nil
	default:
		metrics.RecordAlertDropped("queue_full")
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that will receive alerts as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Alert {
	out := make(chan Alert)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case a, ok := <-q.alerts:
				if !ok {
					return
				}
				metrics.UpdateAlertQueueSize(len(q.alerts))
				select {
				case out <- a:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued alerts.
func (q *InMemoryQueue) Len() int {
	return len(q.alerts)
}

// Close gracefully shuts down the queue. Queued alerts are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.alerts)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
