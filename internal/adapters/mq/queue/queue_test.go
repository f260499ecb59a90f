package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/cabina/internal/domain/emotion"
	"github.com/okian/cabina/internal/domain/model"
)

func alert(version uint64) Alert {
	return model.Alert{
		SnapshotVersion: version,
		Source:          model.SourceMonitor,
		Result:          emotion.Result{State: emotion.StateCrisis, Risk: emotion.RiskCritical},
		RaisedAt:        time.Now(),
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, alert(1)); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.SnapshotVersion != 1 {
		t.Errorf("expected alert for version 1, got %d", got.SnapshotVersion)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for v := uint64(1); v <= 2; v++ {
		if err := q.Enqueue(ctx, alert(v)); err != nil {
			t.Fatalf("expected enqueue %d to succeed, got %v", v, err)
		}
	}

	// A full queue refuses without blocking.
	if err := q.Enqueue(ctx, alert(3)); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, alert(1)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(16))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const producers, perProducer = 4, 25

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				for q.Enqueue(ctx, alert(uint64(id*perProducer+j))) != nil {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	consumed := make(chan Alert, producers*perProducer)
	for i := 0; i < 2; i++ {
		go func() {
			for a := range q.Dequeue(ctx) {
				consumed <- a
			}
		}()
	}

	wg.Wait()

	deadline := time.After(2 * time.Second)
	for n := 0; n < producers*perProducer; n++ {
		select {
		case <-consumed:
		case <-deadline:
			t.Fatalf("expected %d alerts, got %d", producers*perProducer, n)
		}
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if err := q.Enqueue(ctx, alert(1)); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if err := q.Enqueue(ctx, alert(2)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// The pending alert drains before the channel closes.
	ch := q.Dequeue(ctx)
	timeout := time.After(100 * time.Millisecond)
	var drained []Alert
	for {
		select {
		case a, ok := <-ch:
			if !ok {
				if len(drained) != 1 || drained[0].SnapshotVersion != 1 {
					t.Errorf("expected to drain alert 1, got %+v", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained = append(drained, a)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}
