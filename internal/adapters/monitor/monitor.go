// Package monitor runs the capture, extract, classify, publish loop and
// owns the latest published snapshot.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/cabina/internal/domain/audio"
	"github.com/okian/cabina/internal/domain/emotion"
	"github.com/okian/cabina/internal/domain/model"
	"github.com/okian/cabina/pkg/logger"
	"github.com/okian/cabina/pkg/metrics"
)

const (
	defaultInterval  = 500 * time.Millisecond
	defaultSubBuffer = 8
	awaitingCapture  = "awaiting first capture"
)

// Source produces capture windows.
type Source interface {
	Capture(ctx context.Context) (audio.Block, error)
	SampleRate() int
}

// Classifier maps features to a result.
type Classifier interface {
	Classify(f audio.Features) emotion.Result
}

// AlertSink accepts escalation requests without blocking.
type AlertSink interface {
	Enqueue(ctx context.Context, a model.Alert) error
}

// Monitor polls a Source and publishes one Snapshot per successful cycle.
// Readers never block the loop: Latest is a lock-free pointer load and
// subscribers that fall behind lose snapshots.
type Monitor struct {
	source     Source
	classifier Classifier
	duration   time.Duration
	interval   time.Duration
	alerts     AlertSink
	now        func() time.Time
	subBuffer  int
	logger     logger.Logger

	latest    atomic.Pointer[model.Snapshot]
	publishMu sync.Mutex

	subsMu  sync.Mutex
	subs    map[uint64]chan model.Snapshot
	nextSub uint64

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a monitor capturing windows of duration from source.
func New(source Source, classifier Classifier, duration time.Duration, opts ...Option) *Monitor {
	m := &Monitor{
		source:     source,
		classifier: classifier,
		duration:   duration,
		interval:   defaultInterval,
		now:        time.Now,
		subBuffer:  defaultSubBuffer,
		logger:     logger.Nop(),
		subs:       make(map[uint64]chan model.Snapshot),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.latest.Store(&model.Snapshot{
		Timestamp: m.now(),
		Result: emotion.Result{
			State:       emotion.StateStable,
			Risk:        emotion.RiskNormal,
			Explanation: awaitingCapture,
		},
	})
	return m
}

// Latest returns the most recently published snapshot.
func (m *Monitor) Latest() model.Snapshot {
	return *m.latest.Load()
}

// Running reports whether the loop is active.
func (m *Monitor) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.cancel != nil
}

// Start launches the loop under ctx. It returns false when a loop is
// already running.
func (m *Monitor) Start(ctx context.Context) bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cancel != nil {
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.loop(loopCtx, m.done)

	metrics.UpdateMonitorRunning(true)
	m.logger.Info(ctx, "monitor started",
		logger.Duration("window", m.duration),
		logger.Duration("interval", m.interval),
		logger.Int("sample_rate", m.source.SampleRate()),
	)
	return true
}

// Stop cancels the loop and waits for it to exit. It returns false when
// nothing was running.
func (m *Monitor) Stop() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cancel == nil {
		return false
	}

	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil

	metrics.UpdateMonitorRunning(false)
	m.logger.Info(context.Background(), "monitor stopped")
	return true
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		if _, err := m.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Warn(ctx, "cycle skipped", logger.Error(err))
		}

		timer.Reset(m.interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// RunOnce performs a single capture, extract, classify, publish cycle.
// Failed cycles publish nothing.
func (m *Monitor) RunOnce(ctx context.Context) (model.Snapshot, error) {
	block, err := m.source.Capture(ctx)
	if err != nil {
		metrics.RecordCaptureError()
		metrics.RecordErrorByComponent("monitor", "capture")
		return model.Snapshot{}, fmt.Errorf("%w: %w", ErrCapture, err)
	}
	metrics.RecordCapture()

	start := time.Now()
	f, err := audio.ExtractWindow(block, m.source.SampleRate(), m.duration)
	if err != nil {
		metrics.RecordExtractionError()
		metrics.RecordErrorByComponent("monitor", "invalid_input")
		return model.Snapshot{}, err
	}
	res := m.classifier.Classify(f)
	metrics.RecordAnalysisLatency(float64(time.Since(start).Microseconds()) / 1000)
	recordResult(res)

	snap := m.Publish(res)
	m.logger.Debug(ctx, "snapshot published",
		logger.Uint64("version", snap.Version),
		logger.String("state", string(res.State)),
		logger.String("risk", res.Risk.String()),
		logger.Int("rule", res.Rule),
	)

	if snap.Critical() {
		m.raise(ctx, snap)
	}
	return snap, nil
}

// Publish stores res as a new snapshot with the next version and fans it
// out to subscribers.
func (m *Monitor) Publish(res emotion.Result) model.Snapshot { //nolint:gocritic // hugeParam: Result is copied into the snapshot
	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	snap := &model.Snapshot{
		Version:   m.latest.Load().Version + 1,
		Timestamp: m.now(),
		Result:    res,
	}
	m.latest.Store(snap)
	metrics.UpdateSnapshotVersion(snap.Version)

	m.subsMu.Lock()
	for _, ch := range m.subs {
		select {
		case ch <- *snap:
		default:
		}
	}
	m.subsMu.Unlock()
	return *snap
}

// Subscribe returns a channel receiving every later snapshot and a cancel
// func that closes it.
func (m *Monitor) Subscribe() (<-chan model.Snapshot, func()) {
	ch := make(chan model.Snapshot, m.subBuffer)

	m.subsMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subsMu.Lock()
			delete(m.subs, id)
			m.subsMu.Unlock()
			close(ch)
		})
	}
}

func (m *Monitor) raise(ctx context.Context, snap model.Snapshot) { //nolint:gocritic // hugeParam: snapshot is immutable
	if m.alerts == nil {
		return
	}
	alert := model.Alert{
		SnapshotVersion: snap.Version,
		Source:          model.SourceMonitor,
		Result:          snap.Result,
		RaisedAt:        snap.Timestamp,
	}
	if err := m.alerts.Enqueue(ctx, alert); err != nil {
		m.logger.Error(ctx, "critical snapshot not escalated",
			logger.Uint64("version", snap.Version),
			logger.Error(err),
		)
	}
}

func recordResult(res emotion.Result) { //nolint:gocritic // hugeParam
	metrics.RecordClassification(string(res.State), res.Risk.String())
	f := res.Features
	metrics.UpdateFeature("mean_amplitude", f.MeanAmplitude)
	metrics.UpdateFeature("max_amplitude", f.MaxAmplitude)
	metrics.UpdateFeature("variability", f.Variability)
	metrics.UpdateFeature("frequency_estimate_hz", f.FrequencyEstimateHz)
	metrics.UpdateFeature("energy", f.Energy)
	metrics.UpdateFeature("silence_segment_count", f.SilenceSegmentCount)
}
