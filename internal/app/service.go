// Package service wires the analysis pipeline and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/cabina/internal/adapters/bus"
	"github.com/okian/cabina/internal/adapters/capture"
	"github.com/okian/cabina/internal/adapters/http/ws"
	"github.com/okian/cabina/internal/adapters/monitor"
	"github.com/okian/cabina/internal/adapters/mq/queue"
	"github.com/okian/cabina/internal/adapters/mq/worker"
	"github.com/okian/cabina/internal/adapters/notify"
	"github.com/okian/cabina/internal/adapters/repository"
	"github.com/okian/cabina/internal/config"
	"github.com/okian/cabina/internal/domain/audio"
	"github.com/okian/cabina/internal/domain/emotion"
	"github.com/okian/cabina/internal/domain/model"
	"github.com/okian/cabina/pkg/logger"
	"github.com/okian/cabina/pkg/metrics"
)

// Service owns the monitor, the escalation path and the fan-out to
// stream clients and the cabin bus.
type Service struct {
	mu sync.RWMutex

	cfg          *config.Config
	logger       logger.Logger
	source       capture.Source
	busPublisher bus.Publisher

	classifier *emotion.Classifier
	monitor    *monitor.Monitor
	queue      *queue.InMemoryQueue
	store      repository.Store
	notifier   *notify.StubNotifier
	pool       *worker.Pool
	manual     *worker.InMemoryWorker
	hub        *ws.Hub
	bus        *bus.Bus

	rootCtx   context.Context
	cancel    context.CancelFunc
	group     *errgroup.Group
	unsubs    []func()
	started   bool
	startedAt time.Time
}

// New constructs a Service. Components are built by Start.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:    config.New(),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds every component and starts the escalation workers. The
// monitor stays idle until StartMonitor.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	cfg := s.cfg
	s.logger.Info(ctx, "starting analysis service...")

	if s.source == nil {
		src, err := newSource(cfg, s.logger)
		if err != nil {
			return err
		}
		s.source = src
	}

	storeOpts := []repository.Option{repository.WithLogger(s.logger.Named("incidents"))}
	if cfg.IncidentInMemory {
		storeOpts = append(storeOpts, repository.WithInMemory(true))
	} else {
		storeOpts = append(storeOpts, repository.WithDir(cfg.IncidentDir))
	}
	store, err := repository.NewBadgerStore(storeOpts...)
	if err != nil {
		return err
	}
	s.store = store

	s.classifier = emotion.NewClassifier(
		emotion.WithLowVolume(cfg.LowVolume),
		emotion.WithHighVolume(cfg.HighVolume),
		emotion.WithHighVariability(cfg.HighVariability),
	)
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(cfg.AlertQueueSize))
	s.notifier = notify.NewStubNotifier(
		notify.WithCrisisLine(cfg.CrisisLine),
		notify.WithLogger(s.logger.Named("notifier")),
	)

	s.monitor = monitor.New(s.source, s.classifier, cfg.CaptureDuration(),
		monitor.WithInterval(cfg.PollInterval()),
		monitor.WithAlertSink(s.queue),
		monitor.WithLogger(s.logger.Named("monitor")),
	)
	s.hub = ws.NewHub(s.monitor.Latest, ws.WithLogger(s.logger.Named("ws")))

	s.pool = worker.NewPool(cfg.NotifierWorkers, s.queue, s.notifier, s.store,
		worker.WithLogger(s.logger),
		worker.WithLimiter(worker.PerMinute(cfg.EmergencyRatePerMin)),
		worker.WithIncidentHandler(s.hub.NotifyIncident),
	)
	s.manual = worker.NewInMemoryWorker(nil, s.notifier, s.store,
		worker.WithName("manual"),
		worker.WithLogger(s.logger),
		worker.WithIncidentHandler(s.hub.NotifyIncident),
	)

	if err := s.connectBus(); err != nil {
		_ = s.store.Close()
		return err
	}

	// The root context outlives the request that starts the monitor.
	s.rootCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.group = &errgroup.Group{}
	s.pool.Start(s.rootCtx)

	snapshots, unsub := s.monitor.Subscribe()
	s.unsubs = append(s.unsubs, unsub)
	s.group.Go(func() error {
		s.hub.Run(s.rootCtx, snapshots)
		return nil
	})
	if s.bus != nil {
		busSnapshots, busUnsub := s.monitor.Subscribe()
		s.unsubs = append(s.unsubs, busUnsub)
		s.group.Go(func() error {
			s.bus.Run(s.rootCtx, busSnapshots)
			return nil
		})
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "analysis service started",
		logger.String("source", cfg.CaptureSource),
		logger.Int("sample_rate", s.source.SampleRate()),
		logger.Duration("window", cfg.CaptureDuration()),
		logger.Int("workers", s.pool.Size()),
		logger.Bool("bus", s.bus != nil),
	)
	return nil
}

func newSource(cfg *config.Config, l logger.Logger) (capture.Source, error) {
	switch cfg.CaptureSource {
	case config.SourceFile:
		src, err := capture.NewFileSource(cfg.CaptureFile, cfg.SampleRate, cfg.CaptureDuration(),
			capture.WithFileLogger(l.Named("capture")))
		if err != nil {
			return nil, fmt.Errorf("open capture file: %w", err)
		}
		return src, nil
	default:
		return capture.NewSyntheticSource(cfg.SampleRate, cfg.CaptureDuration(),
			capture.WithPacing(true),
			capture.WithSyntheticLogger(l.Named("capture")),
		), nil
	}
}

func (s *Service) connectBus() error {
	busLog := bus.WithLogger(s.logger.Named("bus"))
	switch {
	case s.busPublisher != nil:
		s.bus = bus.New(s.busPublisher, s.cfg.MQTTTopic, busLog)
	case s.cfg.MQTTBroker != "":
		b, err := bus.Connect(s.cfg.MQTTBroker, s.cfg.MQTTClientID, s.cfg.MQTTTopic, busLog)
		if err != nil {
			return err
		}
		s.bus = b
	}
	return nil
}

// Stop stops the monitor, drains the workers and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping analysis service...")

	s.monitor.Stop()
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	s.cancel()
	_ = s.group.Wait()

	if s.bus != nil {
		s.bus.Close()
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "closing incident store failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "analysis service stopped")
}

// Hub returns the live stream hub, nil before Start.
func (s *Service) Hub() *ws.Hub {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hub
}

// StartMonitor starts the polling loop. It returns false when the loop
// already runs or the service is not started.
func (s *Service) StartMonitor() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false
	}
	return s.monitor.Start(s.rootCtx)
}

// StopMonitor stops the polling loop.
func (s *Service) StopMonitor() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false
	}
	return s.monitor.Stop()
}

// Latest returns the most recent snapshot.
func (s *Service) Latest() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Snapshot{Result: emotion.Result{State: emotion.StateStable, Risk: emotion.RiskNormal}}
	}
	return s.monitor.Latest()
}

// Running reports whether the polling loop is active.
func (s *Service) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started && s.monitor.Running()
}

// Analyze classifies a block without touching the published state.
func (s *Service) Analyze(block audio.Block, sampleRate int) (emotion.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return emotion.Result{}, ErrNotStarted
	}
	res, err := s.classifier.Analyze(block, sampleRate)
	if err != nil {
		metrics.RecordExtractionError()
		return emotion.Result{}, err
	}
	metrics.RecordClassification(string(res.State), res.Risk.String())
	return res, nil
}

// Emergency escalates immediately on behalf of the occupant. The rate
// limit of the automatic path does not apply.
func (s *Service) Emergency(ctx context.Context) (model.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Incident{}, ErrNotStarted
	}

	latest := s.monitor.Latest()
	inc, err := s.manual.Escalate(ctx, model.Alert{
		SnapshotVersion: latest.Version,
		Source:          model.SourceManual,
		Result:          latest.Result,
		RaisedAt:        time.Now(),
	})
	if err != nil {
		return model.Incident{}, err
	}
	return inc, nil
}

// Incidents lists the most recent incidents, newest first.
func (s *Service) Incidents(ctx context.Context, limit int) ([]model.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store.List(ctx, limit)
}

// Incident returns one incident by id.
func (s *Service) Incident(ctx context.Context, id string) (model.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Incident{}, ErrNotStarted
	}
	return s.store.Get(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started": s.started,
	}
	if !s.started {
		return stats
	}

	latest := s.monitor.Latest()
	queueLen := s.queue.Len()
	stats["running"] = s.monitor.Running()
	stats["uptimeSeconds"] = int(time.Since(s.startedAt).Seconds())
	stats["snapshotVersion"] = latest.Version
	stats["state"] = latest.Result.State
	stats["risk"] = latest.Result.Risk.String()
	stats["queueLength"] = queueLen
	stats["queueCapacity"] = s.cfg.AlertQueueSize
	stats["workerCount"] = s.pool.Size()
	stats["escalations"] = s.pool.Processed() + s.manual.Processed()
	stats["streamClients"] = s.hub.Clients()
	stats["busEnabled"] = s.bus != nil
	if n, err := s.store.Count(ctx); err == nil {
		stats["incidents"] = n
	}

	metrics.UpdateAlertQueueSize(queueLen)
	return stats
}
