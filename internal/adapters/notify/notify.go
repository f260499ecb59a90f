// Package notify escalates critical classifications.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/cabina/internal/domain/model"
	"github.com/okian/cabina/pkg/logger"
)

// Defaults for the stub escalation.
const (
	DefaultCrisisLine   = "800-911-2000"
	ExpectedResponseIn  = 45 * time.Second
	actionSupervisorSMS = "sms sent to supervisor"
	actionRegistered    = "incident registered"
)

// Notifier turns an alert into a recorded incident.
type Notifier interface {
	Notify(ctx context.Context, alert model.Alert) (model.Incident, error)
}

// Option configures a StubNotifier.
type Option func(*StubNotifier)

// WithCrisisLine sets the number reported as called.
func WithCrisisLine(number string) Option {
	return func(n *StubNotifier) {
		if number != "" {
			n.crisisLine = number
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(n *StubNotifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(n *StubNotifier) {
		if now != nil {
			n.now = now
		}
	}
}

// StubNotifier logs the escalation steps instead of calling anyone.
type StubNotifier struct {
	crisisLine string
	logger     logger.Logger
	now        func() time.Time
}

// NewStubNotifier creates a notifier.
func NewStubNotifier(opts ...Option) *StubNotifier {
	n := &StubNotifier{
		crisisLine: DefaultCrisisLine,
		logger:     logger.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// CrisisLine returns the configured number.
func (n *StubNotifier) CrisisLine() string { return n.crisisLine }

// Notify implements Notifier.
func (n *StubNotifier) Notify(ctx context.Context, alert model.Alert) (model.Incident, error) { //nolint:gocritic // hugeParam: Alert mirrors the queue payload
	if err := ctx.Err(); err != nil {
		return model.Incident{}, err
	}

	inc := model.Incident{
		ID:              uuid.NewString(),
		SnapshotVersion: alert.SnapshotVersion,
		Source:          alert.Source,
		State:           alert.Result.State,
		Risk:            alert.Result.Risk,
		Number:          n.crisisLine,
		Actions: []string{
			fmt.Sprintf("calling %s (crisis line)", n.crisisLine),
			actionSupervisorSMS,
			actionRegistered,
			fmt.Sprintf("expected response in %s", ExpectedResponseIn),
		},
		CreatedAt: n.now().UTC(),
	}

	n.logger.Warn(ctx, "emergency activated",
		logger.String("incident_id", inc.ID),
		logger.String("source", string(inc.Source)),
		logger.String("state", string(inc.State)),
		logger.Uint64("snapshot_version", inc.SnapshotVersion),
		logger.String("number", inc.Number),
	)
	for _, a := range inc.Actions {
		n.logger.Info(ctx, a, logger.String("incident_id", inc.ID))
	}
	return inc, nil
}
