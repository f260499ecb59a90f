// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/cabina/internal/domain/emotion"
)

// Snapshot is one published classification. Snapshots are immutable; each
// monitor cycle publishes a new one with a higher Version.
type Snapshot struct {
	Version   uint64         `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
	Result    emotion.Result `json:"result"`
}

// Critical reports whether the snapshot requires escalation.
func (s Snapshot) Critical() bool {
	return s.Result.Risk.AtLeast(emotion.RiskCritical)
}

// AlertSource tells where an escalation came from.
type AlertSource string

// Alert sources.
const (
	SourceMonitor AlertSource = "monitor"
	SourceManual  AlertSource = "manual"
)

// Alert asks the notifier to escalate one classification.
type Alert struct {
	SnapshotVersion uint64         `json:"snapshot_version"`
	Source          AlertSource    `json:"source"`
	Result          emotion.Result `json:"result"`
	RaisedAt        time.Time      `json:"raised_at"`
}

// Incident records an escalation that was handed to the notifier.
type Incident struct {
	ID              string           `json:"incident_id" msgpack:"id"`
	SnapshotVersion uint64           `json:"snapshot_version" msgpack:"snapshot_version"`
	Source          AlertSource      `json:"source" msgpack:"source"`
	State           emotion.State    `json:"state" msgpack:"state"`
	Risk            emotion.RiskTier `json:"risk_tier" msgpack:"risk"`
	Number          string           `json:"number" msgpack:"number"`
	Actions         []string         `json:"actions" msgpack:"actions"`
	CreatedAt       time.Time        `json:"created_at" msgpack:"created_at"`
}
