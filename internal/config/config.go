// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"time"
)

// Capture source kinds.
const (
	SourceSynthetic = "synthetic"
	SourceFile      = "file"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SampleRate is the capture sample rate in Hz.
	SampleRate int `koanf:"sample_rate"`

	// CaptureSeconds is the length of one analysis window.
	CaptureSeconds int `koanf:"capture_seconds"`

	// PollIntervalMS is the pause between two monitor cycles.
	PollIntervalMS int `koanf:"poll_interval_ms"`

	// CaptureSource is "synthetic" or "file".
	CaptureSource string `koanf:"capture_source"`

	// CaptureFile is the PCM16LE or WAV file read by the file source.
	CaptureFile string `koanf:"capture_file"`

	// Classifier thresholds.
	LowVolume       float64 `koanf:"low_volume"`
	HighVolume      float64 `koanf:"high_volume"`
	HighVariability float64 `koanf:"high_variability"`

	// AlertQueueSize bounds the in-memory alert queue.
	AlertQueueSize int `koanf:"alert_queue_size"`

	// NotifierWorkers sets the number of escalation workers.
	NotifierWorkers int `koanf:"notifier_workers"`

	// EmergencyRatePerMin caps automatic escalations per minute.
	EmergencyRatePerMin int `koanf:"emergency_rate_per_min"`

	// CrisisLine is the number the notifier reports as called.
	CrisisLine string `koanf:"crisis_line"`

	// IncidentDir is the badger directory; ignored when IncidentInMemory is set.
	IncidentDir      string `koanf:"incident_dir"`
	IncidentInMemory bool   `koanf:"incident_in_memory"`

	// MQTT cabin bus; disabled when MQTTBroker is empty.
	MQTTBroker   string `koanf:"mqtt_broker"`
	MQTTClientID string `koanf:"mqtt_client_id"`
	MQTTTopic    string `koanf:"mqtt_topic"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":5000",
		SampleRate:          16000,
		CaptureSeconds:      3,
		PollIntervalMS:      500,
		CaptureSource:       SourceSynthetic,
		LowVolume:           1000,
		HighVolume:          8000,
		HighVariability:     2000,
		AlertQueueSize:      64,
		NotifierWorkers:     2,
		EmergencyRatePerMin: 6,
		CrisisLine:          "800-911-2000",
		IncidentDir:         "data/incidents",
		IncidentInMemory:    false,
		MQTTClientID:        "cabina-analyzer",
		MQTTTopic:           "cabina/state",
	}
}

// Validate checks the values Load cannot type-check.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample_rate must be positive", ErrInvalidConfig)
	case c.CaptureSeconds <= 0:
		return fmt.Errorf("%w: capture_seconds must be positive", ErrInvalidConfig)
	case c.PollIntervalMS <= 0:
		return fmt.Errorf("%w: poll_interval_ms must be positive", ErrInvalidConfig)
	case c.LowVolume > c.HighVolume:
		return fmt.Errorf("%w: low_volume %.0f exceeds high_volume %.0f", ErrInvalidConfig, c.LowVolume, c.HighVolume)
	case c.CaptureSource != SourceSynthetic && c.CaptureSource != SourceFile:
		return fmt.Errorf("%w: unknown capture_source %q", ErrInvalidConfig, c.CaptureSource)
	case c.CaptureSource == SourceFile && c.CaptureFile == "":
		return fmt.Errorf("%w: capture_file is required for the file source", ErrInvalidConfig)
	}
	return nil
}

// CaptureDuration returns the analysis window length.
func (c *Config) CaptureDuration() time.Duration {
	return time.Duration(c.CaptureSeconds) * time.Second
}

// PollInterval returns the pause between monitor cycles.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}
