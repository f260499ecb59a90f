// Package emotion maps voice features onto an emotional state and risk tier
// through an ordered rule table.
package emotion

import (
	"github.com/okian/cabina/internal/domain/audio"
)

// Default calibration constants.
const (
	DefaultLowVolume       = 1000
	DefaultHighVolume      = 8000
	DefaultHighVariability = 2000

	// Confidence is reported for every classification. It is a fixed
	// value, not derived from how strongly a rule matched.
	Confidence = 0.85

	fallbackExplanation = "parameters within normal range"
)

// Thresholds holds every boundary used by the rule table. All comparisons
// against them are strict.
type Thresholds struct {
	LowVolume       float64 `json:"low_volume"`
	HighVolume      float64 `json:"high_volume"`
	HighVariability float64 `json:"high_variability"`
	FlatVariability float64 `json:"flat_variability"`
	FrequentPauses  float64 `json:"frequent_pauses"`
	SubduedVolume   float64 `json:"subdued_volume"`
	LowPitchHz      float64 `json:"low_pitch_hz"`
	MinPitchHz      float64 `json:"min_pitch_hz"`
	CrisisVolume    float64 `json:"crisis_volume"`
	LongPauses      float64 `json:"long_pauses"`
}

// DefaultThresholds returns the calibrated defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowVolume:       DefaultLowVolume,
		HighVolume:      DefaultHighVolume,
		HighVariability: DefaultHighVariability,
		FlatVariability: 1000,
		FrequentPauses:  5,
		SubduedVolume:   3000,
		LowPitchHz:      150,
		MinPitchHz:      0,
		CrisisVolume:    800,
		LongPauses:      8,
	}
}

// Rule is one row of the classification table.
type Rule struct {
	State       State
	Risk        RiskTier
	Explanation string
	Match       func(f audio.Features, t Thresholds) bool
}

// defaultRules is evaluated top to bottom and the first match wins.
// Rules 1 and 4 overlap; rule 1 must stay ahead of rule 4.
var defaultRules = []Rule{
	{
		State:       StateDepression,
		Risk:        RiskHigh,
		Explanation: "sustained low energy + frequent pauses",
		Match: func(f audio.Features, t Thresholds) bool {
			return f.MeanAmplitude < t.LowVolume && f.Variability < t.FlatVariability && f.SilenceSegmentCount > t.FrequentPauses
		},
	},
	{
		State:       StateAnxiety,
		Risk:        RiskMedium,
		Explanation: "loud and erratic",
		Match: func(f audio.Features, t Thresholds) bool {
			return f.MeanAmplitude > t.HighVolume && f.Variability > t.HighVariability
		},
	},
	{
		State:       StateSadness,
		Risk:        RiskMedium,
		Explanation: "subdued, low-pitched",
		// A block without zero crossings has no measurable pitch.
		Match: func(f audio.Features, t Thresholds) bool {
			return f.MeanAmplitude < t.SubduedVolume && f.FrequencyEstimateHz < t.LowPitchHz && f.FrequencyEstimateHz > t.MinPitchHz
		},
	},
	{
		State:       StateCrisis,
		Risk:        RiskCritical,
		Explanation: "extreme quiet with long pauses",
		Match: func(f audio.Features, t Thresholds) bool {
			return f.MeanAmplitude < t.CrisisVolume && f.SilenceSegmentCount > t.LongPauses
		},
	},
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithThresholds replaces the whole threshold set.
func WithThresholds(t Thresholds) Option {
	return func(c *Classifier) {
		c.thresholds = t
	}
}

// WithLowVolume sets the depression volume ceiling.
func WithLowVolume(v float64) Option {
	return func(c *Classifier) {
		if v > 0 {
			c.thresholds.LowVolume = v
		}
	}
}

// WithHighVolume sets the anxiety volume floor.
func WithHighVolume(v float64) Option {
	return func(c *Classifier) {
		if v > 0 {
			c.thresholds.HighVolume = v
		}
	}
}

// WithHighVariability sets the anxiety variability floor.
func WithHighVariability(v float64) Option {
	return func(c *Classifier) {
		if v > 0 {
			c.thresholds.HighVariability = v
		}
	}
}

// WithRules replaces the rule table. An empty table leaves only the fallback.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) {
		c.rules = append([]Rule(nil), rules...)
	}
}

// Classifier evaluates the rule table. It holds no mutable state and is
// safe for concurrent use.
type Classifier struct {
	thresholds Thresholds
	rules      []Rule
}

// NewClassifier creates a classifier with default thresholds and rules.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		thresholds: DefaultThresholds(),
		rules:      Rules(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rules returns a copy of the default ordered rule table.
func Rules() []Rule {
	return append([]Rule(nil), defaultRules...)
}

// Thresholds returns the thresholds in use.
func (c *Classifier) Thresholds() Thresholds { return c.thresholds }

// Rules returns a copy of the rule table in evaluation order.
func (c *Classifier) Rules() []Rule { return append([]Rule(nil), c.rules...) }

// Classify returns the outcome of the first matching rule, or stable/normal
// when none matches.
func (c *Classifier) Classify(f audio.Features) Result {
	for i, r := range c.rules {
		if r.Match(f, c.thresholds) {
			return Result{
				State:       r.State,
				Risk:        r.Risk,
				Confidence:  Confidence,
				Explanation: r.Explanation,
				Features:    f,
				Rule:        i + 1,
			}
		}
	}
	return Result{
		State:       StateStable,
		Risk:        RiskNormal,
		Confidence:  Confidence,
		Explanation: fallbackExplanation,
		Features:    f,
	}
}

// Analyze extracts features from block and classifies them.
func (c *Classifier) Analyze(block audio.Block, sampleRate int) (Result, error) {
	f, err := audio.Extract(block, sampleRate)
	if err != nil {
		return Result{}, err
	}
	return c.Classify(f), nil
}
