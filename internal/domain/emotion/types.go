package emotion

import (
	"fmt"
	"strings"

	"github.com/okian/cabina/internal/domain/audio"
)

// State is the emotional-state label produced by classification. It is also
// the lookup key for downstream response protocols.
type State string

// Known states.
const (
	StateStable     State = "stable"
	StateSadness    State = "sadness"
	StateDepression State = "depression"
	StateAnxiety    State = "anxiety"
	StateCrisis     State = "crisis"
)

// States lists every state in declaration order.
func States() []State {
	return []State{StateStable, StateSadness, StateDepression, StateAnxiety, StateCrisis}
}

// ParseState maps a case-insensitive name onto a known State.
func ParseState(s string) (State, error) {
	st := State(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range States() {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownState, s)
}

// RiskTier is an ordered severity attached to a classification.
type RiskTier int

// Risk tiers, lowest first.
const (
	RiskNormal RiskTier = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

var riskNames = [...]string{"normal", "medium", "high", "critical"}

func (r RiskTier) String() string {
	if r < RiskNormal || r > RiskCritical {
		return fmt.Sprintf("risk(%d)", int(r))
	}
	return riskNames[r]
}

// AtLeast reports whether r is as severe as other or more.
func (r RiskTier) AtLeast(other RiskTier) bool { return r >= other }

// MarshalText encodes the tier by name.
func (r RiskTier) MarshalText() ([]byte, error) {
	if r < RiskNormal || r > RiskCritical {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRisk, int(r))
	}
	return []byte(riskNames[r]), nil
}

// UnmarshalText decodes a tier name.
func (r *RiskTier) UnmarshalText(b []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range riskNames {
		if n == name {
			*r = RiskTier(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownRisk, string(b))
}

// Result is the outcome of classifying one feature set.
type Result struct {
	State       State          `json:"state"`
	Risk        RiskTier       `json:"risk_tier"`
	Confidence  float64        `json:"confidence"`
	Explanation string         `json:"explanation"`
	Features    audio.Features `json:"features"`
	// Rule is the 1-based position of the matched rule; 0 means fallback.
	Rule int `json:"rule"`
}
