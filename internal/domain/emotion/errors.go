package emotion

import "errors"

// Sentinel kinds for emotion errors.
var (
	ErrUnknownState = errors.New("unknown emotional state")
	ErrUnknownRisk  = errors.New("unknown risk tier")
)
