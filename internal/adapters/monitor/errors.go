package monitor

import "errors"

// ErrCapture wraps failures of the audio source.
var ErrCapture = errors.New("capture failed")
