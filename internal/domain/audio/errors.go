package audio

import "errors"

// Sentinel kinds for feature extraction errors.
var (
	// ErrInvalidInput reports an empty block, a non-positive sample rate or a
	// block whose length does not match the expected capture window.
	ErrInvalidInput = errors.New("invalid pcm block")
)
