package capture

import "errors"

var (
	// ErrShortRead is returned when a recording holds less than one window.
	ErrShortRead = errors.New("recording shorter than one capture window")
	// ErrUnsupportedFormat is returned for anything but mono 16-bit PCM.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)
