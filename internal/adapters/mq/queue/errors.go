package queue

import "errors"

// Sentinel errors returned by Enqueue.
var (
	ErrFull   = errors.New("alert queue full")
	ErrClosed = errors.New("alert queue closed")
)
