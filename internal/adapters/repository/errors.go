package repository

import "errors"

// Sentinel kinds for incident store errors.
var (
	ErrNotFound        = errors.New("incident not found")
	ErrInvalidLimit    = errors.New("invalid incident limit")
	ErrInvalidIncident = errors.New("invalid incident")
)
