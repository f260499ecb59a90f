// Package repository persists escalation incidents.
package repository

import (
	"context"

	"github.com/okian/cabina/internal/domain/model"
)

// Store provides read/write access to recorded incidents.
type Store interface {
	// Save records an incident. Saving the same ID twice overwrites it.
	Save(ctx context.Context, inc model.Incident) error

	// Get returns one incident. Returns ErrNotFound if the ID is unknown.
	Get(ctx context.Context, id string) (model.Incident, error)

	// List returns up to limit incidents, newest first.
	List(ctx context.Context, limit int) ([]model.Incident, error)

	// Count returns the number of stored incidents.
	Count(ctx context.Context) (int, error)

	Close() error
}
