// Package storage provides abstractions for the local snapshot cache.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/zaman-app/zaman-cli/internal/models"
)

// ErrNoSnapshot is returned by Load when no snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot saved")

// Snapshot is the last successfully fetched aim set, kept for offline use.
type Snapshot struct {
	// FetchedAt is when the aim set was fetched from the backend.
	FetchedAt time.Time

	// Aims are the records in the order the backend returned them.
	Aims []models.Aim
}

// SnapshotStore persists the aim set between runs. This abstraction keeps the
// CLI independent of the cache backend (SQLite today).
type SnapshotStore interface {
	// Save replaces the stored snapshot with the given aim set.
	Save(ctx context.Context, aims []models.Aim) error

	// Load returns the stored snapshot, or ErrNoSnapshot if none exists.
	Load(ctx context.Context) (*Snapshot, error)

	// Close releases any resources held by the store.
	Close() error
}
