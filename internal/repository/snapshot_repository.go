package repository

import (
	"context"
	"errors"

	"sim-sync/internal/domain"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository caches the last known lists of a game so a view can
// render them before the first load completes. The API stays the source
// of truth.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *domain.Snapshot) error
	Find(ctx context.Context, resource string, gameID int) (*domain.Snapshot, error)
	Delete(ctx context.Context, resource string, gameID int) error
	Close() error
}
