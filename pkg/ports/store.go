package ports

import (
	"context"

	"github.com/aretw0/refgraph/pkg/domain"
)

// SnapshotStore defines the interface for persisting object graph snapshots.
type SnapshotStore interface {
	// Save persists the snapshot under the given ID.
	Save(ctx context.Context, id string, snap *domain.Snapshot) error

	// Load retrieves the snapshot with the given ID.
	// Returns domain.ErrSnapshotNotFound if the snapshot does not exist.
	Load(ctx context.Context, id string) (*domain.Snapshot, error)

	// Delete removes the snapshot with the given ID.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored snapshots.
	List(ctx context.Context) ([]string, error)
}
