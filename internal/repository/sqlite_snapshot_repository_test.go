package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sim-sync/internal/domain"
)

func TestSQLiteSnapshotRepository(t *testing.T) {
	repo, err := NewSQLiteSnapshotRepository(filepath.Join(t.TempDir(), "cache", "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()

	_, err = repo.Find(ctx, "shopping_lists", 32)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	snapshot := &domain.Snapshot{
		Resource: "shopping_lists",
		GameID:   32,
		Lists: []domain.List{
			{ID: 1, GameID: 32, Aggregate: true, Title: domain.AggregateListTitle, Items: []domain.Item{{ID: 5, ListID: 1, Description: "Ebony sword", Quantity: 1}}},
			{ID: 2, GameID: 32, Title: "Lakeview Manor", Items: []domain.Item{{ID: 9, ListID: 2, Description: "Ebony sword", Quantity: 1}}},
		},
	}
	require.NoError(t, repo.Save(ctx, snapshot))

	got, err := repo.Find(ctx, "shopping_lists", 32)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Lists, got.Lists)
	assert.False(t, got.SavedAt.IsZero())

	// Overwrite replaces the payload.
	snapshot.Lists = snapshot.Lists[:0]
	require.NoError(t, repo.Save(ctx, snapshot))
	got, err = repo.Find(ctx, "shopping_lists", 32)
	require.NoError(t, err)
	assert.Empty(t, got.Lists)

	_, err = repo.Find(ctx, "wish_lists", 32)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	require.NoError(t, repo.Delete(ctx, "shopping_lists", 32))
	_, err = repo.Find(ctx, "shopping_lists", 32)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}
