package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	snapID := "contract-test-snapshot-" + time.Now().Format("20060102150405")

	newSnapshot := func(id string) *domain.Snapshot {
		snap := domain.NewSnapshot(id)
		snap.Root = "1"
		snap.Objects["1"] = &domain.ObjectRecord{
			Class:      "Node",
			Properties: map[string]json.RawMessage{"title": json.RawMessage(`"root"`)},
			References: map[string][]string{"children": {"2", ""}},
		}
		snap.Objects["2"] = &domain.ObjectRecord{Class: "Node"}
		return snap
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := newSnapshot(snapID)

		err := store.Save(ctx, snapID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, snapID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "1", loaded.Root)
		require.Contains(t, loaded.Objects, "1")
		assert.Equal(t, "Node", loaded.Objects["1"].Class)
		assert.JSONEq(t, `"root"`, string(loaded.Objects["1"].Properties["title"]))
		assert.Equal(t, []string{"2", ""}, loaded.Objects["1"].References["children"])
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, snapID)
		require.NoError(t, err)
		loaded.Objects["1"].Class = "Mutated"

		again, err := store.Load(ctx, snapID)
		require.NoError(t, err)
		assert.Equal(t, "Node", again.Objects["1"].Class)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+snapID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, snapID, newSnapshot(snapID))
		require.NoError(t, err)

		err = store.Delete(ctx, snapID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, snapID)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")
	})

	t.Run("Reserved looking IDs keep the listing intact", func(t *testing.T) {
		kept := snapID + "-kept"
		require.NoError(t, store.Save(ctx, kept, newSnapshot(kept)))
		defer func() { _ = store.Delete(ctx, kept) }()

		// A store may refuse these IDs, but must not corrupt its other entries.
		for _, id := range []string{"index", "_index"} {
			if err := store.Save(ctx, id, newSnapshot(id)); err == nil {
				loaded, err := store.Load(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, "1", loaded.Root)
				_ = store.Delete(ctx, id)
			}
		}

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, kept)
		_, err = store.Load(ctx, kept)
		require.NoError(t, err)
	})

	t.Run("List", func(t *testing.T) {
		id1 := snapID + "-1"
		id2 := snapID + "-2"
		_ = store.Save(ctx, id1, newSnapshot(id1))
		_ = store.Save(ctx, id2, newSnapshot(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
