package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

func TestCollectionStore_SaveGet(t *testing.T) {
	store := NewCollectionStore()
	ctx := context.Background()

	collection := domain.Collection{
		ID:      "col-1",
		Name:    "work-gmail",
		Adapter: "gmail",
	}
	require.NoError(t, store.Save(ctx, collection))

	retrieved, err := store.Get(ctx, "col-1")
	require.NoError(t, err)
	assert.Equal(t, "work-gmail", retrieved.Name)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollectionStore_GetByName(t *testing.T) {
	store := NewCollectionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Collection{ID: "col-1", Name: "work-gmail"}))

	retrieved, err := store.GetByName(ctx, "work-gmail")
	require.NoError(t, err)
	assert.Equal(t, "col-1", retrieved.ID)

	_, err = store.GetByName(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCollectionStore_ListFiltersAndOrder(t *testing.T) {
	store := NewCollectionStore()
	ctx := context.Background()
	now := time.Now().UTC()

	_ = store.Save(ctx, domain.Collection{ID: "a", Adapter: "gmail", Enabled: true, CreatedAt: now.Add(-2 * time.Hour)})
	_ = store.Save(ctx, domain.Collection{ID: "b", Adapter: "drive", Enabled: true, CreatedAt: now.Add(-time.Hour)})
	_ = store.Save(ctx, domain.Collection{ID: "c", Adapter: "gmail", Enabled: false, CreatedAt: now})

	all, err := store.List(ctx, domain.CollectionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	adapter := "gmail"
	enabled := true
	filtered, err := store.List(ctx, domain.CollectionFilter{Adapter: &adapter, Enabled: &enabled})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "a", filtered[0].ID)
}

func TestCollectionStore_SetStatus(t *testing.T) {
	store := NewCollectionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Collection{ID: "col-1", Status: domain.CollectionConfigured}))
	require.NoError(t, store.SetStatus(ctx, "col-1", domain.CollectionRunning))

	retrieved, err := store.Get(ctx, "col-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CollectionRunning, retrieved.Status)

	err = store.SetStatus(ctx, "missing", domain.CollectionIdle)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunStore_CheckpointAndErrors(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	run := domain.Run{ID: "run-1", CollectionID: "col-1", Status: domain.RunRunning}
	require.NoError(t, store.Save(ctx, run))

	require.NoError(t, store.SaveCheckpoint(ctx, "run-1", "cursor-5"))
	retrieved, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "cursor-5", retrieved.Checkpoint)

	require.NoError(t, store.RecordError(ctx, domain.RunError{RunID: "run-1", Code: "fetch_failed", Message: "boom"}))
	retrieved, err = store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, retrieved.ErrorCount)

	recorded, err := store.ListErrors(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.NotEmpty(t, recorded[0].ID)
	assert.False(t, recorded[0].OccurredAt.IsZero())
}

func TestRunStore_ListByCollection(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()
	now := time.Now().UTC()

	_ = store.Save(ctx, domain.Run{ID: "r1", CollectionID: "col-1", StartedAt: now.Add(-2 * time.Hour)})
	_ = store.Save(ctx, domain.Run{ID: "r2", CollectionID: "col-1", StartedAt: now})
	_ = store.Save(ctx, domain.Run{ID: "r3", CollectionID: "col-2", StartedAt: now})

	runs, err := store.ListByCollection(ctx, "col-1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r2", runs[0].ID)

	limited, err := store.ListByCollection(ctx, "col-1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRunStore_ReconcileStale(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	_ = store.Save(ctx, domain.Run{ID: "stale", CollectionID: "col-1", Status: domain.RunRunning, Checkpoint: "cursor-3"})
	_ = store.Save(ctx, domain.Run{ID: "done", CollectionID: "col-1", Status: domain.RunCompleted})

	count, err := store.ReconcileStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stale, err := store.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, stale.Status)
	assert.Equal(t, "cursor-3", stale.Checkpoint)

	recorded, err := store.ListErrors(ctx, "stale")
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, "interrupted", recorded[0].Code)
}

func TestStore_WithTx(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.WithTx(ctx, func(st *driven.Stores) error {
		if err := st.Collections.Save(ctx, domain.Collection{ID: "col-1"}); err != nil {
			return err
		}
		return st.Runs.Save(ctx, domain.Run{ID: "run-1", CollectionID: "col-1"})
	})
	require.NoError(t, err)

	_, err = store.CollectionStore().Get(ctx, "col-1")
	assert.NoError(t, err)
	_, err = store.RunStore().Get(ctx, "run-1")
	assert.NoError(t, err)
}
