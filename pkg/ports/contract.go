package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract verifies that a RunStore implementation honours the
// interface contract. Adapters call it from their own tests.
func RunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405")

	sample := func(id string) *domain.ExecutionState {
		s := domain.NewExecutionState(domain.ModeAutomatic)
		s.RunID = id
		s.Status = domain.StatusCompleted
		s.StartedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		s.EndedAt = s.StartedAt.Add(2 * time.Second)
		s.Completed.Add("prompt")
		s.Failed.Add("render")
		s.Skipped.Add("gallery")
		s.Results["prompt"] = domain.NodeResult{Output: "a glass pavilion", Duration: time.Second, Timestamp: s.StartedAt}
		s.Results["render"] = domain.NodeResult{Error: "gpu unavailable", Timestamp: s.EndedAt}
		return s
	}

	t.Run("Save and Load", func(t *testing.T) {
		state := sample(runID)
		require.NoError(t, store.Save(ctx, runID, state), "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, runID, loaded.RunID)
		assert.Equal(t, domain.StatusCompleted, loaded.Status)
		assert.Equal(t, domain.ModeAutomatic, loaded.Mode)
		assert.Equal(t, []string{"prompt"}, loaded.Completed.Sorted())
		assert.Equal(t, []string{"render"}, loaded.Failed.Sorted())
		assert.Equal(t, []string{"gallery"}, loaded.Skipped.Sorted())
		assert.Equal(t, "a glass pavilion", loaded.Results["prompt"].Output)
		assert.Equal(t, "gpu unavailable", loaded.Results["render"].Error)
		assert.True(t, state.StartedAt.Equal(loaded.StartedAt))
	})

	t.Run("Saved snapshot is isolated", func(t *testing.T) {
		state := sample(runID)
		require.NoError(t, store.Save(ctx, runID, state))
		state.Completed.Add("mutated-after-save")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.False(t, loaded.Completed.Has("mutated-after-save"))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, runID, sample(runID)))
		require.NoError(t, store.Delete(ctx, runID), "Delete should not return error")

		_, err := store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		require.NoError(t, store.Save(ctx, id1, sample(id1)))
		require.NoError(t, store.Save(ctx, id2, sample(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
