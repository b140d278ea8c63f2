package ports

import (
	"context"

	"github.com/aretw0/canvasflow/pkg/domain"
)

// RunStore persists execution state snapshots keyed by run id, so a run can be
// inspected after the process that drove it has moved on.
type RunStore interface {
	// Save persists the state of a run, replacing any previous snapshot.
	Save(ctx context.Context, runID string, state *domain.ExecutionState) error

	// Load retrieves the snapshot of a run.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.ExecutionState, error)

	// Delete removes a run.
	Delete(ctx context.Context, runID string) error

	// List returns the ids of stored runs.
	List(ctx context.Context) ([]string, error)
}
