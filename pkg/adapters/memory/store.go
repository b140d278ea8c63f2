package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/canvasflow/pkg/domain"
)

// Store implements ports.RunStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.ExecutionState
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.ExecutionState),
	}
}

// Save keeps a copy of state so later mutations by the caller are not seen.
func (s *Store) Save(ctx context.Context, runID string, state *domain.ExecutionState) error {
	snapshot := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID] = snapshot
	return nil
}

// Load returns a copy of the stored state.
func (s *Store) Load(ctx context.Context, runID string) (*domain.ExecutionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return state.Clone(), nil
}

// Delete removes the run.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns stored run ids in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data)), nil
}
