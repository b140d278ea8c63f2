package ports_test

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sync"
	"testing"

	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/ports"
)

// jsonStore round-trips every snapshot through JSON, like a remote backend.
type jsonStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (s *jsonStore) Save(_ context.Context, runID string, state *domain.ExecutionState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID] = b
	return nil
}

func (s *jsonStore) Load(_ context.Context, runID string) (*domain.ExecutionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	var state domain.ExecutionState
	return &state, json.Unmarshal(b, &state)
}

func (s *jsonStore) Delete(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

func (s *jsonStore) List(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.data)), nil
}

func TestRunStoreContract_JSONRoundTrip(t *testing.T) {
	ports.RunStoreContract(t, &jsonStore{data: map[string][]byte{}})
}
