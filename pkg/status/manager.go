// Package status keeps a per-node side table of execution status for
// observers. It never influences scheduling.
package status

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/canvasflow/pkg/domain"
)

// Patch carries the fields to change in Update. Nil fields are left alone.
type Patch struct {
	Status   *domain.NodeStatusValue
	Progress *int
	Message  *string
	Error    *string
}

// Manager is a concurrency-safe map of node id to status.
type Manager struct {
	mu       sync.RWMutex
	statuses map[string]domain.NodeStatus
	now      func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock replaces time.Now for UpdatedAt stamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates an empty status table.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		statuses: make(map[string]domain.NodeStatus),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Set replaces the status of a node.
func (m *Manager) Set(s domain.NodeStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Progress = clampProgress(s.Progress)
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = m.now()
	}
	m.statuses[s.NodeID] = s
}

// Get returns the status of a node.
func (m *Manager) Get(nodeID string) (domain.NodeStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.statuses[nodeID]
	return s, ok
}

// Update merges p into the node's status, creating an idle entry first if the
// node is unknown. It returns the merged status.
func (m *Manager) Update(nodeID string, p Patch) domain.NodeStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.statuses[nodeID]
	if !ok {
		s = domain.NodeStatus{NodeID: nodeID, Status: domain.NodeIdle}
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Progress != nil {
		s.Progress = clampProgress(p.Progress)
	}
	if p.Message != nil {
		s.Message = *p.Message
	}
	if p.Error != nil {
		s.Error = *p.Error
	}
	s.UpdatedAt = m.now()
	m.statuses[nodeID] = s
	return s
}

// Clear forgets a node.
func (m *Manager) Clear(nodeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statuses, nodeID)
}

// ClearAll empties the table.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.statuses)
}

// settleRunning moves every running entry to idle with msg.
func (m *Manager) settleRunning(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.statuses {
		if s.Status != domain.NodeRunning {
			continue
		}
		s.Status = domain.NodeIdle
		s.Message = msg
		s.UpdatedAt = m.now()
		m.statuses[id] = s
	}
}

// All returns every status ordered by node id.
func (m *Manager) All() []domain.NodeStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.NodeStatus, 0, len(m.statuses))
	for _, id := range slices.Sorted(maps.Keys(m.statuses)) {
		out = append(out, m.statuses[id])
	}
	return out
}

func clampProgress(p *int) *int {
	if p == nil {
		return nil
	}
	v := min(max(*p, 0), 100)
	return &v
}
