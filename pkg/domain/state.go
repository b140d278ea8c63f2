package domain

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

// ExecutionStatus is the overall status of a run.
type ExecutionStatus string

const (
	StatusIdle      ExecutionStatus = "idle"
	StatusRunning   ExecutionStatus = "running"
	StatusPaused    ExecutionStatus = "paused"
	StatusCompleted ExecutionStatus = "completed"
	StatusError     ExecutionStatus = "error"
)

// Terminal reports whether no further transitions happen from s.
func (s ExecutionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// ExecutionMode governs how a node failure affects the run.
type ExecutionMode string

const (
	// ModeManual aborts the run on the first node failure.
	ModeManual ExecutionMode = "manual"
	// ModeAutomatic contains failures: dependents are skipped, the rest runs.
	ModeAutomatic   ExecutionMode = "automatic"
	ModeScheduled   ExecutionMode = "scheduled"
	ModeEventDriven ExecutionMode = "event_driven"
)

// ParseExecutionMode validates a mode name.
func ParseExecutionMode(s string) (ExecutionMode, error) {
	switch m := ExecutionMode(s); m {
	case ModeManual, ModeAutomatic, ModeScheduled, ModeEventDriven:
		return m, nil
	}
	return "", fmt.Errorf("unknown execution mode %q", s)
}

// AbortsOnFailure reports whether a single node failure ends the run.
func (m ExecutionMode) AbortsOnFailure() bool {
	return m == ModeManual
}

// NodeSet is a set of node ids. It encodes as a sorted JSON array.
type NodeSet map[string]struct{}

func NewNodeSet(ids ...string) NodeSet {
	s := make(NodeSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s NodeSet) Add(id string) { s[id] = struct{}{} }

func (s NodeSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in lexical order.
func (s NodeSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

func (s NodeSet) Clone() NodeSet {
	if s == nil {
		return NodeSet{}
	}
	return maps.Clone(s)
}

func (s NodeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *NodeSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewNodeSet(ids...)
	return nil
}

// NodeResult is the recorded outcome of one node.
type NodeResult struct {
	Output    any           `json:"output,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
	Error     string        `json:"error,omitempty"`
}

// Failed reports whether the node errored.
func (r NodeResult) Failed() bool {
	return r.Error != ""
}

// ExecutionState is the snapshot of one run. Completed, Failed and Skipped are
// pairwise disjoint; once Status is terminal their union is every node.
type ExecutionState struct {
	RunID         string                `json:"run_id"`
	Status        ExecutionStatus       `json:"status"`
	Mode          ExecutionMode         `json:"mode"`
	CurrentNodeID string                `json:"current_node_id,omitempty"`
	Completed     NodeSet               `json:"completed"`
	Failed        NodeSet               `json:"failed"`
	Skipped       NodeSet               `json:"skipped"`
	Results       map[string]NodeResult `json:"results"`
	StartedAt     time.Time             `json:"started_at,omitzero"`
	EndedAt       time.Time             `json:"ended_at,omitzero"`
	Error         string                `json:"error,omitempty"`
}

// NewExecutionState creates a clean idle state.
func NewExecutionState(mode ExecutionMode) *ExecutionState {
	return &ExecutionState{
		Status:    StatusIdle,
		Mode:      mode,
		Completed: NodeSet{},
		Failed:    NodeSet{},
		Skipped:   NodeSet{},
		Results:   make(map[string]NodeResult),
	}
}

// Accounted reports whether the node has reached a final per-node outcome.
func (s *ExecutionState) Accounted(id string) bool {
	return s.Completed.Has(id) || s.Failed.Has(id) || s.Skipped.Has(id)
}

// AccountedCount is |completed| + |failed| + |skipped|.
func (s *ExecutionState) AccountedCount() int {
	return len(s.Completed) + len(s.Failed) + len(s.Skipped)
}

// Clone returns a deep copy; node outputs themselves are shared.
func (s *ExecutionState) Clone() *ExecutionState {
	if s == nil {
		return nil
	}
	c := *s
	c.Completed = s.Completed.Clone()
	c.Failed = s.Failed.Clone()
	c.Skipped = s.Skipped.Clone()
	c.Results = maps.Clone(s.Results)
	if c.Results == nil {
		c.Results = make(map[string]NodeResult)
	}
	return &c
}
