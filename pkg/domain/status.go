package domain

import "time"

// NodeStatusValue is the per-node state shown to observers.
type NodeStatusValue string

const (
	NodeIdle      NodeStatusValue = "idle"
	NodeRunning   NodeStatusValue = "running"
	NodeCompleted NodeStatusValue = "completed"
	NodeError     NodeStatusValue = "error"
	NodeSkipped   NodeStatusValue = "skipped"
)

// NodeStatus is the observer-facing record of one node.
type NodeStatus struct {
	NodeID string          `json:"node_id"`
	Status NodeStatusValue `json:"status"`
	// Progress is a percentage in [0, 100] when known.
	Progress  *int      `json:"progress,omitempty"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
