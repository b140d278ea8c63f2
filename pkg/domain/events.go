package domain

import (
	"context"
	"time"
)

// RunEvent describes a run starting or finishing.
type RunEvent struct {
	RunID     string          `json:"run_id"`
	Mode      ExecutionMode   `json:"mode"`
	Status    ExecutionStatus `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Err       error           `json:"-"`
}

// NodeEvent describes a node transition inside a run.
type NodeEvent struct {
	RunID     string          `json:"run_id"`
	NodeID    string          `json:"node_id"`
	NodeType  string          `json:"node_type"`
	Status    NodeStatusValue `json:"status"`
	Duration  time.Duration   `json:"duration,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Err       error           `json:"-"`
	// Cause names the failed upstream node for skipped events.
	Cause string `json:"cause,omitempty"`
}

// LifecycleHooks are callbacks for observing runs. All are optional and are
// invoked from the coordinating goroutine.
type LifecycleHooks struct {
	OnRunStart    func(context.Context, *RunEvent)
	OnRunFinish   func(context.Context, *RunEvent)
	OnNodeStart   func(context.Context, *NodeEvent)
	OnNodeFinish  func(context.Context, *NodeEvent)
	OnNodeSkipped func(context.Context, *NodeEvent)
}

// MergeHooks chains several hook sets; each callback fires in argument order.
func MergeHooks(sets ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range sets {
		out.OnRunStart = chainRun(out.OnRunStart, h.OnRunStart)
		out.OnRunFinish = chainRun(out.OnRunFinish, h.OnRunFinish)
		out.OnNodeStart = chainNode(out.OnNodeStart, h.OnNodeStart)
		out.OnNodeFinish = chainNode(out.OnNodeFinish, h.OnNodeFinish)
		out.OnNodeSkipped = chainNode(out.OnNodeSkipped, h.OnNodeSkipped)
	}
	return out
}

func chainRun(a, b func(context.Context, *RunEvent)) func(context.Context, *RunEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *RunEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainNode(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
