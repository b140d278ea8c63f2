package status

import (
	"context"
	"fmt"

	"github.com/aretw0/canvasflow/pkg/domain"
)

// Hooks mirrors executor transitions into m. The table is cleared when a run
// starts; nodes still running when it finishes go back to idle.
func Hooks(m *Manager) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(context.Context, *domain.RunEvent) {
			m.ClearAll()
		},
		OnNodeStart: func(_ context.Context, ev *domain.NodeEvent) {
			m.Update(ev.NodeID, Patch{Status: ptr(domain.NodeRunning), Progress: ptr(0), Error: ptr("")})
		},
		OnNodeFinish: func(_ context.Context, ev *domain.NodeEvent) {
			p := Patch{Status: ptr(ev.Status)}
			if ev.Err != nil {
				p.Error = ptr(ev.Err.Error())
			} else {
				p.Progress = ptr(100)
			}
			m.Update(ev.NodeID, p)
		},
		OnNodeSkipped: func(_ context.Context, ev *domain.NodeEvent) {
			msg := "skipped"
			if ev.Cause != "" {
				msg = fmt.Sprintf("skipped: upstream node %s failed", ev.Cause)
			}
			m.Update(ev.NodeID, Patch{Status: ptr(domain.NodeSkipped), Message: &msg})
		},
		OnRunFinish: func(_ context.Context, ev *domain.RunEvent) {
			msg := "interrupted"
			if ev.Err != nil {
				msg = "interrupted: " + ev.Err.Error()
			}
			m.settleRunning(msg)
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
