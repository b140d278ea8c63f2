package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/canvasflow/pkg/domain"
)

// LogHooks writes an audit record for every run and node transition.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run_start", "run_id", e.RunID, "mode", e.Mode)
		},
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			attrs := []any{"run_id", e.RunID, "status", e.Status}
			if e.Err != nil {
				logger.WarnContext(ctx, "run_finish", append(attrs, "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "run_finish", attrs...)
		},
		OnNodeStart: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_start", "run_id", e.RunID, "node_id", e.NodeID, "type", e.NodeType)
		},
		OnNodeFinish: func(ctx context.Context, e *domain.NodeEvent) {
			attrs := []any{"run_id", e.RunID, "node_id", e.NodeID, "type", e.NodeType, "status", e.Status, "duration", e.Duration}
			if e.Err != nil {
				logger.WarnContext(ctx, "node_finish", append(attrs, "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "node_finish", attrs...)
		},
		OnNodeSkipped: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_skipped", "run_id", e.RunID, "node_id", e.NodeID, "cause", e.Cause)
		},
	}
}
