package status

import "github.com/aretw0/canvasflow/pkg/domain"

// Color returns the hex color used to draw a node in the given status.
func Color(s domain.NodeStatusValue) string {
	switch s {
	case domain.NodeRunning:
		return "#3b82f6"
	case domain.NodeCompleted:
		return "#22c55e"
	case domain.NodeError:
		return "#ef4444"
	case domain.NodeSkipped:
		return "#f59e0b"
	default:
		return "#9ca3af"
	}
}

// Icon returns the icon name for a status.
func Icon(s domain.NodeStatusValue) string {
	switch s {
	case domain.NodeRunning:
		return "loader"
	case domain.NodeCompleted:
		return "check-circle"
	case domain.NodeError:
		return "x-circle"
	case domain.NodeSkipped:
		return "skip-forward"
	default:
		return "circle"
	}
}
