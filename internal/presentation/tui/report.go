package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/status"
	"github.com/muesli/termenv"
)

var statusGlyph = map[domain.NodeStatusValue]string{
	domain.NodeIdle:      "○",
	domain.NodeRunning:   "◐",
	domain.NodeCompleted: "✔",
	domain.NodeError:     "✘",
	domain.NodeSkipped:   "↷",
}

// Reporter prints run summaries, colored when the output supports it.
type Reporter struct {
	out *termenv.Output
}

// NewReporter writes to w. Color support is detected from w; pass
// termenv.WithProfile to force a profile.
func NewReporter(w io.Writer, opts ...termenv.OutputOption) *Reporter {
	return &Reporter{out: termenv.NewOutput(w, opts...)}
}

func (r *Reporter) paint(s string, st domain.NodeStatusValue) termenv.Style {
	return r.out.String(s).Foreground(r.out.Color(status.Color(st)))
}

// Report prints one line per node in order, then the run outcome.
func (r *Reporter) Report(order []string, state *domain.ExecutionState) {
	for _, id := range order {
		st := nodeStatus(state, id)
		line := fmt.Sprintf("%s %-24s %s", statusGlyph[st], id, st)
		if res, ok := state.Results[id]; ok {
			if res.Failed() {
				line += ": " + res.Error
			} else if res.Duration > 0 {
				line += fmt.Sprintf(" (%s)", res.Duration.Round(time.Millisecond))
			}
		}
		fmt.Fprintln(r.out, r.paint(line, st))
	}

	summary := fmt.Sprintf("\nrun %s %s: %d completed, %d failed, %d skipped",
		state.RunID, state.Status, len(state.Completed), len(state.Failed), len(state.Skipped))
	if !state.StartedAt.IsZero() && !state.EndedAt.IsZero() {
		summary += fmt.Sprintf(" in %s", state.EndedAt.Sub(state.StartedAt).Round(time.Millisecond))
	}
	st := domain.NodeCompleted
	if state.Status != domain.StatusCompleted || len(state.Failed) > 0 {
		st = domain.NodeError
	}
	fmt.Fprintln(r.out, r.out.String(summary).Bold().Foreground(r.out.Color(status.Color(st))))
}

func nodeStatus(s *domain.ExecutionState, id string) domain.NodeStatusValue {
	switch {
	case s.Completed.Has(id):
		return domain.NodeCompleted
	case s.Failed.Has(id):
		return domain.NodeError
	case s.Skipped.Has(id):
		return domain.NodeSkipped
	case s.CurrentNodeID == id:
		return domain.NodeRunning
	}
	return domain.NodeIdle
}
