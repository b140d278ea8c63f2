package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/canvasflow/internal/presentation/tui"
	"github.com/aretw0/canvasflow/pkg/adapters/file"
	"github.com/aretw0/canvasflow/pkg/runner"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	EngineOptions
	GraphPath string
	// Key serializes runs of the same workflow.
	Key string
	// JSON prints the final state as JSON instead of a report.
	JSON bool
	// Mermaid prints the graph colored by the run's outcome after the report.
	Mermaid bool
	Out     io.Writer
}

// Execute loads the graph, runs it and prints the outcome. The returned error
// is the run's error, if any.
func Execute(ctx context.Context, opts RunOptions, logger *slog.Logger) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	g, err := file.LoadGraph(opts.GraphPath)
	if err != nil {
		return err
	}

	eng, closeEngine, err := NewEngine(opts.EngineOptions, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	order, err := eng.ExecutionOrder(g)
	if err != nil {
		return err
	}

	runs := eng.Runner()
	runID, err := runs.Submit(ctx, runner.Request{Graph: g, Mode: opts.Mode, Key: opts.Key})
	if err != nil {
		return err
	}
	logger.Info("run submitted", "run_id", runID, "graph", opts.GraphPath)

	state, runErr := runs.Wait(ctx, runID)
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		if !opts.JSON {
			printSystemMessage(out, "Interrupted, stopping run %s...", runID)
		}
		runs.Stop(runID)
		state, runErr = runs.Wait(context.Background(), runID)
	}
	if state == nil {
		return runErr
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(state); err != nil {
			return fmt.Errorf("failed to encode state: %w", err)
		}
		return runErr
	}

	tui.NewReporter(out).Report(order, state)
	if opts.Mermaid {
		fmt.Fprintln(out)
		fmt.Fprint(out, eng.Mermaid(g, state))
	}
	return runErr
}
