// Package executor runs workflow graphs: it orders nodes topologically and
// dispatches every ready node of a batch concurrently, one batch at a time.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/registry"
)

// ExecuteFunc performs the work of a single node. It is called only after
// every dependency of nodeID has completed. input is keyed by the node's
// input port ids.
type ExecuteFunc func(ctx context.Context, nodeID string, input map[string]any) (any, error)

// Executor drives runs of a workflow graph. A single Executor handles one run
// at a time; Pause, Resume, Stop, State and friends are safe to call from
// other goroutines while Start blocks.
type Executor struct {
	registry *registry.Registry
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	mode     domain.ExecutionMode
	newRunID func() string

	mu    sync.Mutex
	state *domain.ExecutionState
	graph *DependencyGraph
	nodes map[string]domain.NodeInstance
	edges []domain.Connection
	// generation increments whenever the current run is stopped or reset, so
	// a coordinator can tell its results are stale.
	generation uint64
	wake       chan struct{}
}

// New creates an executor that resolves ports through reg.
func New(reg *registry.Registry, opts ...Option) *Executor {
	e := &Executor{
		registry: reg,
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range append(defaults(), opts...) {
		opt(e)
	}
	e.state = domain.NewExecutionState(e.mode)
	return e
}

// Mode returns the configured execution mode.
func (e *Executor) Mode() domain.ExecutionMode {
	return e.mode
}

// BuildDependencyGraph derives and stores the dependency graph of nodes and
// edges for the readiness queries. It fails on cycles and dangling edges.
func (e *Executor) BuildDependencyGraph(nodes []domain.NodeInstance, edges []domain.Connection) (*DependencyGraph, error) {
	g, err := Build(nodes, edges)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.load(g, nodes, edges)
	return g, nil
}

func (e *Executor) load(g *DependencyGraph, nodes []domain.NodeInstance, edges []domain.Connection) {
	e.graph = g
	e.nodes = make(map[string]domain.NodeInstance, len(nodes))
	for _, n := range nodes {
		e.nodes[n.ID] = n
	}
	e.edges = append([]domain.Connection(nil), edges...)
}

// ExecutionOrder returns the topological order of the loaded graph.
func (e *Executor) ExecutionOrder() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return nil, errors.New("no dependency graph loaded")
	}
	return e.graph.Order(), nil
}

// Dependencies returns the upstream node ids of nodeID in the loaded graph.
func (e *Executor) Dependencies(nodeID string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return nil
	}
	return e.graph.Dependencies(nodeID)
}

// IsNodeReady reports whether nodeID has not run yet and every dependency has
// completed.
func (e *Executor) IsNodeReady(nodeID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readyLocked(nodeID)
}

// ReadyNodes returns the current ready set in topological order.
func (e *Executor) ReadyNodes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readySetLocked()
}

func (e *Executor) readyLocked(nodeID string) bool {
	if e.graph == nil {
		return false
	}
	if _, ok := e.graph.types[nodeID]; !ok || e.state.Accounted(nodeID) {
		return false
	}
	for _, dep := range e.graph.dependencies[nodeID] {
		if !e.state.Completed.Has(dep) {
			return false
		}
	}
	return true
}

func (e *Executor) readySetLocked() []string {
	if e.graph == nil {
		return nil
	}
	var ready []string
	for _, id := range e.graph.order {
		if e.readyLocked(id) {
			ready = append(ready, id)
		}
	}
	return ready
}

// State returns a copy of the current execution state.
func (e *Executor) State() *domain.ExecutionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// NodeResult returns the stored outcome of nodeID.
func (e *Executor) NodeResult(nodeID string) (domain.NodeResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.state.Results[nodeID]
	return r, ok
}

// Pause suspends dispatch after the in-flight batch settles. It only applies
// to a running executor.
func (e *Executor) Pause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Status != domain.StatusRunning {
		return false
	}
	e.state.Status = domain.StatusPaused
	e.logger.Info("run paused", "run_id", e.state.RunID)
	return true
}

// Resume continues a paused run.
func (e *Executor) Resume() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Status != domain.StatusPaused {
		return false
	}
	e.state.Status = domain.StatusRunning
	e.logger.Info("run resumed", "run_id", e.state.RunID)
	e.signal()
	return true
}

// Stop forces the executor back to idle and records the end time. Work
// already dispatched is not cancelled but its results are discarded.
// Terminal states are frozen and are left untouched.
func (e *Executor) Stop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Status.Terminal() {
		return false
	}
	e.state.Status = domain.StatusIdle
	e.state.CurrentNodeID = ""
	e.state.EndedAt = time.Now()
	e.generation++
	e.logger.Info("run stopped", "run_id", e.state.RunID)
	e.signal()
	return true
}

// Reset clears the state, the loaded graph and any results. The execution
// mode is preserved. A run in progress is abandoned as if stopped.
func (e *Executor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.state = domain.NewExecutionState(e.mode)
	e.graph = nil
	e.nodes = nil
	e.edges = nil
	e.signal()
}

func (e *Executor) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Start builds the dependency graph and runs it to completion, blocking the
// caller, which acts as the coordinator. It returns the final state together
// with:
//   - a *StructuralGraphError if the graph cannot be ordered,
//   - a *NodeExecutionError if a node fails in manual mode,
//   - domain.ErrDeadlock if progress stalls,
//   - domain.ErrRunStopped if Stop or Reset interrupted the run,
//   - the context error if ctx ends first.
func (e *Executor) Start(ctx context.Context, nodes []domain.NodeInstance, edges []domain.Connection, fn ExecuteFunc) (*domain.ExecutionState, error) {
	e.mu.Lock()
	if s := e.state.Status; s == domain.StatusRunning || s == domain.StatusPaused {
		e.mu.Unlock()
		return nil, domain.ErrAlreadyRunning
	}

	e.generation++
	gen := e.generation
	state := domain.NewExecutionState(e.mode)
	state.RunID = e.newRunID()
	state.StartedAt = time.Now()
	state.Status = domain.StatusRunning
	e.state = state
	select {
	case <-e.wake:
	default:
	}

	g, err := Build(nodes, edges)
	if err != nil {
		e.graph = nil
		e.mu.Unlock()
		e.emitRunStart(ctx)
		return e.fail(ctx, gen, err)
	}
	e.load(g, nodes, edges)
	e.mu.Unlock()

	e.logger.Info("run started", "run_id", state.RunID, "mode", e.mode, "nodes", g.Len(), "edges", len(edges))
	e.emitRunStart(ctx)

	return e.loop(ctx, gen, fn)
}

func (e *Executor) loop(ctx context.Context, gen uint64, fn ExecuteFunc) (*domain.ExecutionState, error) {
	for {
		if err := e.awaitRunnable(ctx, gen); err != nil {
			if errors.Is(err, domain.ErrRunStopped) {
				return e.stopped(ctx)
			}
			return e.fail(ctx, gen, err)
		}

		e.mu.Lock()
		if e.generation != gen {
			e.mu.Unlock()
			return e.stopped(ctx)
		}
		ready := e.readySetLocked()
		if len(ready) == 0 {
			if e.state.AccountedCount() == e.graph.Len() {
				e.mu.Unlock()
				return e.complete(ctx, gen)
			}
			e.mu.Unlock()
			return e.fail(ctx, gen, domain.ErrDeadlock)
		}

		batch := make([]task, len(ready))
		for i, id := range ready {
			batch[i] = task{nodeID: id, input: e.assembleInputsLocked(id)}
		}
		e.state.CurrentNodeID = ready[0]
		runID := e.state.RunID
		e.mu.Unlock()

		e.logger.Debug("dispatching batch", "run_id", runID, "nodes", ready)
		for _, t := range batch {
			e.emitNode(ctx, e.hooks.OnNodeStart, &domain.NodeEvent{
				RunID:     runID,
				NodeID:    t.nodeID,
				NodeType:  e.nodeType(t.nodeID),
				Status:    domain.NodeRunning,
				Timestamp: time.Now(),
			})
		}

		outcomes := dispatch(ctx, batch, fn)

		abort, events, ok := e.apply(gen, outcomes)
		if !ok {
			e.logger.Debug("discarding batch of stopped run", "run_id", runID, "nodes", ready)
			return e.stopped(ctx)
		}
		for _, ev := range events {
			if ev.Status == domain.NodeSkipped {
				e.emitNode(ctx, e.hooks.OnNodeSkipped, ev)
			} else {
				e.emitNode(ctx, e.hooks.OnNodeFinish, ev)
			}
		}
		if abort != nil {
			return e.fail(ctx, gen, abort)
		}
	}
}

// awaitRunnable blocks while the run is paused.
func (e *Executor) awaitRunnable(ctx context.Context, gen uint64) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.mu.Lock()
		status, current := e.state.Status, e.generation == gen
		e.mu.Unlock()

		if !current || status == domain.StatusIdle {
			return domain.ErrRunStopped
		}
		if status == domain.StatusRunning {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.wake:
		}
	}
}

// apply records a settled batch. ok is false when the run was stopped while
// the batch was in flight, in which case nothing is recorded.
func (e *Executor) apply(gen uint64, outcomes []outcome) (abort error, events []*domain.NodeEvent, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.generation != gen || e.state.Status == domain.StatusIdle {
		return nil, nil, false
	}

	state := e.state
	state.CurrentNodeID = ""
	for _, o := range outcomes {
		ev := &domain.NodeEvent{
			RunID:     state.RunID,
			NodeID:    o.nodeID,
			NodeType:  e.nodeType(o.nodeID),
			Duration:  o.duration,
			Timestamp: o.finished,
		}

		if o.err == nil {
			state.Results[o.nodeID] = domain.NodeResult{
				Output:    o.output,
				Duration:  o.duration,
				Timestamp: o.finished,
			}
			state.Completed.Add(o.nodeID)
			ev.Status = domain.NodeCompleted
			events = append(events, ev)
			continue
		}

		state.Results[o.nodeID] = domain.NodeResult{
			Duration:  o.duration,
			Timestamp: o.finished,
			Error:     o.err.Error(),
		}
		state.Failed.Add(o.nodeID)
		ev.Status = domain.NodeError
		ev.Err = o.err
		events = append(events, ev)
		e.logger.Warn("node failed", "run_id", state.RunID, "node_id", o.nodeID, "err", o.err)

		if e.mode.AbortsOnFailure() {
			if abort == nil {
				abort = &NodeExecutionError{NodeID: o.nodeID, Err: o.err}
			}
			continue
		}
		events = append(events, e.skipDescendantsLocked(o.nodeID)...)
	}

	if abort != nil {
		// The run ends here; nothing else will be dispatched.
		for _, id := range e.graph.order {
			if !state.Accounted(id) {
				state.Skipped.Add(id)
				events = append(events, e.skippedEvent(id, ""))
			}
		}
	}
	return abort, events, true
}

// skipDescendantsLocked marks every node that can no longer become ready
// because failedID will never complete.
func (e *Executor) skipDescendantsLocked(failedID string) []*domain.NodeEvent {
	var events []*domain.NodeEvent
	for _, id := range e.graph.Descendants(failedID) {
		if e.state.Accounted(id) {
			continue
		}
		e.state.Skipped.Add(id)
		events = append(events, e.skippedEvent(id, failedID))
	}
	if len(events) > 0 {
		e.logger.Info("skipping dependents of failed node", "run_id", e.state.RunID, "node_id", failedID, "skipped", len(events))
	}
	return events
}

func (e *Executor) skippedEvent(id, cause string) *domain.NodeEvent {
	return &domain.NodeEvent{
		RunID:     e.state.RunID,
		NodeID:    id,
		NodeType:  e.nodeType(id),
		Status:    domain.NodeSkipped,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func (e *Executor) nodeType(id string) string {
	if e.graph == nil {
		return ""
	}
	return e.graph.Type(id)
}

func (e *Executor) complete(ctx context.Context, gen uint64) (*domain.ExecutionState, error) {
	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		return e.stopped(ctx)
	}
	e.state.Status = domain.StatusCompleted
	e.state.EndedAt = time.Now()
	final := e.state.Clone()
	e.mu.Unlock()

	e.logger.Info("run completed", "run_id", final.RunID,
		"completed", len(final.Completed), "failed", len(final.Failed), "skipped", len(final.Skipped),
		"duration", final.EndedAt.Sub(final.StartedAt))
	e.emitRunFinish(ctx, final, nil)
	return final, nil
}

func (e *Executor) fail(ctx context.Context, gen uint64, err error) (*domain.ExecutionState, error) {
	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		return e.stopped(ctx)
	}
	e.state.Status = domain.StatusError
	e.state.CurrentNodeID = ""
	e.state.EndedAt = time.Now()
	e.state.Error = err.Error()
	final := e.state.Clone()
	e.mu.Unlock()

	e.logger.Error("run failed", "run_id", final.RunID, "err", err)
	e.emitRunFinish(ctx, final, err)
	return final, fmt.Errorf("run %s: %w", final.RunID, err)
}

func (e *Executor) stopped(ctx context.Context) (*domain.ExecutionState, error) {
	final := e.State()
	e.emitRunFinish(ctx, final, domain.ErrRunStopped)
	return final, domain.ErrRunStopped
}

func (e *Executor) emitRunStart(ctx context.Context) {
	if e.hooks.OnRunStart == nil {
		return
	}
	s := e.State()
	e.hooks.OnRunStart(ctx, &domain.RunEvent{RunID: s.RunID, Mode: s.Mode, Status: s.Status, Timestamp: s.StartedAt})
}

func (e *Executor) emitRunFinish(ctx context.Context, s *domain.ExecutionState, err error) {
	if e.hooks.OnRunFinish == nil {
		return
	}
	e.hooks.OnRunFinish(ctx, &domain.RunEvent{RunID: s.RunID, Mode: s.Mode, Status: s.Status, Timestamp: s.EndedAt, Err: err})
}

func (e *Executor) emitNode(ctx context.Context, hook func(context.Context, *domain.NodeEvent), ev *domain.NodeEvent) {
	if hook != nil {
		hook(ctx, ev)
	}
}
