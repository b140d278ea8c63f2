package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/canvasflow/internal/logging"
	"github.com/aretw0/canvasflow/pkg/adapters/memory"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/executor"
	"github.com/aretw0/canvasflow/pkg/ports"
	"github.com/aretw0/canvasflow/pkg/registry"
	"github.com/aretw0/canvasflow/pkg/status"
	"github.com/aretw0/canvasflow/pkg/validator"
	"github.com/google/uuid"
)

// Request describes one run.
type Request struct {
	Graph domain.Graph
	// Mode overrides the runner's default execution mode.
	Mode domain.ExecutionMode
	// Key identifies the workflow. Runs sharing a key are serialized, across
	// replicas when a DistributedLocker is configured. Empty means no locking.
	Key string
}

// Runner validates, executes, tracks and persists workflow runs.
type Runner struct {
	registry  *registry.Registry
	validator *validator.Validator
	handlers  *Handlers
	store     ports.RunStore
	locker    ports.DistributedLocker
	lockTTL   time.Duration
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	mode      domain.ExecutionMode
	retention int

	mu       sync.Mutex
	runs     map[string]*run
	finished []string
	locks    map[string]*lockEntry
}

type run struct {
	id       string
	exec     *executor.Executor
	statuses *status.Manager
	done     chan struct{}
	state    *domain.ExecutionState
	err      error

	mu      sync.Mutex
	stopped bool
}

func (rn *run) stopRequested() bool {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	return rn.stopped
}

// stopHooks honour a Stop that arrived before the executor started running.
func (rn *run) stopHooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(context.Context, *domain.RunEvent) {
			if rn.stopRequested() {
				rn.exec.Stop()
			}
		},
	}
}

// lockEntry is a reference-counted local mutex for one workflow key.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// New creates a runner. Snapshots go to an in-memory store unless WithStore
// is given.
func New(reg *registry.Registry, handlers *Handlers, opts ...Option) *Runner {
	r := &Runner{
		registry:  reg,
		validator: validator.New(reg),
		handlers:  handlers,
		store:     memory.NewStore(),
		lockTTL:   DefaultLockTTL,
		logger:    logging.NewNop(),
		mode:      domain.ModeAutomatic,
		retention: DefaultRetention,
		runs:      make(map[string]*run),
		locks:     make(map[string]*lockEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the node type catalog used for validation.
func (r *Runner) Registry() *registry.Registry {
	return r.registry
}

// Store returns the run state store.
func (r *Runner) Store() ports.RunStore {
	return r.store
}

// Check validates a graph without running it: every edge must pass
// connection validation, the graph must be orderable, and every node type
// needs a handler.
func (r *Runner) Check(g domain.Graph) error {
	if err := validator.Errors(r.validator.ValidateGraph(g.Nodes, g.Edges)); err != nil {
		return fmt.Errorf("graph validation failed: %w", err)
	}
	if _, err := executor.Build(g.Nodes, g.Edges); err != nil {
		return err
	}
	if missing := r.handlers.Missing(g.Nodes); len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrNoHandler, strings.Join(missing, ", "))
	}
	return nil
}

// Run executes req and blocks until it finishes.
func (r *Runner) Run(ctx context.Context, req Request) (*domain.ExecutionState, error) {
	rn, err := r.prepare(req)
	if err != nil {
		return nil, err
	}
	r.execute(ctx, rn, req)
	return rn.state, rn.err
}

// Submit validates req and runs it in the background. The run is detached
// from ctx cancellation; use Stop to end it.
func (r *Runner) Submit(ctx context.Context, req Request) (string, error) {
	rn, err := r.prepare(req)
	if err != nil {
		return "", err
	}
	go r.execute(context.WithoutCancel(ctx), rn, req)
	return rn.id, nil
}

// Wait blocks until the run finishes or ctx is done.
func (r *Runner) Wait(ctx context.Context, runID string) (*domain.ExecutionState, error) {
	rn, ok := r.lookup(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	select {
	case <-rn.done:
		return rn.state, rn.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Runner) prepare(req Request) (*run, error) {
	if err := r.Check(req.Graph); err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = r.mode
	}

	rn := &run{
		id:       uuid.NewString(),
		statuses: status.NewManager(),
		done:     make(chan struct{}),
	}
	rn.exec = executor.New(r.registry,
		executor.WithMode(mode),
		executor.WithLogger(r.logger.With("run_id", rn.id)),
		executor.WithRunIDGenerator(func() string { return rn.id }),
		executor.WithHooks(domain.MergeHooks(rn.stopHooks(), status.Hooks(rn.statuses), r.persistHooks(rn), r.hooks)),
	)

	r.mu.Lock()
	r.runs[rn.id] = rn
	r.mu.Unlock()
	return rn, nil
}

// persistHooks save a snapshot when the run starts and after every node.
func (r *Runner) persistHooks(rn *run) domain.LifecycleHooks {
	save := func(ctx context.Context) {
		if err := r.store.Save(ctx, rn.id, rn.exec.State()); err != nil {
			r.logger.Warn("failed to persist run state", "run_id", rn.id, "err", err)
		}
	}
	return domain.LifecycleHooks{
		OnRunStart:    func(ctx context.Context, _ *domain.RunEvent) { save(ctx) },
		OnNodeFinish:  func(ctx context.Context, _ *domain.NodeEvent) { save(ctx) },
		OnNodeSkipped: func(ctx context.Context, _ *domain.NodeEvent) { save(ctx) },
	}
}

func (r *Runner) execute(ctx context.Context, rn *run, req Request) {
	defer r.finish(rn)

	rn.err = r.withLock(ctx, req.Key, func(ctx context.Context) error {
		if rn.stopRequested() {
			return domain.ErrRunStopped
		}
		state, err := rn.exec.Start(ctx, req.Graph.Nodes, req.Graph.Edges, r.handlers.ExecuteFunc(req.Graph.Nodes))
		rn.state = state
		return err
	})
	if rn.state == nil {
		// The executor never started, e.g. the lock was not acquired.
		rn.state = rn.exec.State()
		rn.state.RunID = rn.id
		switch {
		case errors.Is(rn.err, domain.ErrRunStopped):
			rn.state.Status = domain.StatusIdle
			if rn.state.EndedAt.IsZero() {
				rn.state.EndedAt = time.Now()
			}
		case rn.err != nil:
			rn.state.Status = domain.StatusError
			rn.state.Error = rn.err.Error()
		}
	}

	// The final snapshot must survive a cancelled run context.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := r.store.Save(saveCtx, rn.id, rn.state); err != nil {
		r.logger.Error("failed to persist final run state", "run_id", rn.id, "err", err)
	}
}

func (r *Runner) finish(rn *run) {
	close(rn.done)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, rn.id)
	for len(r.finished) > max(r.retention, 0) {
		delete(r.runs, r.finished[0])
		r.finished = r.finished[1:]
	}
}

func (r *Runner) lookup(runID string) (*run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rn, ok := r.runs[runID]
	return rn, ok
}

// Pause suspends a run between batches. It reports whether the run was
// running.
func (r *Runner) Pause(runID string) (bool, error) {
	return r.control(runID, (*executor.Executor).Pause)
}

// Resume continues a paused run.
func (r *Runner) Resume(runID string) (bool, error) {
	return r.control(runID, (*executor.Executor).Resume)
}

// Stop ends a run; results of nodes still in flight are discarded. A run
// still waiting for its workflow lock never starts.
func (r *Runner) Stop(runID string) (bool, error) {
	rn, ok := r.lookup(runID)
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	rn.mu.Lock()
	defer rn.mu.Unlock()
	select {
	case <-rn.done:
		return false, nil
	default:
	}
	rn.stopped = true
	return rn.exec.Stop(), nil
}

func (r *Runner) control(runID string, op func(*executor.Executor) bool) (bool, error) {
	rn, ok := r.lookup(runID)
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	return op(rn.exec), nil
}

// State returns the live state of a tracked run, falling back to the store.
func (r *Runner) State(ctx context.Context, runID string) (*domain.ExecutionState, error) {
	if rn, ok := r.lookup(runID); ok {
		return rn.exec.State(), nil
	}
	state, err := r.store.Load(ctx, runID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
		}
		return nil, err
	}
	return state, nil
}

// Statuses returns the per-node status table of a tracked run.
func (r *Runner) Statuses(runID string) ([]domain.NodeStatus, error) {
	rn, ok := r.lookup(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	return rn.statuses.All(), nil
}

// Active returns the ids of runs that have not finished.
func (r *Runner) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, rn := range r.runs {
		select {
		case <-rn.done:
		default:
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Shutdown stops every active run and waits for them to finish.
func (r *Runner) Shutdown(ctx context.Context) error {
	for _, id := range r.Active() {
		if _, err := r.Stop(id); err != nil {
			continue
		}
		if _, err := r.Wait(ctx, id); err != nil && ctx.Err() != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) acquire(key string) *lockEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.locks[key]
	if !ok {
		entry = &lockEntry{}
		r.locks[key] = entry
	}
	entry.refs++
	return entry
}

func (r *Runner) release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.locks[key]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(r.locks, key)
	}
}

// withLock runs fn while holding the local and, if configured, distributed
// lock for key.
func (r *Runner) withLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if key == "" {
		return fn(ctx)
	}

	entry := r.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		r.release(key)
	}()

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, key, r.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire workflow lock %s: %w", key, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				r.logger.Warn("failed to release workflow lock (will expire via TTL)", "key", key, "err", err)
			}
		}()
	}
	return fn(ctx)
}
