package canvasflow

import (
	"context"
	"log/slog"

	"github.com/aretw0/canvasflow/internal/logging"
	"github.com/aretw0/canvasflow/internal/presentation/graph"
	"github.com/aretw0/canvasflow/pkg/adapters/process"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/dsl"
	"github.com/aretw0/canvasflow/pkg/executor"
	"github.com/aretw0/canvasflow/pkg/ports"
	"github.com/aretw0/canvasflow/pkg/registry"
	"github.com/aretw0/canvasflow/pkg/runner"
	"github.com/aretw0/canvasflow/pkg/validator"
)

// Engine is the high-level entry point for the library. It bundles the
// catalog, factory, validator and runner behind one value.
type Engine struct {
	registry  *registry.Registry
	factory   *registry.Factory
	validator *validator.Validator
	handlers  *runner.Handlers
	runner    *runner.Runner

	runnerOpts []runner.Option
	logger     *slog.Logger
	dryRun     bool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry replaces the built-in catalog.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.runnerOpts = append(e.runnerOpts, runner.WithHooks(hooks))
	}
}

// WithStore persists run snapshots in store.
func WithStore(store ports.RunStore) Option {
	return func(e *Engine) {
		e.runnerOpts = append(e.runnerOpts, runner.WithStore(store))
	}
}

// WithLocker serializes runs of the same workflow key across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.runnerOpts = append(e.runnerOpts, runner.WithLocker(locker))
	}
}

// WithMode sets the default failure policy.
func WithMode(mode domain.ExecutionMode) Option {
	return func(e *Engine) {
		e.runnerOpts = append(e.runnerOpts, runner.WithDefaultMode(mode))
	}
}

// WithDryRun makes every node without a handler echo its inputs instead of
// failing the graph check.
func WithDryRun() Option {
	return func(e *Engine) {
		e.dryRun = true
	}
}

// New creates an Engine over the built-in catalog unless WithRegistry is
// given.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry: registry.Default(),
		logger:   logging.NewNop(),
		handlers: runner.NewHandlers(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.factory = registry.NewFactory(e.registry)
	e.validator = validator.New(e.registry)
	if e.dryRun {
		e.handlers.SetFallback(runner.Echo(e.registry))
	}
	e.runner = runner.New(e.registry, e.handlers,
		append([]runner.Option{runner.WithLogger(e.logger)}, e.runnerOpts...)...,
	)
	return e
}

// Handle registers the work performed by nodes of typeKey.
func (e *Engine) Handle(typeKey string, fn runner.HandlerFunc) {
	e.handlers.Register(typeKey, fn)
}

// HandleProcesses registers every type configured in p.
func (e *Engine) HandleProcesses(p *process.Runner) {
	e.handlers.RegisterProcesses(p)
}

// Use wraps every handler with mw.
func (e *Engine) Use(mw ...runner.Middleware) {
	e.handlers.Use(mw...)
}

// Registry returns the node type catalog.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Factory returns the node factory.
func (e *Engine) Factory() *registry.Factory { return e.factory }

// Validator returns the connection validator.
func (e *Engine) Validator() *validator.Validator { return e.validator }

// Runner returns the run manager.
func (e *Engine) Runner() *runner.Runner { return e.runner }

// Builder starts a graph over the engine's catalog.
func (e *Engine) Builder() *dsl.Builder {
	return dsl.New(e.registry)
}

// CreateNode instantiates a node of typeKey with data merged over defaults.
func (e *Engine) CreateNode(typeKey string, position *domain.Position, data map[string]any) (domain.NodeInstance, error) {
	return e.factory.CreateNode(typeKey, position, data)
}

// ValidateConnection checks one prospective edge.
func (e *Engine) ValidateConnection(conn domain.Connection, nodes []domain.NodeInstance) validator.Result {
	return e.validator.ValidateConnection(conn, nodes)
}

// Validate returns nil when every edge of g is valid.
func (e *Engine) Validate(g domain.Graph) error {
	return validator.Errors(e.validator.ValidateGraph(g.Nodes, g.Edges))
}

// ExecutionOrder returns a topological order of g.
func (e *Engine) ExecutionOrder(g domain.Graph) ([]string, error) {
	return executor.Order(g.Nodes, g.Edges)
}

// Run executes g with the default mode and blocks until it finishes.
func (e *Engine) Run(ctx context.Context, g domain.Graph) (*domain.ExecutionState, error) {
	return e.runner.Run(ctx, runner.Request{Graph: g})
}

// Submit starts g in the background and returns its run id.
func (e *Engine) Submit(ctx context.Context, req runner.Request) (string, error) {
	return e.runner.Submit(ctx, req)
}

// Mermaid renders g as a flowchart, colored by the run's state when state is
// not nil.
func (e *Engine) Mermaid(g domain.Graph, state *domain.ExecutionState) string {
	var overlay *graph.Overlay
	if state != nil {
		overlay = graph.OverlayFromState(state)
	}
	return graph.GenerateMermaid(e.registry, g, overlay)
}
