package executor

import (
	"log/slog"

	"github.com/aretw0/canvasflow/internal/logging"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/google/uuid"
)

// Option configures an Executor.
type Option func(*Executor)

// WithMode sets the execution mode (default: automatic).
func WithMode(mode domain.ExecutionMode) Option {
	return func(e *Executor) {
		e.mode = mode
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithHooks registers lifecycle observers.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Executor) {
		e.hooks = hooks
	}
}

// WithRunIDGenerator replaces the default uuid run ids.
func WithRunIDGenerator(gen func() string) Option {
	return func(e *Executor) {
		e.newRunID = gen
	}
}

func defaults() []Option {
	return []Option{
		WithMode(domain.ModeAutomatic),
		WithLogger(logging.NewNop()),
		WithRunIDGenerator(uuid.NewString),
	}
}
