package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a workflow lock.
const DefaultLockTTL = 5 * time.Minute

// DefaultRetention is the number of finished runs kept in memory for status
// queries.
const DefaultRetention = 100

// Option configures the Runner.
type Option func(*Runner)

// WithStore configures where execution state snapshots are persisted.
func WithStore(store ports.RunStore) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// WithLocker enables distributed locking of workflow keys.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(r *Runner) {
		r.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(r *Runner) {
		r.lockTTL = ttl
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithHooks adds lifecycle observers to every run (e.g. metrics).
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runner) {
		r.hooks = hooks
	}
}

// WithDefaultMode sets the execution mode used when a request names none.
func WithDefaultMode(mode domain.ExecutionMode) Option {
	return func(r *Runner) {
		r.mode = mode
	}
}

// WithRetention sets how many finished runs stay queryable in memory.
func WithRetention(n int) Option {
	return func(r *Runner) {
		r.retention = n
	}
}
