package runner

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/canvasflow/pkg/adapters/process"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/executor"
	"github.com/aretw0/canvasflow/pkg/registry"
)

// HandlerFunc performs the work of one node type.
type HandlerFunc func(ctx context.Context, node domain.NodeInstance, inputs map[string]any) (any, error)

// Middleware wraps a HandlerFunc.
type Middleware func(HandlerFunc) HandlerFunc

// Handlers maps node types to handlers. Safe for concurrent use.
type Handlers struct {
	mu         sync.RWMutex
	byType     map[string]HandlerFunc
	fallback   HandlerFunc
	middleware []Middleware
}

// NewHandlers creates an empty handler set.
func NewHandlers() *Handlers {
	return &Handlers{byType: make(map[string]HandlerFunc)}
}

// Register binds fn to a node type, replacing any previous handler.
func (h *Handlers) Register(typeKey string, fn HandlerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byType[typeKey] = fn
}

// RegisterProcesses binds every node type configured in p to its command.
func (h *Handlers) RegisterProcesses(p *process.Runner) {
	for _, typeKey := range p.Types() {
		h.Register(typeKey, p.Execute)
	}
}

// SetFallback handles node types without a dedicated handler.
func (h *Handlers) SetFallback(fn HandlerFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fallback = fn
}

// Use appends middleware. The first one added is the outermost.
func (h *Handlers) Use(mw ...Middleware) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.middleware = append(h.middleware, mw...)
}

// Types returns the node types with a dedicated handler.
func (h *Handlers) Types() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Sorted(maps.Keys(h.byType))
}

// Lookup returns the wrapped handler for a node type.
func (h *Handlers) Lookup(typeKey string) (HandlerFunc, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	fn, ok := h.byType[typeKey]
	if !ok {
		if h.fallback == nil {
			return nil, false
		}
		fn = h.fallback
	}
	for i := len(h.middleware) - 1; i >= 0; i-- {
		fn = h.middleware[i](fn)
	}
	return fn, true
}

// Missing returns the node types in nodes that have no handler.
func (h *Handlers) Missing(nodes []domain.NodeInstance) []string {
	seen := map[string]bool{}
	var missing []string
	for _, n := range nodes {
		if seen[n.Type] {
			continue
		}
		seen[n.Type] = true
		if _, ok := h.Lookup(n.Type); !ok {
			missing = append(missing, n.Type)
		}
	}
	return missing
}

// ExecuteFunc adapts the handlers to the executor callback for one graph.
func (h *Handlers) ExecuteFunc(nodes []domain.NodeInstance) executor.ExecuteFunc {
	byID := make(map[string]domain.NodeInstance, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	return func(ctx context.Context, nodeID string, input map[string]any) (any, error) {
		node, ok := byID[nodeID]
		if !ok {
			return nil, fmt.Errorf("node %s is not part of the graph", nodeID)
		}
		fn, ok := h.Lookup(node.Type)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoHandler, node.Type)
		}
		return fn(ctx, node, input)
	}
}

// Echo returns a handler that performs no work: it emits, on every output
// port of the node's type, a summary of the node's data and inputs. It is
// used for dry runs.
func Echo(reg *registry.Registry) HandlerFunc {
	return func(_ context.Context, node domain.NodeInstance, inputs map[string]any) (any, error) {
		summary := map[string]any{
			"node_id": node.ID,
			"type":    node.Type,
			"data":    node.Data,
			"inputs":  inputs,
		}
		def, ok := reg.Definition(node.Type)
		if !ok || len(def.Outputs) == 0 {
			return summary, nil
		}
		out := make(map[string]any, len(def.Outputs))
		for _, p := range def.Outputs {
			out[p.ID] = summary
		}
		return out, nil
	}
}

// WithTimeout bounds every handler call.
func WithTimeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, node domain.NodeInstance, inputs map[string]any) (any, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, node, inputs)
		}
	}
}

// WithLogging logs each handler call at debug level and failures at warn.
func WithLogging(logger *slog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, node domain.NodeInstance, inputs map[string]any) (any, error) {
			start := time.Now()
			out, err := next(ctx, node, inputs)
			if err != nil {
				logger.Warn("handler failed", "node_id", node.ID, "type", node.Type, "err", err)
				return out, err
			}
			logger.Debug("handler finished", "node_id", node.ID, "type", node.Type, "duration", time.Since(start))
			return out, nil
		}
	}
}
