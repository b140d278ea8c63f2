package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactMiddleware struct {
	next     ports.RunStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks node output keys matching any of the patterns
// before a snapshot reaches the wrapped store. Live state is not touched.
func NewRedactMiddleware(patterns ...string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.RunStore) ports.RunStore {
		return &redactMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, runID string, state *domain.ExecutionState) error {
	cloned := state.Clone()
	for id, res := range cloned.Results {
		if out, ok := res.Output.(map[string]any); ok {
			res.Output = m.mask(out)
			cloned.Results[id] = res
		}
	}
	return m.next.Save(ctx, runID, cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, runID string) (*domain.ExecutionState, error) {
	return m.next.Load(ctx, runID)
}

func (m *redactMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// mask returns a copy of in with matching keys replaced.
func (m *redactMiddleware) mask(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if m.matches(k) {
			out[k] = Mask
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			v = m.mask(sub)
		}
		out[k] = v
	}
	return out
}

func (m *redactMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
