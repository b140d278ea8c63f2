package observability

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	RunsTotal    *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
	ActiveRuns   prometheus.Gauge
	NodesTotal   *prometheus.CounterVec
	NodeDuration *prometheus.HistogramVec

	mu      sync.Mutex
	started map[string]time.Time
}

// NewMetrics creates the collectors and registers them with reg. Collectors
// already registered by a previous call are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canvasflow_runs_total",
			Help: "Finished workflow runs by mode and final status.",
		}, []string{"mode", "status"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "canvasflow_run_duration_seconds",
			Help:    "Wall time of workflow runs.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"mode"}),
		ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "canvasflow_active_runs",
			Help: "Runs currently executing.",
		}),
		NodesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canvasflow_nodes_total",
			Help: "Node outcomes by node type and status.",
		}, []string{"type", "status"}),
		NodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "canvasflow_node_duration_seconds",
			Help:    "Execution time of node handlers.",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
		started: make(map[string]time.Time),
	}

	m.RunsTotal = register(reg, m.RunsTotal)
	m.RunDuration = register(reg, m.RunDuration)
	m.ActiveRuns = register(reg, m.ActiveRuns)
	m.NodesTotal = register(reg, m.NodesTotal)
	m.NodeDuration = register(reg, m.NodeDuration)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, e *domain.RunEvent) {
			m.mu.Lock()
			m.started[e.RunID] = e.Timestamp
			m.mu.Unlock()
			m.ActiveRuns.Inc()
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			m.mu.Lock()
			start, ok := m.started[e.RunID]
			delete(m.started, e.RunID)
			m.mu.Unlock()

			m.ActiveRuns.Dec()
			m.RunsTotal.WithLabelValues(string(e.Mode), runOutcome(e)).Inc()
			if ok && !e.Timestamp.IsZero() {
				m.RunDuration.WithLabelValues(string(e.Mode)).Observe(e.Timestamp.Sub(start).Seconds())
			}
		},
		OnNodeFinish: func(_ context.Context, e *domain.NodeEvent) {
			m.NodesTotal.WithLabelValues(e.NodeType, string(e.Status)).Inc()
			m.NodeDuration.WithLabelValues(e.NodeType).Observe(e.Duration.Seconds())
		},
		OnNodeSkipped: func(_ context.Context, e *domain.NodeEvent) {
			m.NodesTotal.WithLabelValues(e.NodeType, string(e.Status)).Inc()
		},
	}
}

// runOutcome distinguishes stopped runs from ones that merely ended idle.
func runOutcome(e *domain.RunEvent) string {
	if errors.Is(e.Err, domain.ErrRunStopped) {
		return "stopped"
	}
	return string(e.Status)
}
