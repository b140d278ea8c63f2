/*
Package observability turns executor lifecycle events into Prometheus metrics
and structured audit logs.

Both are plain domain.LifecycleHooks and compose with domain.MergeHooks:

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := domain.MergeHooks(m.Hooks(), observability.LogHooks(logger))
*/
package observability
