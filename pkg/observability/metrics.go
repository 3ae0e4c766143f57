// Package observability exposes engine lifecycle events as Prometheus
// metrics. It plugs into the engine through domain.LifecycleHooks, so the
// core stays metrics-agnostic.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cascadehq/cascade/pkg/domain"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	transitions *prometheus.CounterVec
	executions  *prometheus.CounterVec
	suspended   prometheus.Gauge
	duration    prometheus.Histogram
}

// NewMetrics creates and registers the collectors. Pass
// prometheus.DefaultRegisterer for the process-global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Name:      "stage_transitions_total",
			Help:      "Stage transitions by kind.",
		}, []string{"kind"}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cascade",
			Name:      "executions_total",
			Help:      "Finished executions by terminal status.",
		}, []string{"status"}),
		suspended: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cascade",
			Name:      "suspended_executions",
			Help:      "Executions currently parked on a deferral.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cascade",
			Name:      "execution_duration_seconds",
			Help:      "Wall time from start to terminal outcome.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.transitions, m.executions, m.suspended, m.duration)
	return m
}

// Hooks returns lifecycle hooks that feed the collectors. Combine with other
// hooks via domain.LifecycleHooks merging at the caller if needed.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, ev *domain.TransitionEvent) {
			m.transitions.WithLabelValues(ev.Kind.String()).Inc()
		},
		OnSuspend: func(_ context.Context, _ *domain.SuspendEvent) {
			m.suspended.Inc()
		},
		OnResume: func(_ context.Context, _ *domain.ResumeEvent) {
			m.suspended.Dec()
		},
		OnFinish: func(_ context.Context, ev *domain.OutcomeEvent) {
			m.executions.WithLabelValues(ev.Status.String()).Inc()
			m.duration.Observe(ev.Elapsed.Seconds())
		},
	}
}
