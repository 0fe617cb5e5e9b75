// Package metrics exposes Prometheus collectors for the pipeline and a
// hooks bridge so the driver stays metrics-agnostic.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/espalier-ai/espalier/pkg/domain"
)

// Metrics holds the pipeline collectors. Create one per process with New
// and register it on a prometheus.Registerer.
type Metrics struct {
	stepsTotal    *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
	sessionsTotal *prometheus.CounterVec
	cacheTotal    *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_steps_total",
				Help: "Pipeline steps by step name and terminal status",
			},
			[]string{"step", "status"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "espalier_step_duration_seconds",
				Help:    "Duration of pipeline steps",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"step"},
		),
		sessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_sessions_total",
				Help: "Finished sessions by outcome",
			},
			[]string{"status"},
		),
		cacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_cache_requests_total",
				Help: "Artifact cache lookups by step kind and result",
			},
			[]string{"kind", "result"},
		),
	}
}

// Register adds all collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.stepsTotal, m.stepDuration, m.sessionsTotal, m.cacheTotal} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// CacheHit and CacheMiss are wired into the read-through cache callbacks.
func (m *Metrics) CacheHit(kind string)  { m.cacheTotal.WithLabelValues(kind, "hit").Inc() }
func (m *Metrics) CacheMiss(kind string) { m.cacheTotal.WithLabelValues(kind, "miss").Inc() }

// Hooks returns lifecycle hooks that record step and session metrics.
// Step durations come from the finished state, which already tracks them
// per step.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnd: func(ctx context.Context, e *domain.StepEvent) {
			m.stepsTotal.WithLabelValues(e.Step, string(e.Status)).Inc()
		},
		OnSessionEnd: func(ctx context.Context, s *domain.SessionState) {
			m.sessionsTotal.WithLabelValues(string(s.Status)).Inc()
			for step, d := range s.StepDurations {
				m.stepDuration.WithLabelValues(step).Observe(d.Seconds())
			}
		},
	}
}
