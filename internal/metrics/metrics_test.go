package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espalier-ai/espalier/pkg/domain"
)

func TestMetrics_HooksRecord(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStepEnd(ctx, &domain.StepEvent{Step: "classify", Status: domain.StepSucceeded})
	hooks.OnStepEnd(ctx, &domain.StepEvent{Step: "plan", Status: domain.StepFailed})

	state := domain.NewSessionState("fractions", domain.StudentProfile{Level: domain.LevelBeginner, Style: domain.StyleMixed})
	state.RecordStep("classify", 5*time.Millisecond)
	state.Finish(domain.StatusCompleted)
	hooks.OnSessionEnd(ctx, state)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.stepsTotal.WithLabelValues("classify", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stepsTotal.WithLabelValues("plan", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.stepDuration))
}

func TestMetrics_CacheCounters(t *testing.T) {
	m := New()
	m.CacheHit("lesson")
	m.CacheHit("lesson")
	m.CacheMiss("practice")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheTotal.WithLabelValues("lesson", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheTotal.WithLabelValues("practice", "miss")))
}
