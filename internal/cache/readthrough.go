package cache

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/espalier-ai/espalier/pkg/ports"
)

// ReadThrough wraps an ArtifactCache backend with the pipeline's caching
// policy: unexpired hits short-circuit computation, misses compute and
// store, errors are never cached, and a missing or failing backend degrades
// to always-compute.
type ReadThrough struct {
	backend ports.ArtifactCache // nil disables caching entirely
	ttl     time.Duration
	logger  *slog.Logger

	// OnHit and OnMiss, when set, are called with the step kind for
	// metrics. They must not block.
	OnHit  func(kind string)
	OnMiss func(kind string)
}

// NewReadThrough creates the cache policy wrapper. A nil backend is valid
// and means every call computes.
func NewReadThrough(backend ports.ArtifactCache, ttl time.Duration, logger *slog.Logger) *ReadThrough {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ReadThrough{backend: backend, ttl: ttl, logger: logger}
}

// Enabled reports whether a backend is configured.
func (c *ReadThrough) Enabled() bool {
	return c != nil && c.backend != nil
}

// GetOrCompute returns the cached value for key when present and unexpired,
// otherwise calls compute, stores the result with the configured TTL and
// returns it. The second return value reports whether the result came from
// the cache. Compute errors are returned as-is and never stored.
func GetOrCompute[T any](ctx context.Context, c *ReadThrough, kind, key string, compute func(ctx context.Context) (T, error)) (T, bool, error) {
	var zero T
	if !c.Enabled() {
		v, err := compute(ctx)
		return v, false, err
	}

	data, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		// A broken backend never fails a session; fall back to computing.
		c.logger.Warn("cache get failed, computing directly", "key", key, "err", err)
	} else if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			if c.OnHit != nil {
				c.OnHit(kind)
			}
			return v, true, nil
		}
		c.logger.Warn("cache entry corrupt, recomputing", "key", key)
	}

	if c.OnMiss != nil {
		c.OnMiss(kind)
	}

	v, err := compute(ctx)
	if err != nil {
		return zero, false, err
	}

	if data, err := json.Marshal(v); err == nil {
		if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("cache set failed", "key", key, "err", err)
		}
	}
	return v, false, nil
}
