package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espalier-ai/espalier/internal/cache"
	"github.com/espalier-ai/espalier/pkg/adapters/redis"
)

func TestCache_MissThenHit(t *testing.T) {
	_, client := testClient(t)
	c := redis.NewCacheFromClient(client)
	ctx := context.Background()

	key := cache.Fingerprint("lesson", "Basic Algebra", "beginner", "visual")

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte(`{"topic":"basic algebra"}`), time.Minute))

	val, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"topic":"basic algebra"}`, string(val))
}

func TestCache_TTLExpiry(t *testing.T) {
	mr, client := testClient(t)
	c := redis.NewCacheFromClient(client)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "espalier:artifact:practice:abc", []byte("v"), time.Second))

	mr.FastForward(2 * time.Second)

	_, ok, err := c.Get(ctx, "espalier:artifact:practice:abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocker_MutualExclusion(t *testing.T) {
	_, client := testClient(t)
	locker := redis.NewLocker(client, "")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "session-1", time.Minute)
	require.NoError(t, err)

	// A second acquisition must block until the first releases.
	blocked, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(blocked, "session-1", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))

	unlock2, err := locker.Lock(ctx, "session-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}
