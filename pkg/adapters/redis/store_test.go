package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espalier-ai/espalier/pkg/adapters/redis"
	"github.com/espalier-ai/espalier/pkg/domain"
	"github.com/espalier-ai/espalier/pkg/ports"
)

func testClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func testState(topic string) *domain.SessionState {
	return domain.NewSessionState(topic, domain.StudentProfile{
		Name:  "Ada",
		Level: domain.LevelBeginner,
		Style: domain.StyleVisual,
	})
}

func TestStore_Contract(t *testing.T) {
	_, client := testClient(t)
	ports.RunSessionStoreContract(t, redis.NewStoreFromClient(client))
}

func TestStore_TTLExpiry(t *testing.T) {
	mr, client := testClient(t)
	store := redis.NewStoreFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	state := testState("basic algebra")
	require.NoError(t, store.Save(ctx, state.SessionID, state))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, state.SessionID)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, state.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Index pruning keys off wall-clock time, so wait out the TTL before
	// asking List to clean up.
	time.Sleep(1200 * time.Millisecond)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_Prefix(t *testing.T) {
	mr, client := testClient(t)
	store := redis.NewStoreFromClient(client, redis.WithPrefix("tutor:v2:"))
	ctx := context.Background()

	state := testState("fractions")
	require.NoError(t, store.Save(ctx, state.SessionID, state))

	assert.True(t, mr.Exists("tutor:v2:"+state.SessionID))
	assert.True(t, mr.Exists("tutor:v2:index"))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, state.SessionID)
}

func TestStore_RoundTripKeepsArtifacts(t *testing.T) {
	_, client := testClient(t)
	store := redis.NewStoreFromClient(client)
	ctx := context.Background()

	state := testState("basic algebra")
	state.Classification = &domain.Classification{Subject: domain.SubjectMath, Level: domain.LevelBeginner}
	state.Practice = &domain.PracticeSet{
		Topic: "basic algebra",
		Level: domain.LevelBeginner,
		Problems: []domain.Problem{
			{ID: "p1", Question: "q", Difficulty: domain.DifficultyEasy},
		},
	}
	state.Finish(domain.StatusCompleted)

	require.NoError(t, store.Save(ctx, state.SessionID, state))

	loaded, err := store.Load(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, state.Classification, loaded.Classification)
	assert.Equal(t, state.Practice, loaded.Practice)
	assert.Equal(t, domain.StatusCompleted, loaded.Status)
}
