package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espalier-ai/espalier/pkg/domain"
)

// RunSessionStoreContract verifies that a SessionStore implementation
// adheres to the interface contract. Adapter tests call it against their
// concrete store.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	profile := domain.StudentProfile{Name: "Ada", Level: domain.LevelBeginner, Style: domain.StyleVisual}

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewSessionState("basic algebra", profile)
		state.RecordStep("classify", 5*time.Millisecond)
		state.Classification = &domain.Classification{Subject: domain.SubjectMath, Level: domain.LevelBeginner}

		err := store.Save(ctx, state.SessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, state.SessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.SessionID, loaded.SessionID)
		assert.Equal(t, "basic algebra", loaded.Topic)
		assert.Equal(t, domain.SubjectMath, loaded.Subject())
		assert.Equal(t, []string{"classify"}, loaded.StepsRun)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "no-such-session")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		state := domain.NewSessionState("photosynthesis", profile)
		require.NoError(t, store.Save(ctx, state.SessionID, state))

		require.NoError(t, store.Delete(ctx, state.SessionID))

		_, err := store.Load(ctx, state.SessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		a := domain.NewSessionState("fractions", profile)
		b := domain.NewSessionState("recursion", profile)
		require.NoError(t, store.Save(ctx, a.SessionID, a))
		require.NoError(t, store.Save(ctx, b.SessionID, b))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, a.SessionID)
		assert.Contains(t, ids, b.SessionID)
	})
}
