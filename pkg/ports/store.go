package ports

import (
	"context"

	"github.com/espalier-ai/espalier/pkg/domain"
)

// SessionStore persists finished (or partial) session states. The pipeline
// itself does not require synchronous persistence to proceed; stores are
// driven by the host after a session terminates.
type SessionStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.SessionState) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.SessionState, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of stored sessions.
	List(ctx context.Context) ([]string, error)
}
