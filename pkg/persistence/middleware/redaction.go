package middleware

import (
	"context"

	"github.com/espalier-ai/espalier/pkg/domain"
	"github.com/espalier-ai/espalier/pkg/ports"
)

const redactedValue = "***"

type redactionStore struct {
	next ports.SessionStore
}

// NewIdentityRedaction builds a middleware that strips the student's
// identity from states before they are stored. Name and external ID are
// masked, learning goals are kept: they shape lesson content and carry no
// identity on their own. The in-memory state handed to Save is never
// touched.
func NewIdentityRedaction() Middleware {
	return func(next ports.SessionStore) ports.SessionStore {
		return &redactionStore{next: next}
	}
}

func (m *redactionStore) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	cloned := *state
	if cloned.Profile.Name != "" {
		cloned.Profile.Name = redactedValue
	}
	if cloned.Profile.ID != "" {
		cloned.Profile.ID = redactedValue
	}
	return m.next.Save(ctx, sessionID, &cloned)
}

func (m *redactionStore) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactionStore) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactionStore) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
