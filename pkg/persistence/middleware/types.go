// Package middleware wraps a SessionStore with at-rest policies: AES-GCM
// envelope encryption with key rotation, and redaction of student identity
// before anything touches the backend.
package middleware

import "github.com/espalier-ai/espalier/pkg/ports"

// Middleware wraps a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// Chain applies middlewares so the first listed is the outermost: the store
// the state passes through first on Save.
func Chain(store ports.SessionStore, mws ...Middleware) ports.SessionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
