package ports

import (
	"context"
	"time"
)

// ArtifactCache stores serialized step outputs keyed by fingerprint. It is
// an optional accelerator: implementations may be shared by many concurrent
// sessions, and last-writer-wins on identical fingerprints is acceptable
// because values for the same fingerprint are equivalent by construction.
type ArtifactCache interface {
	// Get returns the cached bytes and true on an unexpired hit.
	// A miss is (nil, false, nil); errors indicate backend trouble and
	// callers fall back to direct computation.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
