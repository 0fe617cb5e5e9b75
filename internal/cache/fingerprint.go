// Package cache implements the read-through artifact cache used by the
// pipeline steps: deterministic fingerprinting of step inputs plus a
// get-or-compute wrapper over a ports.ArtifactCache backend.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/espalier-ai/espalier/pkg/domain"
)

// fingerprintInput is the canonical key material. It must contain exactly
// the inputs that determine a cacheable step output: a hidden input (time,
// randomness) would break cache-hit interchangeability, and omitting one
// would let distinct computations collide.
type fingerprintInput struct {
	Kind  string       `json:"kind"`
	Topic string       `json:"topic"`
	Level domain.Level `json:"level"`
	Style domain.Style `json:"style"`
}

// Fingerprint derives the cache key for a step kind and its inputs. Topics
// are normalized (lowercased, trimmed) so trivially different spellings of
// the same request share an entry.
func Fingerprint(kind string, topic string, level domain.Level, style domain.Style) string {
	in := fingerprintInput{
		Kind:  kind,
		Topic: strings.ToLower(strings.TrimSpace(topic)),
		Level: level,
		Style: style,
	}
	// Struct field order is fixed, so marshalling is deterministic.
	data, _ := json.Marshal(in)
	sum := sha256.Sum256(data)
	return "espalier:artifact:" + kind + ":" + hex.EncodeToString(sum[:])
}
