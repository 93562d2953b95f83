package recommend

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives the idempotency key for a recommendation request.
// It hashes the defining inputs: who is asking, which corpus is searched,
// what the requester's profile text currently says, the free-text query,
// and any narrowing filter. Components are hashed individually and joined
// with a separator byte so no two input combinations collide by
// concatenation.
func Fingerprint(requesterID, corpusID, canonicalText, query, programType string) string {
	h := sha256.New()
	for _, part := range []string{requesterID, corpusID, contentHash(canonicalText), normalizeQuery(query), programType} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// contentHash condenses the profile text so the fingerprint changes when
// the CV changes but stays stable across requests.
func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// normalizeQuery folds case and whitespace so cosmetic variations of the
// same query share a batch.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
