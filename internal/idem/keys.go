package idem

import (
	"fmt"

	"github.com/google/uuid"
)

// Operation kinds used by the domain wrappers. Call sites that wrap their own
// operations should define kinds in the same style: lowercase, underscore
// separated, stable across releases (keys built from them may be persisted).
const (
	KindDrawOutcome  = "draw_outcome"
	KindBudgetChange = "budget_change"
	KindRebalance    = "rebalance"
)

// Key builds a natural idempotency key from an operation kind and target
// entity. Two calls with the same inputs produce the same key, so the guard
// suppresses the second - this is the normal duplicate-click protection.
//
// Uniqueness across UNRELATED operations is the caller's responsibility:
// distinct kinds or entity IDs never collide, but reusing an entity ID for a
// different logical mutation of the same kind will.
func Key(kind, entityID string) string {
	return fmt.Sprintf("%s:%s", kind, entityID)
}

// GenerateKey builds a key guaranteed unique across repeated calls for the
// same logical inputs, by appending a UUIDv7 nonce. Use it when the caller
// has no natural idempotency key of its own, or to deliberately retry an
// operation whose previous key is permanently claimed.
//
// UUIDv7 embeds a timestamp in the most significant bits, so generated keys
// sort by creation time - helpful when scanning a persisted ledger.
func GenerateKey(kind, entityID string) string {
	return fmt.Sprintf("%s:%s:%s", kind, entityID, uuid.Must(uuid.NewV7()).String())
}
