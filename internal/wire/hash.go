package wire

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefix for content hashes. Version suffix enables future
// algorithm migration.
const domainPayload = "ledgerkeep/payload/v1"

// PayloadHash computes a content hash over an entity payload, scoped by
// entity type and id. Two outbox items with equal hashes carry the same
// logical mutation.
//
// Format: SHA256(domain + 0x00 + canonical JSON). The null byte separator
// prevents domain/data boundary ambiguity.
func PayloadHash(entityType, entityID string, payload map[string]any) (string, error) {
	obj := map[string]any{
		"entity_type": entityType,
		"entity_id":   entityID,
		"payload":     payload,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("payload hash: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(domainPayload))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}
