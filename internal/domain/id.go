package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// idHexLen is the number of hex characters kept from the digest after
// the `entry_` prefix.
const idHexLen = 16

// CanonicalID derives the deterministic CanonicalRecord id from the
// cleaned (headword, language, definition) triple. It is a pure function:
// the same inputs always produce the same id.
func CanonicalID(headword, language, definition string) string {
	sum := sha256.Sum256([]byte(headword + language + definition))
	return "entry_" + hex.EncodeToString(sum[:])[:idHexLen]
}

// Checksum computes the content-address used to deduplicate RawRecords.
// Callers pass a canonical (key-sorted) serialization of the payload.
func Checksum(canonicalPayload []byte) string {
	sum := sha256.Sum256(canonicalPayload)
	return hex.EncodeToString(sum[:])
}
