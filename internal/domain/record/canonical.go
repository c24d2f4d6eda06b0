package record

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CanonicalJSON serializes a decoded mapping with object keys in
// lexicographic order at every nesting level, the property fingerprinting
// depends on. encoding/json guarantees sorted keys for map values; this
// function names that contract so hashing call sites don't rely on it
// implicitly.
func CanonicalJSON(m map[string]any) ([]byte, error) {
	return json.Marshal(m)
}

// Fingerprint returns the lowercase hex SHA-256 digest of the canonical
// serialization of m.
func Fingerprint(m map[string]any) (string, error) {
	b, err := CanonicalJSON(m)
	if err != nil {
		return "", fmt.Errorf("canonical serialization: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Fingerprint hashes the record as received. Enrichment never alters the
// fingerprint because it always hashes the pre-enrichment mapping.
func (r *Record) Fingerprint() (string, error) {
	return Fingerprint(r.ToMap())
}
