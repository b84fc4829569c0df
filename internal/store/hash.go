package store

import (
	"crypto/sha256"
	"fmt"
)

// Fingerprint computes the content fingerprint of a file's bytes: a 256-bit
// hash used as the cache key for incremental indexing (§3 "Content
// fingerprint", invariant 6).
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return fmt.Sprintf("%x", sum)
}
