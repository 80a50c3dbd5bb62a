package core

import (
	"crypto/sha256"
	"fmt"
)

// Hash is a hex-encoded SHA-256 digest used for determinism fingerprints
type Hash string

// HashBytes computes the canonical hash of a byte payload
func HashBytes(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(fmt.Sprintf("%x", sum))
}

// HashString computes the canonical hash of a string payload
func HashString(s string) Hash {
	return HashBytes([]byte(s))
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}
