package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random 128-bit hex id, optionally prefixed.
func NewID(prefix string) string {
	return withPrefix(prefix, randomHex(16))
}

// ShortID returns a random 64-bit hex id for request tracing.
func ShortID(prefix string) string {
	return withPrefix(prefix, randomHex(8))
}

func randomHex(n int) string {
	bytes := make([]byte, n)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func withPrefix(prefix, id string) string {
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
