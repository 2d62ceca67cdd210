package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns an opaque 32-character hex token, optionally prefixed.
// Used for session ids, token jtis, and request ids.
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
