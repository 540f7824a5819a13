package store

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewID generates a 32-hex-character identifier from 16 random bytes.
// All persisted entities are keyed with this format.
func NewID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the system entropy source is broken.
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}
