package utils

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID returns a prefixed id like "proj-1a2b3c4d". The 8-hex-char tail is
// what the rest of the system (and stored rows) expect for entity ids.
func NewID(prefix string) string {
	return NewIDLen(prefix, 8)
}

// NewIDLen returns a prefixed id with n hex chars of randomness.
func NewIDLen(prefix string, n int) string {
	u := uuid.New()
	h := hex.EncodeToString(u[:])
	if n <= 0 || n > len(h) {
		n = len(h)
	}
	return prefix + "-" + h[:n]
}
