package auth

import (
	"strings"

	"github.com/google/uuid"
)

// NewKey mints the opaque hex material used for API tokens, activation
// keys, and password reset keys. 32 lowercase hex characters.
func NewKey() string {
	u := uuid.New()
	return strings.ReplaceAll(u.String(), "-", "")
}

// ValidKeyFormat reports whether raw looks like a key NewKey produced.
// Malformed keys short-circuit to the same rejection as unknown keys so the
// caller leaks nothing about which part failed.
func ValidKeyFormat(raw string) bool {
	if len(raw) != 32 {
		return false
	}
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
