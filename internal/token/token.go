// Package token generates the opaque random identifiers used for session
// ids, session secrets, and user ids.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// 24 bytes = 192 bits of entropy, encoded to 32 url-safe characters. That
// keeps identifiers well under the 36-character storage limit while staying
// far above the 120-bit collision-resistance floor.
const randomBytes = 24

// Generate returns a cryptographically secure random string. Every call is
// an independent draw; a failure of the underlying entropy source is an
// infrastructure fault and is returned as-is, never papered over.
func Generate() (string, error) {
	b := make([]byte, randomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("token: read random source: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
