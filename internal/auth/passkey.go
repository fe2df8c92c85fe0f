// Package auth implements owner passkey verification and bearer sessions.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
)

// PasskeyVerifier checks a submitted passkey against the configured secret.
type PasskeyVerifier struct {
	digest     [sha256.Size]byte
	configured bool
}

// NewPasskeyVerifier returns a verifier for secret. An empty secret disables login.
func NewPasskeyVerifier(secret string) *PasskeyVerifier {
	if secret == "" {
		return &PasskeyVerifier{}
	}
	return &PasskeyVerifier{digest: sha256.Sum256([]byte(secret)), configured: true}
}

// Configured reports whether a secret is set.
func (v *PasskeyVerifier) Configured() bool {
	return v.configured
}

// Verify reports whether submitted matches the secret. Both sides are reduced
// to fixed-size digests first so neither length nor the position of the first
// differing byte affects timing. It is always false when no secret is set.
func (v *PasskeyVerifier) Verify(submitted string) bool {
	if !v.configured {
		return false
	}
	got := sha256.Sum256([]byte(submitted))
	return subtle.ConstantTimeCompare(got[:], v.digest[:]) == 1
}
