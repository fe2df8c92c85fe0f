package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// tokenBytes is the entropy of an issued bearer token (256 bits).
const tokenBytes = 32

// GenerateToken returns a random hex-encoded bearer token.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// TokenHasher derives the stored digest of a bearer token. With a pepper the
// digest is a keyed BLAKE2b-256 MAC; without one it is plain BLAKE2b-256.
type TokenHasher struct {
	key []byte
}

// NewTokenHasher returns a hasher keyed by pepper.
func NewTokenHasher(pepper string) *TokenHasher {
	if pepper == "" {
		return &TokenHasher{}
	}
	// blake2b keys are at most 64 bytes; normalize any pepper to 32
	k := blake2b.Sum256([]byte(pepper))
	return &TokenHasher{key: k[:]}
}

// Hash returns the hex digest of token.
func (h *TokenHasher) Hash(token string) string {
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// only reachable with a key longer than 64 bytes
		panic(err)
	}
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
