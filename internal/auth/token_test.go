package auth

import (
	"encoding/hex"
	"testing"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	b, _ := GenerateToken()

	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if _, err := hex.DecodeString(a); err != nil {
		t.Fatalf("token is not hex: %v", err)
	}
	if a == b {
		t.Fatal("two tokens should not collide")
	}
}

func TestTokenHasher(t *testing.T) {
	plain := NewTokenHasher("")
	peppered := NewTokenHasher("pepper")

	h1 := plain.Hash("token")
	if h1 != plain.Hash("token") {
		t.Fatal("hash must be deterministic")
	}
	if h1 == "token" || len(h1) != 64 {
		t.Fatalf("unexpected digest %q", h1)
	}
	if h1 == plain.Hash("token2") {
		t.Fatal("different tokens must hash differently")
	}
	if h1 == peppered.Hash("token") {
		t.Fatal("pepper must change the digest")
	}
	if NewTokenHasher("pepper").Hash("token") != peppered.Hash("token") {
		t.Fatal("same pepper must give the same digest")
	}
}
