package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash() error: %v", err)
	}
	if hash == "pw123" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !h.Verify(hash, "pw123") {
		t.Error("expected correct password to verify")
	}
	if h.Verify(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}

func TestHash_Salted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Error("expected distinct hashes for the same input")
	}
}

func TestHash_TooLong(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	if _, err := h.Hash(strings.Repeat("x", MaxLength+1)); err != ErrTooLong {
		t.Errorf("expected ErrTooLong, got %v", err)
	}
}

func TestVerify_GarbageHash(t *testing.T) {
	h := NewHasher(0)
	if h.Verify("not-a-bcrypt-hash", "pw") {
		t.Error("expected malformed hash to fail verification")
	}
}
