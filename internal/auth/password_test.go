package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_Format(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("expected PHC argon2id prefix, got %s", hash)
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Errorf("expected 6 PHC segments, got %d", len(parts))
	}
}

func TestHashPassword_UniqueSalt(t *testing.T) {
	h1, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	h2, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if h1 == h2 {
		t.Error("expected different hashes for the same password (random salt)")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	match, err := VerifyPassword("secret1", hash)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !match {
		t.Error("expected correct password to verify")
	}

	match, err = VerifyPassword("wrongpass", hash)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if match {
		t.Error("expected wrong password to fail verification")
	}
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"garbage", "not-a-hash"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifyPassword("secret1", tt.hash); err == nil {
				t.Error("expected error for invalid hash")
			}
		})
	}
}
