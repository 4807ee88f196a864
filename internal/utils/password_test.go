package utils

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-password", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "s3cret-password") {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword(hash, "wrong-password") {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPasswordSalts(t *testing.T) {
	h1, err := HashPassword("same", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword("same", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestLongPasswordsTruncate(t *testing.T) {
	// bcrypt only reads 72 bytes; passwords differing beyond that boundary
	// must verify against each other's hashes.
	base := strings.Repeat("a", 72)
	hash, err := HashPassword(base+"tail-one", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, base+"different-tail") {
		t.Fatal("passwords identical in the first 72 bytes did not verify")
	}
	if VerifyPassword(hash, base[:71]+"X") {
		t.Fatal("password differing inside the first 72 bytes verified")
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"  User@Example.COM ": "user@example.com",
		"plain@example.com":   "plain@example.com",
		"":                    "",
	}
	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTokenShapes(t *testing.T) {
	token, err := NewSessionToken()
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("session token length = %d, want 64", len(token))
	}
	id, err := NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID: %v", err)
	}
	if len(id) != 16 {
		t.Fatalf("session id length = %d, want 16", len(id))
	}
	other, err := NewSessionToken()
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	if token == other {
		t.Fatal("two session tokens are identical")
	}
}
