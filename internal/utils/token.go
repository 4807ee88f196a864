package utils // package utils provides helper functions for token creation and identity normalization

import (
	"crypto/rand"   // secure random number generation
	"encoding/hex"  // hex encoding for token strings
	"strings"       // trimming and case folding for identities
)

// NewSessionToken returns a long opaque credential suitable for the session
// registry.  Tokens are 32 random bytes encoded as 64 hex characters and are
// never exposed to user-facing clients directly; clients receive a short
// session id that indirects to the token.
func NewSessionToken() (string, error) {
	return randomHex(32)
}

// NewSessionID returns a short client-facing identifier.  Eight random bytes
// keep the id human-friendly (16 hex characters) at the cost of a small
// collision probability, which callers must handle by regenerating.
func NewSessionID() (string, error) {
	return randomHex(8)
}

// NewPurchaseID returns an identifier for a purchase ledger row.
func NewPurchaseID() (string, error) {
	return randomHex(12)
}

// NormalizeEmail folds an email address into its canonical stored form.
// Every store keys accounts by the normalized value, so normalization
// happens once at the boundary instead of inside each store function.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.  If the random number generator
// fails, an error is returned.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
