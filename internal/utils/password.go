package utils

import "golang.org/x/crypto/bcrypt"

// bcrypt silently rejects inputs longer than 72 bytes, so both hashing and
// verification truncate at that limit.  Bytes beyond the limit are accepted
// but ignored; this matches the historical behavior of stored hashes and
// must not change.
const maxPasswordBytes = 72

func truncatePassword(plain string) []byte {
	b := []byte(plain)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// HashPassword returns a bcrypt hash using the given cost.  A fresh random
// salt is generated on every call, so hashing the same plaintext twice
// yields different strings.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword(truncatePassword(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(plain)) == nil
}
