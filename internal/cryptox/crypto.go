// Package cryptox wraps the one-way hashing primitives used by the credential
// layer: bcrypt for passwords and SHA-256 for session token fingerprints.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor (2^10 rounds).
const DefaultPasswordCost = bcrypt.DefaultCost

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword returns a salted bcrypt hash of password. Costs outside the
// range bcrypt accepts fall back to DefaultPasswordCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultPasswordCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(h), nil
}

// CheckPassword reports whether password matches the bcrypt hash. The
// comparison inside bcrypt is constant-time.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashToken returns the hex SHA-256 digest of token. Only this value is ever
// persisted for sessions.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
