// Package password provides one-way credential hashing and verification.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords using bcrypt with a fresh salt per
// call. The zero value uses bcrypt's default cost.
type Hasher struct {
	cost int
}

// NewHasher constructs a Hasher. A cost outside bcrypt's supported range
// falls back to the default cost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the salted one-way hash of plaintext. Hashing the empty
// string is permitted; input validation belongs to callers.
func (h *Hasher) Hash(plaintext string) (string, error) {
	cost := h.cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. Malformed hashes verify
// false rather than erroring.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
