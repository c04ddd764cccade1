// Package password hashes and compares user secrets with bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes with a fixed bcrypt cost.
type Hasher struct {
	Cost int

	// dummy is compared against when a login names an unknown email, so
	// the response time does not reveal whether the account exists.
	dummy []byte
}

// NewHasher clamps cost into bcrypt's accepted range.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("unused-credential"), cost)
	return Hasher{Cost: cost, dummy: dummy}
}

// Hash returns the salted bcrypt hash of plain.
func (h Hasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", fmt.Errorf("password: hashing: %w", err)
	}
	return string(b), nil
}

// Matches compares in constant time using bcrypt's own comparator.
func (h Hasher) Matches(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Burn performs a full-cost comparison whose result is discarded.
func (h Hasher) Burn(plain string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
}
