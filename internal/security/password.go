package security

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// bcryptPrefix marks hashes exported by Spring's DelegatingPasswordEncoder.
const bcryptPrefix = "{bcrypt}"

// Hash returns the bcrypt hash of password at the given cost.
func Hash(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches the encoded hash. A mismatch is
// not an error; an empty or malformed hash is.
func Verify(password, encoded string) (bool, error) {
	encoded = strings.TrimPrefix(encoded, bcryptPrefix)
	if encoded == "" {
		return false, errors.New("empty password hash")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("compare password: %w", err)
	}
	return true, nil
}

var dummy struct {
	mu   sync.Mutex
	cost int
	hash []byte
}

// SetDummyCost sets the bcrypt cost of the hash VerifyDummy compares
// against. It should match the cost used for stored hashes.
func SetDummyCost(cost int) {
	dummy.mu.Lock()
	defer dummy.mu.Unlock()
	if cost != dummy.cost {
		dummy.cost = cost
		dummy.hash = nil
	}
}

// VerifyDummy spends the same bcrypt work as Verify against a throwaway
// hash and always reports a mismatch. Call it when no stored hash exists so
// lookups of unknown login IDs take as long as wrong passwords.
func VerifyDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
}

func dummyHash() []byte {
	dummy.mu.Lock()
	defer dummy.mu.Unlock()
	if dummy.hash == nil {
		cost := dummy.cost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		h, err := bcrypt.GenerateFromPassword([]byte("dummy-password-never-matches"), cost)
		if err != nil {
			// Only an out-of-range cost fails; fall back so timing still holds.
			h, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-never-matches"), bcrypt.DefaultCost)
		}
		dummy.hash = h
	}
	return dummy.hash
}
