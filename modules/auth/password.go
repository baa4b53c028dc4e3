package auth

import (
	"errors"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the cost used when BCRYPT_COST is unset.
const DefaultBcryptCost = 12

// maxPasswordBytes is the longest input bcrypt reads; anything beyond it would be ignored.
const maxPasswordBytes = 72

// ErrPasswordTooLong is returned for passwords bcrypt would truncate.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// PasswordHasher hashes and verifies account passwords. The same hasher
// serves login checks and the demo seed so both agree on the cost.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a PasswordHasher with DefaultBcryptCost.
func NewPasswordHasher() *PasswordHasher {
	return NewPasswordHasherWithCost(DefaultBcryptCost)
}

// NewPasswordHasherWithCost creates a PasswordHasher, clamping cost to
// the range bcrypt accepts.
func NewPasswordHasherWithCost(cost int) *PasswordHasher {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: cost}
}

// LoadPasswordHasher builds a hasher from BCRYPT_COST.
func LoadPasswordHasher() *PasswordHasher {
	if cost, err := strconv.Atoi(os.Getenv("BCRYPT_COST")); err == nil {
		return NewPasswordHasherWithCost(cost)
	}
	return NewPasswordHasher()
}

// Cost returns the bcrypt cost new hashes are generated with.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash generates a bcrypt hash of the given password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify checks if the provided password matches the hash. Overlong
// passwords never match, even against a hash of their 72-byte prefix.
func (h *PasswordHasher) Verify(password, hash string) bool {
	if len(password) > maxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
