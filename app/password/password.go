package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidInput = errors.New("password input must be a non-empty string")

// Hasher wraps bcrypt with a configurable work factor. The produced hash
// encodes algorithm, cost and salt, so verification needs no side channel.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrInvalidInput
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify returns false on mismatch without an error; errors are reserved
// for malformed input or a hash bcrypt cannot parse.
func (h *Hasher) Verify(plaintext, hash string) (bool, error) {
	if plaintext == "" || hash == "" {
		return false, ErrInvalidInput
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
