// Package password hashes and verifies employee credentials with bcrypt.
package password

import (
	"errors"
	"fmt"

	"github.com/go-employee-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// Codec is a salted one-way password transform.
type Codec struct {
	cost int
}

// NewCodec returns a Codec using the given bcrypt cost. Out-of-range costs
// fall back to bcrypt.DefaultCost.
func NewCodec(cost int) *Codec {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Codec{cost: cost}
}

// Hash returns a fresh salted digest; the same plaintext yields a different digest on every call.
func (c *Codec) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), c.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A mismatch is (false, nil);
// only a malformed digest is an error, wrapping domain.ErrCorruptCredential.
func (c *Codec) Verify(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", domain.ErrCorruptCredential, err)
	}
}
