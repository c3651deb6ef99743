package password

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	minBcryptCost = 10
	bcryptMaxLen  = 72
)

// BcryptConfig holds the bcrypt work factor.
type BcryptConfig struct {
	Cost int
}

// Bcrypt hashes with bcrypt at a fixed cost.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns ErrInvalidConfig when Cost is outside [10, bcrypt.MaxCost].
func NewBcrypt(cfg BcryptConfig) (*Bcrypt, error) {
	if cfg.Cost < minBcryptCost || cfg.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost must be in [%d, %d]", ErrInvalidConfig, minBcryptCost, bcrypt.MaxCost)
	}
	return &Bcrypt{cost: cfg.Cost}, nil
}

// Hash describes the hash operation and its observable behavior.
//
// Plaintext longer than bcrypt's 72-byte input limit is first reduced to a
// SHA-256 digest so long passphrases are neither rejected nor truncated.
func (b *Bcrypt) Hash(plaintext string) (string, error) {
	out, err := bcrypt.GenerateFromPassword(bcryptInput(plaintext), b.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashingFailure, err)
	}
	return string(out), nil
}

func (b *Bcrypt) Verify(plaintext, encoded string) bool {
	if plaintext == "" || encoded == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(encoded), bcryptInput(plaintext)) == nil
}

func (b *Bcrypt) NeedsRehash(encoded string) bool {
	cost, err := bcrypt.Cost([]byte(encoded))
	if err != nil {
		return true
	}
	return cost < b.cost
}

func bcryptInput(plaintext string) []byte {
	if len(plaintext) <= bcryptMaxLen {
		return []byte(plaintext)
	}
	sum := sha256.Sum256([]byte(plaintext))
	return []byte(base64.RawStdEncoding.EncodeToString(sum[:]))
}
