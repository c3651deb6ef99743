package password

import (
	"errors"
	"fmt"
	"strings"
)

// ErrHashingFailure is returned by Hash when the entropy source or hashing
// library fails. It is never caused by the plaintext.
var ErrHashingFailure = errors.New("password: hashing failure")

// ErrInvalidConfig is returned by constructors for out-of-range parameters.
var ErrInvalidConfig = errors.New("password: invalid config")

const (
	// AlgorithmArgon2id selects Argon2id (default).
	AlgorithmArgon2id = "argon2id"
	// AlgorithmBcrypt selects bcrypt.
	AlgorithmBcrypt = "bcrypt"
)

// Hasher hashes and verifies credentials.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, encoded string) bool
	NeedsRehash(encoded string) bool
}

// Config selects the algorithm and its cost parameters.
type Config struct {
	Algorithm string
	Argon2    Argon2Config
	Bcrypt    BcryptConfig
}

// DefaultConfig returns Argon2id with interactive-login parameters.
func DefaultConfig() Config {
	return Config{
		Algorithm: AlgorithmArgon2id,
		Argon2: Argon2Config{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Bcrypt: BcryptConfig{Cost: 12},
	}
}

// New builds a Hasher that hashes with cfg.Algorithm and verifies both
// Argon2id and bcrypt encodings.
func New(cfg Config) (Hasher, error) {
	algo := strings.ToLower(strings.TrimSpace(cfg.Algorithm))
	if algo == "" {
		algo = AlgorithmArgon2id
	}

	m := &multi{}
	var err error
	switch algo {
	case AlgorithmArgon2id:
		if m.argon2, err = NewArgon2(cfg.Argon2); err != nil {
			return nil, err
		}
		m.primary = m.argon2
		m.bcrypt = &Bcrypt{cost: minBcryptCost}
	case AlgorithmBcrypt:
		if m.bcrypt, err = NewBcrypt(cfg.Bcrypt); err != nil {
			return nil, err
		}
		m.primary = m.bcrypt
		m.argon2 = &Argon2{config: minimumArgon2}
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidConfig, cfg.Algorithm)
	}
	return m, nil
}

// multi dispatches verification on the encoded prefix. The verify-only
// member carries floor parameters because verification reads cost from the hash.
type multi struct {
	primary Hasher
	argon2  *Argon2
	bcrypt  *Bcrypt
}

func (m *multi) Hash(plaintext string) (string, error) {
	return m.primary.Hash(plaintext)
}

func (m *multi) Verify(plaintext, encoded string) bool {
	switch {
	case isArgon2(encoded):
		return m.argon2.Verify(plaintext, encoded)
	case isBcrypt(encoded):
		return m.bcrypt.Verify(plaintext, encoded)
	}
	return false
}

func (m *multi) NeedsRehash(encoded string) bool {
	switch m.primary.(type) {
	case *Argon2:
		if !isArgon2(encoded) {
			return true
		}
	case *Bcrypt:
		if !isBcrypt(encoded) {
			return true
		}
	}
	return m.primary.NeedsRehash(encoded)
}

func isArgon2(encoded string) bool {
	return strings.HasPrefix(encoded, "$"+AlgorithmArgon2id+"$")
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") || strings.HasPrefix(encoded, "$2b$") || strings.HasPrefix(encoded, "$2y$")
}
