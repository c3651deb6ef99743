package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"
)

const (
	minDigits = 4
	maxDigits = 10
)

// Purpose scopes a challenge to the flow that issued it.
type Purpose string

const (
	PurposeVerification  Purpose = "verification"
	PurposePasswordReset Purpose = "password_reset"
	PurposeLogin         Purpose = "login"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeVerification, PurposePasswordReset, PurposeLogin:
		return true
	}
	return false
}

// Challenge is an open verification challenge embedded in an account.
type Challenge struct {
	Code      string    `json:"code"`
	Purpose   Purpose   `json:"purpose"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Clone returns a deep copy of c, or nil.
func (c *Challenge) Clone() *Challenge {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

// Config controls code width and validity window.
type Config struct {
	Digits int
	TTL    time.Duration
}

// Generator creates challenges. It is immutable and safe for concurrent use.
type Generator struct {
	digits int
	ttl    time.Duration
	low    *big.Int
	span   *big.Int
	now    func() time.Time
	random io.Reader
}

// Option customizes a Generator.
type Option func(*Generator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithRandom overrides the entropy source. Intended for tests.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) {
		if r != nil {
			g.random = r
		}
	}
}

var (
	// ErrInvalidConfig is returned by NewGenerator for out-of-range settings.
	ErrInvalidConfig = errors.New("otp: invalid config")
	// ErrEntropy wraps failures of the underlying random source.
	ErrEntropy = errors.New("otp: entropy source failure")
)

// NewGenerator validates cfg and returns a Generator.
func NewGenerator(cfg Config, opts ...Option) (*Generator, error) {
	if cfg.Digits < minDigits || cfg.Digits > maxDigits {
		return nil, fmt.Errorf("%w: digits must be between %d and %d", ErrInvalidConfig, minDigits, maxDigits)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%w: ttl must be > 0", ErrInvalidConfig)
	}

	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(cfg.Digits-1)), nil)
	high := new(big.Int).Mul(low, big.NewInt(10))

	g := &Generator{
		digits: cfg.Digits,
		ttl:    cfg.TTL,
		low:    low,
		span:   new(big.Int).Sub(high, low),
		now:    time.Now,
		random: rand.Reader,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// Digits returns the configured code width.
func (g *Generator) Digits() int { return g.digits }

// TTL returns the configured validity window.
func (g *Generator) TTL() time.Duration { return g.ttl }

// Generate returns a fresh challenge for purpose.
func (g *Generator) Generate(purpose Purpose) (*Challenge, error) {
	n, err := rand.Int(g.random, g.span)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	n.Add(n, g.low)

	code := n.String()
	if len(code) != g.digits {
		return nil, fmt.Errorf("%w: generated code has unexpected width", ErrEntropy)
	}

	return &Challenge{
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: g.now().Add(g.ttl),
	}, nil
}

// Validate checks code against ch using the generator clock.
func (g *Generator) Validate(ch *Challenge, purpose Purpose, code string) bool {
	return Validate(ch, purpose, code, g.now())
}

// Validate reports whether code satisfies ch at time now. It never mutates ch.
func Validate(ch *Challenge, purpose Purpose, code string, now time.Time) bool {
	if ch == nil || ch.Code == "" || code == "" {
		return false
	}
	if ch.Purpose != purpose {
		return false
	}
	if now.After(ch.ExpiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(ch.Code), []byte(code)) == 1
}

// IsNumeric reports whether s is a non-empty ASCII digit string.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	return strings.Trim(s, "0123456789") == ""
}
