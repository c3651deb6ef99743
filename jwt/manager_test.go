package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testConfig() Config {
	return Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		SigningMethod: MethodHS256,
		AccessKey:     []byte("access-secret-0123456789abcdefghij"),
		RefreshKey:    []byte("refresh-secret-0123456789abcdefghij"),
		Issuer:        "goidentity",
		Audience:      "api",
	}
}

func newTestManager(t *testing.T, cfg Config) (*Manager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m, err := NewManager(cfg, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	return m, clock
}

func TestIssuePairRoundTrip(t *testing.T) {
	m, _ := newTestManager(t, testConfig())

	pair, err := m.IssuePair("acct-1", "USER")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}

	access, err := m.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess error: %v", err)
	}
	if access.Subject != "acct-1" || access.Role != "USER" || access.Type != TypeAccess {
		t.Fatalf("unexpected access claims: %+v", access)
	}
	if access.ID == "" {
		t.Fatal("expected jti to be set")
	}

	refresh, err := m.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefresh error: %v", err)
	}
	if refresh.Subject != "acct-1" || refresh.Type != TypeRefresh {
		t.Fatalf("unexpected refresh claims: %+v", refresh)
	}
	if !refresh.ExpiresAt.After(access.ExpiresAt.Time) {
		t.Fatal("expected refresh token to outlive access token")
	}
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	pair, err := m.IssuePair("acct-1", "USER")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}

	if _, err := m.VerifyRefresh(pair.AccessToken); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected access token rejected as refresh with ErrInvalid, got %v", err)
	}
	if _, err := m.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected refresh token rejected as access with ErrInvalid, got %v", err)
	}
	if _, err := m.RefreshAccess(pair.AccessToken); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected RefreshAccess to reject access token, got %v", err)
	}
}

func TestErrorKindsAreDistinct(t *testing.T) {
	m, clock := newTestManager(t, testConfig())
	pair, err := m.IssuePair("acct-1", "ADMIN")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}

	if _, err := m.VerifyAccess("garbage"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if _, err := m.VerifyAccess(""); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for empty token, got %v", err)
	}

	parts := strings.Split(pair.AccessToken, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := m.VerifyAccess(tampered); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for tampered signature, got %v", err)
	}

	clock.Advance(16 * time.Minute)
	_, err = m.VerifyAccess(pair.AccessToken)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if errors.Is(err, ErrInvalid) || errors.Is(err, ErrMalformed) {
		t.Fatalf("expected expired error to carry only ErrExpired, got %v", err)
	}
}

func TestRefreshAccess(t *testing.T) {
	m, clock := newTestManager(t, testConfig())
	pair, err := m.IssuePair("acct-9", "DEVELOPER")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}

	clock.Advance(time.Hour)
	if _, err := m.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected original access token to be expired, got %v", err)
	}

	access, err := m.RefreshAccess(pair.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshAccess error: %v", err)
	}
	claims, err := m.VerifyAccess(access)
	if err != nil {
		t.Fatalf("VerifyAccess error: %v", err)
	}
	if claims.Subject != "acct-9" || claims.Role != "DEVELOPER" {
		t.Fatalf("expected subject and role copied from refresh token, got %+v", claims)
	}
}

func TestRefreshAccessExpiredIsExpired(t *testing.T) {
	m, clock := newTestManager(t, testConfig())
	pair, err := m.IssuePair("acct-1", "USER")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}

	clock.Advance(8 * 24 * time.Hour)
	_, err = m.RefreshAccess(pair.RefreshToken)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if errors.Is(err, ErrInvalid) {
		t.Fatal("expired refresh token must not be reported as invalid")
	}
}

func TestIssuerAndAudienceEnforced(t *testing.T) {
	cfg := testConfig()
	m, clock := newTestManager(t, cfg)

	sign := func(iss, aud string) string {
		claims := Claims{Role: "USER", Type: TypeAccess, RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "acct-1",
			Issuer:    iss,
			Audience:  gjwt.ClaimStrings{aud},
			IssuedAt:  gjwt.NewNumericDate(clock.Now()),
			ExpiresAt: gjwt.NewNumericDate(clock.Now().Add(time.Minute)),
		}}
		tok, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(cfg.AccessKey)
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		return tok
	}

	if _, err := m.VerifyAccess(sign("goidentity", "api")); err != nil {
		t.Fatalf("expected matching issuer/audience to pass: %v", err)
	}
	if _, err := m.VerifyAccess(sign("other", "api")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected wrong issuer to be ErrInvalid, got %v", err)
	}
	if _, err := m.VerifyAccess(sign("goidentity", "other-api")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected wrong audience to be ErrInvalid, got %v", err)
	}
}

func TestRejectsWrongAlgorithm(t *testing.T) {
	cfg := testConfig()
	m, clock := newTestManager(t, cfg)

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	claims := Claims{Type: TypeAccess, RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "acct-1",
		Issuer:    cfg.Issuer,
		Audience:  gjwt.ClaimStrings{cfg.Audience},
		ExpiresAt: gjwt.NewNumericDate(clock.Now().Add(time.Minute)),
	}}
	tok, err := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, claims).SignedString(priv)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.VerifyAccess(tok); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected wrong algorithm to be ErrInvalid, got %v", err)
	}
}

func TestEd25519AndKeyID(t *testing.T) {
	_, accessPriv, _ := ed25519.GenerateKey(rand.Reader)
	_, refreshPriv, _ := ed25519.GenerateKey(rand.Reader)

	cfg := testConfig()
	cfg.SigningMethod = MethodEd25519
	cfg.AccessKey = accessPriv
	cfg.RefreshKey = refreshPriv
	cfg.KeyID = "k1"
	m, _ := newTestManager(t, cfg)

	pair, err := m.IssuePair("acct-1", "USER")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	if _, err := m.VerifyAccess(pair.AccessToken); err != nil {
		t.Fatalf("VerifyAccess error: %v", err)
	}

	cfg.KeyID = "k2"
	other, _ := newTestManager(t, cfg)
	if _, err := other.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected unknown kid to be ErrInvalid, got %v", err)
	}
}

func TestPeekDoesNotVerify(t *testing.T) {
	m, clock := newTestManager(t, testConfig())
	pair, err := m.IssuePair("acct-1", "USER")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	clock.Advance(30 * 24 * time.Hour)

	claims := m.Peek(pair.AccessToken)
	if claims == nil || claims.Subject != "acct-1" {
		t.Fatalf("expected Peek to decode expired token, got %+v", claims)
	}
	if m.Peek("garbage") != nil {
		t.Fatal("expected Peek to return nil for undecodable token")
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	mutations := map[string]func(*Config){
		"no access ttl":     func(c *Config) { c.AccessTTL = 0 },
		"short refresh ttl": func(c *Config) { c.RefreshTTL = time.Minute },
		"no issuer":         func(c *Config) { c.Issuer = " " },
		"no audience":       func(c *Config) { c.Audience = "" },
		"same keys":         func(c *Config) { c.RefreshKey = c.AccessKey },
		"short hmac key":    func(c *Config) { c.AccessKey = []byte("short") },
		"bad leeway":        func(c *Config) { c.Leeway = time.Hour },
		"bad method":        func(c *Config) { c.SigningMethod = "rs256" },
		"bad ed25519 key": func(c *Config) {
			c.SigningMethod = MethodEd25519
			c.AccessKey = []byte("not-a-key")
		},
	}
	for name, mutate := range mutations {
		cfg := testConfig()
		mutate(&cfg)
		if _, err := NewManager(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}
