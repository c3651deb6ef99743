package jwt

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the JWS algorithm used for both token types.
type SigningMethod string

const (
	// MethodHS256 signs with HMAC-SHA256 shared secrets.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with Ed25519 private keys.
	MethodEd25519 SigningMethod = "ed25519"
)

// TokenType distinguishes access from refresh tokens inside the claims.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

const minHMACKeyBytes = 32

var (
	// ErrExpired means the token was well formed and authentic but past exp.
	ErrExpired = errors.New("jwt: token expired")
	// ErrInvalid means the signature, issuer, audience or token type did not match.
	ErrInvalid = errors.New("jwt: token invalid")
	// ErrMalformed means the token could not be parsed at all.
	ErrMalformed = errors.New("jwt: token malformed")
	// ErrInvalidConfig is returned by NewManager.
	ErrInvalidConfig = errors.New("jwt: invalid config")
)

// Config defines the signing material and validation constraints.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	SigningMethod SigningMethod
	// AccessKey and RefreshKey are HS256 secrets or Ed25519 private keys
	// (raw 64-byte seed+public form or PEM). They must differ.
	AccessKey  []byte
	RefreshKey []byte

	Issuer   string
	Audience string

	Leeway       time.Duration
	MaxFutureIAT time.Duration
	// KeyID, when set, is stamped into the kid header and required on parse.
	KeyID string
}

// Claims are carried by both token types.
type Claims struct {
	Role string    `json:"role"`
	Type TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Pair is an access/refresh token pair issued together.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type keyMaterial struct {
	sign   any
	verify any
}

// Manager issues and verifies token pairs. It holds no mutable state and is
// safe for concurrent use.
type Manager struct {
	config  Config
	method  jwt.SigningMethod
	keys    map[TokenType]keyMaterial
	ttl     map[TokenType]time.Duration
	now     func() time.Time
	options []jwt.ParserOption
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for issuance and validation.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager describes the newmanager operation and its observable behavior.
//
// NewManager returns ErrInvalidConfig when TTLs, keys, issuer or audience are
// missing or unusable.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if err := normalizeConfig(&cfg); err != nil {
		return nil, err
	}

	m := &Manager{
		config: cfg,
		now:    time.Now,
		ttl:    map[TokenType]time.Duration{TypeAccess: cfg.AccessTTL, TypeRefresh: cfg.RefreshTTL},
		keys:   make(map[TokenType]keyMaterial, 2),
	}
	for _, opt := range opts {
		opt(m)
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		m.method = jwt.SigningMethodHS256
		m.keys[TypeAccess] = keyMaterial{sign: cfg.AccessKey, verify: cfg.AccessKey}
		m.keys[TypeRefresh] = keyMaterial{sign: cfg.RefreshKey, verify: cfg.RefreshKey}
	case MethodEd25519:
		m.method = jwt.SigningMethodEdDSA
		for typ, raw := range map[TokenType][]byte{TypeAccess: cfg.AccessKey, TypeRefresh: cfg.RefreshKey} {
			priv, err := parseEdPrivateKey(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s key: %v", ErrInvalidConfig, typ, err)
			}
			m.keys[typ] = keyMaterial{sign: priv, verify: priv.Public()}
		}
	}

	m.options = []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	}
	if cfg.Leeway > 0 {
		m.options = append(m.options, jwt.WithLeeway(cfg.Leeway))
	}

	return m, nil
}

func normalizeConfig(cfg *Config) error {
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Audience = strings.TrimSpace(cfg.Audience)
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	cfg.SigningMethod = SigningMethod(strings.ToLower(string(cfg.SigningMethod)))
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodHS256
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}

	switch {
	case cfg.AccessTTL <= 0:
		return fmt.Errorf("%w: access TTL must be > 0", ErrInvalidConfig)
	case cfg.RefreshTTL < cfg.AccessTTL:
		return fmt.Errorf("%w: refresh TTL must be >= access TTL", ErrInvalidConfig)
	case cfg.Issuer == "" || cfg.Audience == "":
		return fmt.Errorf("%w: issuer and audience are required", ErrInvalidConfig)
	case cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute:
		return fmt.Errorf("%w: leeway must be in [0, 2m]", ErrInvalidConfig)
	case cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour:
		return fmt.Errorf("%w: MaxFutureIAT must be in (0, 24h]", ErrInvalidConfig)
	case len(cfg.AccessKey) == 0 || len(cfg.RefreshKey) == 0:
		return fmt.Errorf("%w: access and refresh keys are required", ErrInvalidConfig)
	case bytes.Equal(cfg.AccessKey, cfg.RefreshKey):
		return fmt.Errorf("%w: access and refresh keys must differ", ErrInvalidConfig)
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.AccessKey) < minHMACKeyBytes || len(cfg.RefreshKey) < minHMACKeyBytes {
			return fmt.Errorf("%w: hs256 keys must be at least %d bytes", ErrInvalidConfig, minHMACKeyBytes)
		}
	case MethodEd25519:
	default:
		return fmt.Errorf("%w: unsupported signing method %q", ErrInvalidConfig, cfg.SigningMethod)
	}
	return nil
}

// IssuePair signs an access and a refresh token for subject with role.
func (m *Manager) IssuePair(subject, role string) (Pair, error) {
	access, err := m.issue(subject, role, TypeAccess)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.issue(subject, role, TypeRefresh)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess describes the verifyaccess operation and its observable behavior.
//
// VerifyAccess returns ErrExpired, ErrInvalid or ErrMalformed; the three never overlap.
func (m *Manager) VerifyAccess(token string) (*Claims, error) {
	return m.verify(token, TypeAccess)
}

// VerifyRefresh is VerifyAccess for refresh tokens.
func (m *Manager) VerifyRefresh(token string) (*Claims, error) {
	return m.verify(token, TypeRefresh)
}

// RefreshAccess verifies refreshToken and mints a new access token carrying
// the subject and role from its claims only. Verification failures are
// returned unchanged.
func (m *Manager) RefreshAccess(refreshToken string) (string, error) {
	claims, err := m.VerifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	return m.issue(claims.Subject, claims.Role, TypeAccess)
}

// Peek decodes token without verifying anything. It returns nil when the
// token cannot be decoded. Never authorize on its result.
func (m *Manager) Peek(token string) *Claims {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

func (m *Manager) issue(subject, role string, typ TokenType) (string, error) {
	now := m.now()
	claims := Claims{
		Role: role,
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.config.Issuer,
			Audience:  jwt.ClaimStrings{m.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl[typ])),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(m.method, claims)
	if m.config.KeyID != "" {
		token.Header["kid"] = m.config.KeyID
	}
	return token.SignedString(m.keys[typ].sign)
}

func (m *Manager) verify(tokenStr string, typ TokenType) (*Claims, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, ErrMalformed
	}

	parser := jwt.NewParser(m.options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if m.config.KeyID != "" {
			if kid, _ := t.Header["kid"].(string); kid != m.config.KeyID {
				return nil, errors.New("unknown kid")
			}
		}
		return m.keys[typ].verify, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}
	if claims.Type != typ || claims.Subject == "" {
		return nil, ErrInvalid
	}
	if claims.IssuedAt != nil && claims.IssuedAt.After(m.now().Add(m.config.MaxFutureIAT)) {
		return nil, ErrInvalid
	}
	return claims, nil
}

// classify folds parser errors into the three caller-visible kinds. The
// parser checks the signature before claims, so an expired token only
// reports ErrExpired once it is known to be authentic.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	switch len(key) {
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(key), nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}
