package goIdentity

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/delivery"
	"github.com/MrEthical07/goIdentity/password"
	"golang.org/x/crypto/bcrypt"
)

// Config defines every tunable of the identity engine.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
// Field tags drive [ConfigFromEnv]; variables carry the IDENTITY_ prefix.
type Config struct {
	Token    TokenConfig    `envPrefix:"TOKEN_"`
	Password PasswordConfig `envPrefix:"PASSWORD_"`
	OTP      OTPConfig      `envPrefix:"OTP_"`
	Account  AccountConfig  `envPrefix:"ACCOUNT_"`
	Lockout  LockoutConfig  `envPrefix:"LOCKOUT_"`
	Delivery DeliveryConfig `envPrefix:"DELIVERY_"`
	Audit    AuditConfig    `envPrefix:"AUDIT_"`
	Metrics  MetricsConfig  `envPrefix:"METRICS_"`

	// ProductionMode tightens Validate to reject weak TTLs and hashing costs.
	ProductionMode bool `env:"PRODUCTION_MODE"`
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines the access/refresh token pair.
//
// AccessKey and RefreshKey are HS256 secrets or Ed25519 private keys (PEM,
// 32-byte seed or 64-byte raw). They must differ.
type TokenConfig struct {
	AccessTTL     time.Duration `env:"ACCESS_TTL"`
	RefreshTTL    time.Duration `env:"REFRESH_TTL"`
	SigningMethod string        `env:"SIGNING_METHOD"` // "hs256" (default) or "ed25519"
	AccessKey     string        `env:"ACCESS_KEY,unset"`
	RefreshKey    string        `env:"REFRESH_KEY,unset"`
	KeyID         string        `env:"KEY_ID"`
	Issuer        string        `env:"ISSUER"`
	Audience      string        `env:"AUDIENCE"`
	Leeway        time.Duration `env:"LEEWAY"`
	// CheckAccountOnRefresh makes Refresh load the account and reject
	// subjects that can no longer authenticate. Off by default: refresh
	// tokens are stateless.
	CheckAccountOnRefresh bool `env:"CHECK_ACCOUNT_ON_REFRESH"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by goIdentity APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Algorithm   string `env:"ALGORITHM"` // "argon2id" (default) or "bcrypt"
	Memory      uint32 `env:"MEMORY"`    // in KiB
	Time        uint32 `env:"TIME"`
	Parallelism uint8  `env:"PARALLELISM"`
	SaltLength  uint32 `env:"SALT_LENGTH"`
	KeyLength   uint32 `env:"KEY_LENGTH"`
	BcryptCost  int    `env:"BCRYPT_COST"`

	// MaxConcurrent bounds simultaneous hash operations; 0 means GOMAXPROCS.
	MaxConcurrent int `env:"MAX_CONCURRENT"`
	MinLength     int `env:"MIN_LENGTH"`
	MaxLength     int `env:"MAX_LENGTH"`
	// UpgradeOnLogin rehashes stored credentials that use another
	// algorithm or weaker parameters after a successful login.
	UpgradeOnLogin bool `env:"UPGRADE_ON_LOGIN"`
}

func (c PasswordConfig) hasherConfig() password.Config {
	return password.Config{
		Algorithm: c.Algorithm,
		Argon2: password.Argon2Config{
			Memory:      c.Memory,
			Time:        c.Time,
			Parallelism: c.Parallelism,
			SaltLength:  c.SaltLength,
			KeyLength:   c.KeyLength,
		},
		Bcrypt: password.BcryptConfig{Cost: c.BcryptCost},
	}
}

// OTPConfig controls verification code width and validity window.
type OTPConfig struct {
	Digits int           `env:"DIGITS"`
	TTL    time.Duration `env:"TTL"`
}

// AccountConfig defines a public type used by goIdentity APIs.
//
// AccountConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccountConfig struct {
	// DefaultRole is assigned to every self-service and external signup.
	DefaultRole account.Role `env:"DEFAULT_ROLE"`
	// MaxCASRetries caps compare-and-swap attempts per mutation.
	MaxCASRetries int `env:"MAX_CAS_RETRIES"`
	// EnumerationDelay adds a random 20-40ms pause to request flows that
	// silently ignore unknown identifiers.
	EnumerationDelay bool `env:"ENUMERATION_DELAY"`
}

// LockoutConfig drives the ACTIVE -> TEMPORARILY_BLOCKED transition.
type LockoutConfig struct {
	Enabled   bool          `env:"ENABLED"`
	Threshold int           `env:"THRESHOLD"`
	Cooldown  time.Duration `env:"COOLDOWN"`
}

// DeliveryConfig defines a public type used by goIdentity APIs.
//
// DeliveryConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DeliveryConfig struct {
	// Timeout bounds each call into the Deliverer; 0 uses the request context only.
	Timeout time.Duration `env:"TIMEOUT"`
	// RevealCodes makes the default log deliverer print codes. Development only.
	RevealCodes bool                 `env:"REVEAL_CODES"`
	Queue       delivery.QueueConfig `envPrefix:"QUEUE_"`
}

// AuditConfig defines a public type used by goIdentity APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

// MetricsConfig defines a public type used by goIdentity APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. Token keys, issuer and
// audience have no defaults and must be supplied before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		Token: TokenConfig{
			AccessTTL:     time.Hour,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "hs256",
			Leeway:        5 * time.Second,
		},
		Password: PasswordConfig{
			Algorithm:      password.AlgorithmArgon2id,
			Memory:         pw.Argon2.Memory,
			Time:           pw.Argon2.Time,
			Parallelism:    pw.Argon2.Parallelism,
			SaltLength:     pw.Argon2.SaltLength,
			KeyLength:      pw.Argon2.KeyLength,
			BcryptCost:     pw.Bcrypt.Cost,
			MaxConcurrent:  0,
			MinLength:      8,
			MaxLength:      1024,
			UpgradeOnLogin: true,
		},
		OTP: OTPConfig{
			Digits: 6,
			TTL:    10 * time.Minute,
		},
		Account: AccountConfig{
			DefaultRole:      account.RoleUser,
			MaxCASRetries:    5,
			EnumerationDelay: true,
		},
		Lockout: LockoutConfig{
			Enabled:   true,
			Threshold: 5,
			Cooldown:  15 * time.Minute,
		},
		Delivery: DeliveryConfig{
			Timeout: 10 * time.Second,
			Queue: delivery.QueueConfig{
				Queue:            "identity",
				MaxRetry:         5,
				Timeout:          30 * time.Second,
				WelcomeRetention: 24 * time.Hour,
			},
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.SigningMethod = strings.ToLower(strings.TrimSpace(cfg.Token.SigningMethod))
	out.Password.Algorithm = strings.ToLower(strings.TrimSpace(cfg.Password.Algorithm))
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently.
func (c *Config) Validate() error {
	// Token
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("Token RefreshTTL must be >= AccessTTL")
	}
	switch strings.ToLower(c.Token.SigningMethod) {
	case "hs256", "ed25519":
	default:
		return errors.New("unsupported Token SigningMethod")
	}
	if c.Token.AccessKey == "" || c.Token.RefreshKey == "" {
		return errors.New("Token AccessKey and RefreshKey are required")
	}
	if c.Token.AccessKey == c.Token.RefreshKey {
		return errors.New("Token AccessKey and RefreshKey must differ")
	}
	if strings.TrimSpace(c.Token.Issuer) == "" {
		return errors.New("Token Issuer is required")
	}
	if strings.TrimSpace(c.Token.Audience) == "" {
		return errors.New("Token Audience is required")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be within [0, 2m]")
	}

	// Password
	switch strings.ToLower(c.Password.Algorithm) {
	case "", password.AlgorithmArgon2id:
		if c.Password.Memory < 8*1024 {
			return errors.New("Password Memory must be >= 8192 KB")
		}
		if c.Password.Time < 1 {
			return errors.New("Password Time must be >= 1")
		}
		if c.Password.Parallelism < 1 {
			return errors.New("Password Parallelism must be >= 1")
		}
		if c.Password.SaltLength < 16 {
			return errors.New("Password SaltLength must be >= 16")
		}
		if c.Password.KeyLength < 16 {
			return errors.New("Password KeyLength must be >= 16")
		}
	case password.AlgorithmBcrypt:
		if c.Password.BcryptCost < 10 || c.Password.BcryptCost > bcrypt.MaxCost {
			return errors.New("Password BcryptCost must be within [10, 31]")
		}
	default:
		return errors.New("unsupported Password Algorithm")
	}
	if c.Password.MaxConcurrent < 0 {
		return errors.New("Password MaxConcurrent must be >= 0")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	if c.Password.MaxLength < c.Password.MinLength {
		return errors.New("Password MaxLength must be >= MinLength")
	}

	// OTP
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("OTP Digits must be between 4 and 10")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}

	// Account
	if !c.Account.DefaultRole.Valid() {
		return errors.New("Account DefaultRole must be USER, ADMIN or DEVELOPER")
	}
	if c.Account.MaxCASRetries <= 0 {
		return errors.New("Account MaxCASRetries must be > 0")
	}

	// Lockout
	if c.Lockout.Enabled {
		if c.Lockout.Threshold <= 0 {
			return errors.New("Lockout Threshold must be > 0 when lockout is enabled")
		}
		if c.Lockout.Cooldown <= 0 {
			return errors.New("Lockout Cooldown must be > 0 when lockout is enabled")
		}
	}

	if c.Delivery.Timeout < 0 {
		return errors.New("Delivery Timeout must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.ProductionMode {
		if c.Token.AccessTTL > 72*time.Hour {
			return errors.New("ProductionMode requires Token AccessTTL <= 72h")
		}
		if c.Token.RefreshTTL > 30*24*time.Hour {
			return errors.New("ProductionMode requires Token RefreshTTL <= 30d")
		}
		if strings.EqualFold(c.Token.SigningMethod, "hs256") &&
			(len(c.Token.AccessKey) < 32 || len(c.Token.RefreshKey) < 32) {
			return errors.New("ProductionMode requires hs256 key length >= 256 bits")
		}
		if strings.EqualFold(c.Password.Algorithm, password.AlgorithmBcrypt) {
			if c.Password.BcryptCost < 12 {
				return errors.New("ProductionMode requires Password BcryptCost >= 12")
			}
		} else {
			if c.Password.Memory < 64*1024 {
				return errors.New("ProductionMode requires Password Memory >= 65536 KB")
			}
			if c.Password.Time < 2 {
				return errors.New("ProductionMode requires Password Time >= 2")
			}
			if c.Password.KeyLength < 32 {
				return errors.New("ProductionMode requires Password KeyLength >= 32")
			}
		}
		if c.Password.MinLength < 8 {
			return errors.New("ProductionMode requires Password MinLength >= 8")
		}
		if c.OTP.Digits < 6 {
			return errors.New("ProductionMode requires OTP Digits >= 6")
		}
		if c.OTP.TTL > 15*time.Minute {
			return errors.New("ProductionMode requires OTP TTL <= 15m")
		}
		if !c.Lockout.Enabled {
			return errors.New("ProductionMode requires Lockout")
		}
		if c.Delivery.RevealCodes {
			return errors.New("ProductionMode forbids Delivery RevealCodes")
		}
	}

	return nil
}
