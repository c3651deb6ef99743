package security

import "time"

type PasswordReport struct {
	Algorithm   string
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int
}

type Report struct {
	ProductionMode        bool
	SigningAlgorithm      string
	AccessTTL             time.Duration
	RefreshTTL            time.Duration
	KeyRotationReady      bool
	RefreshRevocation     bool
	RefreshAccountCheck   bool
	Password              PasswordReport
	HashingConcurrency    int
	OTPDigits             int
	OTPTTL                time.Duration
	LockoutActive         bool
	EnumerationProtection bool
	AuditActive           bool
	MetricsActive         bool
}

type ReportInput struct {
	ProductionMode        bool
	SigningAlgorithm      string
	KeyID                 string
	AccessTTL             time.Duration
	RefreshTTL            time.Duration
	CheckAccountOnRefresh bool
	Password              PasswordReport
	MaxConcurrent         int
	OTPDigits             int
	OTPTTL                time.Duration
	LockoutEnabled        bool
	LockoutThreshold      int
	LockoutCooldown       time.Duration
	EnumerationDelay      bool
	AuditEnabled          bool
	MetricsEnabled        bool
}

// BuildReport derives the security posture from configuration alone.
// Refresh tokens are stateless, so RefreshRevocation is always false.
func BuildReport(input ReportInput) Report {
	lockout := input.LockoutEnabled &&
		input.LockoutThreshold > 0 &&
		input.LockoutCooldown > 0

	return Report{
		ProductionMode:        input.ProductionMode,
		SigningAlgorithm:      input.SigningAlgorithm,
		AccessTTL:             input.AccessTTL,
		RefreshTTL:            input.RefreshTTL,
		KeyRotationReady:      input.KeyID != "",
		RefreshRevocation:     false,
		RefreshAccountCheck:   input.CheckAccountOnRefresh,
		Password:              input.Password,
		HashingConcurrency:    input.MaxConcurrent,
		OTPDigits:             input.OTPDigits,
		OTPTTL:                input.OTPTTL,
		LockoutActive:         lockout,
		EnumerationProtection: input.EnumerationDelay,
		AuditActive:           input.AuditEnabled,
		MetricsActive:         input.MetricsEnabled,
	}
}
