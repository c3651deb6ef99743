package goIdentity

import (
	"runtime"

	"github.com/MrEthical07/goIdentity/internal/security"
)

// SecurityReport summarizes the engine's security posture.
type SecurityReport = security.Report

// PasswordConfigReport is the hashing section of SecurityReport.
type PasswordConfigReport = security.PasswordReport

// SecurityReport describes the securityreport operation and its observable behavior.
//
// SecurityReport reads configuration only and can be used concurrently.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	concurrency := e.config.Password.MaxConcurrent
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	algorithm := e.config.Password.Algorithm
	if algorithm == "" {
		algorithm = "argon2id"
	}

	return security.BuildReport(security.ReportInput{
		ProductionMode:        e.config.ProductionMode,
		SigningAlgorithm:      e.config.Token.SigningMethod,
		KeyID:                 e.config.Token.KeyID,
		AccessTTL:             e.config.Token.AccessTTL,
		RefreshTTL:            e.config.Token.RefreshTTL,
		CheckAccountOnRefresh: e.config.Token.CheckAccountOnRefresh,
		Password: PasswordConfigReport{
			Algorithm:   algorithm,
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
			BcryptCost:  e.config.Password.BcryptCost,
		},
		MaxConcurrent:    concurrency,
		OTPDigits:        e.config.OTP.Digits,
		OTPTTL:           e.config.OTP.TTL,
		LockoutEnabled:   e.config.Lockout.Enabled,
		LockoutThreshold: e.config.Lockout.Threshold,
		LockoutCooldown:  e.config.Lockout.Cooldown,
		EnumerationDelay: e.config.Account.EnumerationDelay,
		AuditEnabled:     e.config.Audit.Enabled,
		MetricsEnabled:   e.config.Metrics.Enabled,
	})
}
