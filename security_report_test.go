package goIdentity

import (
	"testing"
)

func TestSecurityReportReflectsConfig(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Token.KeyID = "k-2026"
		c.Token.CheckAccountOnRefresh = true
		c.Password.MaxConcurrent = 3
		c.Audit.Enabled = true
	})

	r := env.engine.SecurityReport()
	if r.SigningAlgorithm != "hs256" || !r.KeyRotationReady {
		t.Fatalf("signing = %q rotation = %v", r.SigningAlgorithm, r.KeyRotationReady)
	}
	if r.RefreshRevocation {
		t.Fatal("stateless refresh tokens cannot be revoked")
	}
	if !r.RefreshAccountCheck {
		t.Fatal("refresh account check not reported")
	}
	if r.HashingConcurrency != 3 || r.Password.Algorithm != "argon2id" || r.Password.Memory != 8*1024 {
		t.Fatalf("hashing = %+v concurrency = %d", r.Password, r.HashingConcurrency)
	}
	if !r.LockoutActive || r.EnumerationProtection || !r.AuditActive || r.MetricsActive {
		t.Fatalf("report = %+v", r)
	}
	if r.OTPDigits != 6 {
		t.Fatalf("otp digits = %d", r.OTPDigits)
	}
}

func TestSecurityReportLockoutNeedsThresholdAndCooldown(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Lockout.Enabled = false
	})
	if env.engine.SecurityReport().LockoutActive {
		t.Fatal("disabled lockout reported active")
	}
}

func TestSecurityReportDefaultConcurrency(t *testing.T) {
	env := newTestEnv(t)
	if env.engine.SecurityReport().HashingConcurrency <= 0 {
		t.Fatal("unset MaxConcurrent should report GOMAXPROCS")
	}
	var nilEngine *Engine
	if (nilEngine.SecurityReport() != SecurityReport{}) {
		t.Fatal("nil engine should return an empty report")
	}
}
