package goIdentity

import (
	internalmetrics "github.com/MrEthical07/goIdentity/internal/metrics"
)

// MetricID identifies an engine counter or histogram.
type MetricID = internalmetrics.MetricID

const (
	// MetricSignupSuccess counts accounts created by Signup.
	MetricSignupSuccess = internalmetrics.MetricSignupSuccess
	// MetricSignupDuplicate counts signups rejected as duplicates.
	MetricSignupDuplicate = internalmetrics.MetricSignupDuplicate
	// MetricSignupFailure counts signups rejected for any other reason.
	MetricSignupFailure = internalmetrics.MetricSignupFailure
	// MetricVerificationSuccess counts accounts moved to ACTIVE by Verify.
	MetricVerificationSuccess = internalmetrics.MetricVerificationSuccess
	// MetricVerificationFailure is an exported constant or variable used by the identity engine.
	MetricVerificationFailure = internalmetrics.MetricVerificationFailure
	// MetricChallengeIssued counts codes issued outside signup (resend, reset, login).
	MetricChallengeIssued = internalmetrics.MetricChallengeIssued
	// MetricDeliveryFailure is an exported constant or variable used by the identity engine.
	MetricDeliveryFailure = internalmetrics.MetricDeliveryFailure
	// MetricLoginSuccess is an exported constant or variable used by the identity engine.
	MetricLoginSuccess = internalmetrics.MetricLoginSuccess
	// MetricLoginFailure is an exported constant or variable used by the identity engine.
	MetricLoginFailure = internalmetrics.MetricLoginFailure
	// MetricAccountLocked counts ACTIVE -> TEMPORARILY_BLOCKED transitions.
	MetricAccountLocked = internalmetrics.MetricAccountLocked
	// MetricLockoutReleased counts cool-down releases.
	MetricLockoutReleased = internalmetrics.MetricLockoutReleased
	// MetricRefreshSuccess is an exported constant or variable used by the identity engine.
	MetricRefreshSuccess = internalmetrics.MetricRefreshSuccess
	// MetricRefreshFailure is an exported constant or variable used by the identity engine.
	MetricRefreshFailure = internalmetrics.MetricRefreshFailure
	// MetricPasswordResetRequest is an exported constant or variable used by the identity engine.
	MetricPasswordResetRequest = internalmetrics.MetricPasswordResetRequest
	// MetricPasswordResetSuccess is an exported constant or variable used by the identity engine.
	MetricPasswordResetSuccess = internalmetrics.MetricPasswordResetSuccess
	// MetricPasswordResetFailure is an exported constant or variable used by the identity engine.
	MetricPasswordResetFailure = internalmetrics.MetricPasswordResetFailure
	// MetricExternalLogin is an exported constant or variable used by the identity engine.
	MetricExternalLogin = internalmetrics.MetricExternalLogin
	// MetricAccountBlocked is an exported constant or variable used by the identity engine.
	MetricAccountBlocked = internalmetrics.MetricAccountBlocked
	// MetricAccountUnblocked is an exported constant or variable used by the identity engine.
	MetricAccountUnblocked = internalmetrics.MetricAccountUnblocked
	// MetricRoleChanged is an exported constant or variable used by the identity engine.
	MetricRoleChanged = internalmetrics.MetricRoleChanged
	// MetricPasswordRehash counts credentials upgraded on login.
	MetricPasswordRehash = internalmetrics.MetricPasswordRehash
	// MetricCASConflict counts compare-and-swap retries.
	MetricCASConflict = internalmetrics.MetricCASConflict
	// MetricVerifyAccessLatency is the VerifyAccess latency histogram.
	MetricVerifyAccessLatency = internalmetrics.MetricVerifyAccessLatency
)

// Metrics is the engine's lock-free counter set.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics does not mutate shared global state and can be used concurrently.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:                 cfg.Enabled,
		EnableLatencyHistograms: cfg.EnableLatencyHistograms,
	})
}
