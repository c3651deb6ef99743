package internaldefs

import (
	goIdentity "github.com/MrEthical07/goIdentity"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   goIdentity.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for exporters.
type HistogramDef struct {
	ID   goIdentity.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goIdentity.MetricSignupSuccess, Name: "identity_signup_success_total", Help: "Accounts created by signup."},
	{ID: goIdentity.MetricSignupDuplicate, Name: "identity_signup_duplicate_total", Help: "Signups rejected as duplicate."},
	{ID: goIdentity.MetricSignupFailure, Name: "identity_signup_failure_total", Help: "Signups rejected for other reasons."},
	{ID: goIdentity.MetricVerificationSuccess, Name: "identity_verification_success_total", Help: "Accounts activated by verification."},
	{ID: goIdentity.MetricVerificationFailure, Name: "identity_verification_failure_total", Help: "Rejected verification attempts."},
	{ID: goIdentity.MetricChallengeIssued, Name: "identity_challenge_issued_total", Help: "Codes issued by resend, reset and phone login."},
	{ID: goIdentity.MetricDeliveryFailure, Name: "identity_delivery_failure_total", Help: "Codes the deliverer failed to accept."},
	{ID: goIdentity.MetricLoginSuccess, Name: "identity_login_success_total", Help: "Successful logins."},
	{ID: goIdentity.MetricLoginFailure, Name: "identity_login_failure_total", Help: "Rejected logins."},
	{ID: goIdentity.MetricAccountLocked, Name: "identity_account_locked_total", Help: "Accounts temporarily blocked after repeated failures."},
	{ID: goIdentity.MetricLockoutReleased, Name: "identity_lockout_released_total", Help: "Temporary blocks released after cool-down."},
	{ID: goIdentity.MetricRefreshSuccess, Name: "identity_refresh_success_total", Help: "Access tokens minted from refresh tokens."},
	{ID: goIdentity.MetricRefreshFailure, Name: "identity_refresh_failure_total", Help: "Rejected refresh attempts."},
	{ID: goIdentity.MetricPasswordResetRequest, Name: "identity_password_reset_request_total", Help: "Password reset requests."},
	{ID: goIdentity.MetricPasswordResetSuccess, Name: "identity_password_reset_success_total", Help: "Completed password resets."},
	{ID: goIdentity.MetricPasswordResetFailure, Name: "identity_password_reset_failure_total", Help: "Rejected password reset confirmations."},
	{ID: goIdentity.MetricExternalLogin, Name: "identity_external_login_total", Help: "Logins through an external identity provider."},
	{ID: goIdentity.MetricAccountBlocked, Name: "identity_account_blocked_total", Help: "Accounts permanently blocked."},
	{ID: goIdentity.MetricAccountUnblocked, Name: "identity_account_unblocked_total", Help: "Temporary blocks lifted by an administrator."},
	{ID: goIdentity.MetricRoleChanged, Name: "identity_role_changed_total", Help: "Role assignments changed."},
	{ID: goIdentity.MetricPasswordRehash, Name: "identity_password_rehash_total", Help: "Credentials upgraded to current hashing parameters."},
	{ID: goIdentity.MetricCASConflict, Name: "identity_cas_conflict_total", Help: "Compare-and-swap retries."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: goIdentity.MetricVerifyAccessLatency, Name: "identity_verify_access_latency_seconds", Help: "Access token verification latency."},
}

// AuditDroppedName is the counter for audit events discarded under backpressure.
const AuditDroppedName = "identity_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Audit events dropped due to dispatcher backpressure."

// HistogramUpperBounds are the bucket upper bounds in seconds, matching the
// engine's fixed buckets without the final +Inf bucket.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters
// without native histogram support.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling when raw
// is shorter.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
