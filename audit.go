package goIdentity

import (
	"io"

	internalaudit "github.com/MrEthical07/goIdentity/internal/audit"
	"go.uber.org/zap"
)

// AuditEvent is one security-relevant account operation.
type AuditEvent = internalaudit.Event

// AuditEventType names the operation an AuditEvent records.
type AuditEventType = internalaudit.EventType

// Audit event types emitted by the engine.
const (
	AuditSignup               = internalaudit.EventSignup
	AuditVerification         = internalaudit.EventVerification
	AuditVerificationResend   = internalaudit.EventVerificationResend
	AuditLoginSuccess         = internalaudit.EventLoginSuccess
	AuditLoginFailure         = internalaudit.EventLoginFailure
	AuditLoginCodeRequest     = internalaudit.EventLoginCodeRequest
	AuditExternalLogin        = internalaudit.EventExternalLogin
	AuditAccountLocked        = internalaudit.EventAccountLocked
	AuditLockoutReleased      = internalaudit.EventLockoutReleased
	AuditRefreshSuccess       = internalaudit.EventRefreshSuccess
	AuditRefreshInvalid       = internalaudit.EventRefreshInvalid
	AuditPasswordResetRequest = internalaudit.EventPasswordResetRequest
	AuditPasswordResetConfirm = internalaudit.EventPasswordResetConfirm
	AuditAccountStatusChange  = internalaudit.EventAccountStatusChange
	AuditRoleChange           = internalaudit.EventRoleChange
	AuditDeliveryFailure      = internalaudit.EventDeliveryFailure
)

// AuditSink receives audit events from the engine's dispatcher goroutine.
type AuditSink = internalaudit.Sink

// NoOpSink discards events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers events on a channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes newline-delimited JSON.
type JSONWriterSink = internalaudit.JSONWriterSink

// MultiSink forwards each event to several sinks.
type MultiSink = internalaudit.MultiSink

// AuditSinkFunc adapts a function to AuditSink.
type AuditSinkFunc = internalaudit.SinkFunc

// ZapSink writes events through a zap logger.
type ZapSink = internalaudit.ZapSink

// NewChannelSink describes the newchannelsink operation and its observable behavior.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink describes the newjsonwritersink operation and its observable behavior.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewZapSink returns a sink logging under the "audit" logger name.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return internalaudit.NewZapSink(logger)
}
