package goIdentity

import (
	"context"
	"errors"

	internalaudit "github.com/MrEthical07/goIdentity/internal/audit"
)

const (
	auditEventSignup               = internalaudit.EventSignup
	auditEventVerification         = internalaudit.EventVerification
	auditEventVerificationResend   = internalaudit.EventVerificationResend
	auditEventLoginSuccess         = internalaudit.EventLoginSuccess
	auditEventLoginFailure         = internalaudit.EventLoginFailure
	auditEventLoginCodeRequest     = internalaudit.EventLoginCodeRequest
	auditEventExternalLogin        = internalaudit.EventExternalLogin
	auditEventAccountLocked        = internalaudit.EventAccountLocked
	auditEventLockoutReleased      = internalaudit.EventLockoutReleased
	auditEventRefreshSuccess       = internalaudit.EventRefreshSuccess
	auditEventRefreshInvalid       = internalaudit.EventRefreshInvalid
	auditEventPasswordResetRequest = internalaudit.EventPasswordResetRequest
	auditEventPasswordResetConfirm = internalaudit.EventPasswordResetConfirm
	auditEventAccountStatusChange  = internalaudit.EventAccountStatusChange
	auditEventRoleChange           = internalaudit.EventRoleChange
	auditEventDeliveryFailure      = internalaudit.EventDeliveryFailure
)

// AuditErrorCode is the stable error label written to AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrOTPInvalid         AuditErrorCode = "otp_invalid"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrNotFound           AuditErrorCode = "account_not_found"
	auditErrInvalidRequest     AuditErrorCode = "invalid_request"
	auditErrIllegalTransition  AuditErrorCode = "illegal_transition"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrDelivery           AuditErrorCode = "delivery_failed"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrConflict           AuditErrorCode = "conflict"
	auditErrCanceled           AuditErrorCode = "canceled"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType internalaudit.EventType,
	success bool,
	accountID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrOTPInvalidOrExpired):
		return auditErrOTPInvalid
	case errors.Is(err, ErrDuplicateAccount):
		return auditErrDuplicate
	case errors.Is(err, ErrAccountNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrInvalidRequest):
		return auditErrInvalidRequest
	case errors.Is(err, ErrIllegalTransition):
		return auditErrIllegalTransition
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenMalformed):
		return auditErrInvalidToken
	case errors.Is(err, ErrDeliveryFailed):
		return auditErrDelivery
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrConflict):
		return auditErrConflict
	case isContextError(err):
		return auditErrCanceled
	default:
		return auditErrInternal
	}
}
