package goIdentity

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/otp"
	"go.uber.org/zap"
)

// RequestPasswordReset describes the requestpasswordreset operation and its observable behavior.
//
// A password reset code is stored on the EMAIL account and delivered to its
// address; the status is not changed. Unknown addresses and ineligible
// accounts return nil after the same delay as a delivered code.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	load, ok := e.byEmail(email)
	if !ok {
		return ErrInvalidRequest
	}

	e.metricInc(MetricPasswordResetRequest)
	return e.issueChallenge(ctx, load, otp.PurposePasswordReset, auditEventPasswordResetRequest)
}

// ConfirmPasswordReset describes the confirmpasswordreset operation and its observable behavior.
//
// The code is checked and the new password stored in one compare-and-swap:
// the challenge is cleared, failed logins are reset and the account returns
// to ACTIVE from ACTIVE, NEEDS_PASSWORD_RESET or TEMPORARILY_BLOCKED. Any
// mismatch, including an unknown address, returns ErrOTPInvalidOrExpired.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	load, ok := e.byEmail(email)
	if !ok {
		return ErrInvalidRequest
	}
	if n := len(newPassword); n < e.config.Password.MinLength || n > e.config.Password.MaxLength {
		return fmt.Errorf("%w: password length must be within [%d, %d]",
			ErrInvalidRequest, e.config.Password.MinLength, e.config.Password.MaxLength)
	}

	hash, err := e.hasher.HashContext(ctx, newPassword)
	if err != nil {
		mapped := mapHashError(err)
		if errors.Is(mapped, ErrHashingFailure) {
			e.logger.Error("password hashing failed", zap.Error(err))
		}
		return mapped
	}

	var accountID string
	updated, err := e.mutate(ctx, load, func(a *account.Account) error {
		accountID = a.ID
		if a.Method != account.MethodEmail {
			return ErrOTPInvalidOrExpired
		}
		if !e.codes.Validate(a.OTP, otp.PurposePasswordReset, code) {
			return ErrOTPInvalidOrExpired
		}
		if err := account.Apply(a, account.EventPasswordReset, e.now()); err != nil {
			return ErrOTPInvalidOrExpired
		}
		a.CredentialHash = hash
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrOTPInvalidOrExpired), errors.Is(err, account.ErrNotFound):
			err = ErrOTPInvalidOrExpired
		default:
			err = e.storeFailure("confirm password reset", err)
		}
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, accountID, err, nil)
		return err
	}

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, updated.ID, nil, func() map[string]string {
		return map[string]string{
			"status": updated.Status.String(),
		}
	})
	return nil
}

func (e *Engine) byEmail(email string) (loader, bool) {
	kind, _ := account.ClassifyIdentifier(email)
	if kind != account.IdentifierEmail {
		return nil, false
	}
	return e.byIdentifier(email)
}
