package goIdentity

import (
	"context"
	"errors"

	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/otp"
	"go.uber.org/zap"
)

// Verify consumes the verification code of a pending account, activates it
// and issues a token pair.
//
// Validation and activation happen in one compare-and-swap, so of several
// concurrent calls with the same valid code exactly one succeeds and only
// that one sends the welcome notice. The others return
// ErrOTPInvalidOrExpired. A wrong or expired code leaves the account and its
// challenge untouched.
//
// If token issuance fails after activation, Verify returns ErrInternal with
// the account already ACTIVE; the holder obtains tokens through Login.
func (e *Engine) Verify(ctx context.Context, identifier, code string) (VerifyResult, error) {
	if !e.ready() {
		return VerifyResult{}, ErrEngineNotReady
	}

	load, ok := e.byIdentifier(identifier)
	if !ok {
		return VerifyResult{}, ErrInvalidRequest
	}

	var accountID string
	updated, err := e.mutate(ctx, load, func(a *account.Account) error {
		accountID = a.ID
		if !account.IsPendingVerification(a.Status) {
			return ErrOTPInvalidOrExpired
		}
		if !e.codes.Validate(a.OTP, otp.PurposeVerification, code) {
			return ErrOTPInvalidOrExpired
		}
		return account.Apply(a, account.EventVerified, e.now())
	})
	if err != nil {
		err = e.verifyFailure(err)
		e.metricInc(MetricVerificationFailure)
		e.emitAudit(ctx, auditEventVerification, false, accountID, err, nil)
		return VerifyResult{}, err
	}

	// Activation is committed; the welcome and audit record follow it even
	// when token issuance below fails.
	e.metricInc(MetricVerificationSuccess)
	e.emitAudit(ctx, auditEventVerification, true, updated.ID, nil, func() map[string]string {
		return map[string]string{
			"method": updated.Method.String(),
		}
	})
	e.sendWelcome(ctx, updated)

	tokens, err := e.issuePair(updated)
	if err != nil {
		return VerifyResult{}, err
	}

	return VerifyResult{
		Account: publicView(updated),
		Tokens:  tokens,
	}, nil
}

func (e *Engine) verifyFailure(err error) error {
	switch {
	case errors.Is(err, ErrOTPInvalidOrExpired):
		return ErrOTPInvalidOrExpired
	case errors.Is(err, account.ErrIllegalTransition):
		return ErrOTPInvalidOrExpired
	}
	return e.storeFailure("verify account", err)
}

// ResendVerification replaces the verification code of a pending account
// with a fresh one and delivers it. The status does not change and the
// previous code stops working.
//
// Unknown identifiers and accounts that are not pending verification return
// nil, so the call cannot be used to probe for registered identifiers.
func (e *Engine) ResendVerification(ctx context.Context, identifier string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	load, ok := e.byIdentifier(identifier)
	if !ok {
		return ErrInvalidRequest
	}
	return e.issueChallenge(ctx, load, otp.PurposeVerification, auditEventVerificationResend)
}

// issueChallenge stores a fresh challenge for purpose on the loaded account
// and delivers it. Missing or ineligible accounts succeed silently after the
// enumeration delay.
func (e *Engine) issueChallenge(ctx context.Context, load loader, purpose otp.Purpose, auditEvent AuditEventType) error {
	var issued *otp.Challenge
	updated, err := e.mutate(ctx, load, func(a *account.Account) error {
		issued = nil
		if !account.CanIssueChallenge(a, purpose) {
			return errSkipWrite
		}
		ch, err := e.codes.Generate(purpose)
		if err != nil {
			e.logger.Error("challenge generation failed", zap.String("purpose", string(purpose)), zap.Error(err))
			return ErrInternal
		}
		a.OTP = ch
		issued = ch
		return nil
	})
	if err != nil && !errors.Is(err, account.ErrNotFound) {
		if !errors.Is(err, ErrInternal) {
			err = e.storeFailure("issue challenge", err)
		}
		e.emitAudit(ctx, auditEvent, false, "", err, nil)
		return err
	}

	if issued == nil {
		e.emitAudit(ctx, auditEvent, false, "", nil, func() map[string]string {
			return map[string]string{
				"purpose": string(purpose),
				"outcome": "ignored",
			}
		})
		return e.enumerationDelay(ctx)
	}

	e.metricInc(MetricChallengeIssued)
	if err := e.deliverCode(ctx, updated, issued); err != nil {
		return ErrDeliveryFailed
	}
	e.emitAudit(ctx, auditEvent, true, updated.ID, nil, func() map[string]string {
		return map[string]string{
			"purpose": string(purpose),
		}
	})
	return nil
}
