package goIdentity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/otp"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Signup creates an account and starts its verification.
//
// EMAIL signups hash the password and send a verification code to the email;
// PHONE signups send the code by SMS; EXTERNAL signups are created ACTIVE. A
// taken identifier returns ErrDuplicateAccount and writes nothing.
//
// When the record was written but the code could not be delivered, Signup
// returns the populated result together with a *DeliveryError matching
// ErrDeliveryFailed; the caller may retry with ResendVerification.
func (e *Engine) Signup(ctx context.Context, req SignupRequest) (SignupResult, error) {
	if !e.ready() {
		return SignupResult{}, ErrEngineNotReady
	}

	req = normalizeSignup(req)
	if err := e.checkSignup(ctx, req); err != nil {
		e.metricInc(MetricSignupFailure)
		e.emitAudit(ctx, auditEventSignup, false, "", err, func() map[string]string {
			return map[string]string{
				"method": req.Method.String(),
			}
		})
		return SignupResult{}, err
	}

	a, ch, err := e.newAccount(ctx, req)
	if err != nil {
		e.metricInc(MetricSignupFailure)
		e.emitAudit(ctx, auditEventSignup, false, "", err, nil)
		return SignupResult{}, err
	}

	if err := e.store.Create(ctx, a); err != nil {
		mapped := e.storeFailure("create account", err)
		if errors.Is(mapped, ErrDuplicateAccount) {
			e.metricInc(MetricSignupDuplicate)
		} else {
			e.metricInc(MetricSignupFailure)
		}
		e.emitAudit(ctx, auditEventSignup, false, "", mapped, func() map[string]string {
			return map[string]string{
				"method": req.Method.String(),
			}
		})
		return SignupResult{}, mapped
	}

	result := SignupResult{
		AccountID: a.ID,
		Status:    a.Status,
	}
	if ch != nil {
		result.PendingIdentifier = a.Identifier()
	}

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditEventSignup, true, a.ID, nil, func() map[string]string {
		return map[string]string{
			"method": a.Method.String(),
			"status": a.Status.String(),
		}
	})

	if ch != nil {
		if err := e.deliverCode(ctx, a, ch); err != nil {
			return result, &DeliveryError{
				PendingIdentifier: result.PendingIdentifier,
				AccountID:         a.ID,
				Err:               err,
			}
		}
	}
	return result, nil
}

func normalizeSignup(req SignupRequest) SignupRequest {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.Email != "" {
		req.Email = account.NormalizeEmail(req.Email)
	}
	if req.Phone != "" {
		// An unparseable phone keeps its raw form so e164 rejects it.
		if p := account.NormalizePhone(req.Phone); p != "" {
			req.Phone = p
		}
	}
	if req.External != nil {
		ext := *req.External
		ext.Provider = strings.ToLower(strings.TrimSpace(ext.Provider))
		ext.Subject = strings.TrimSpace(ext.Subject)
		req.External = &ext
	}
	return req
}

func (e *Engine) checkSignup(ctx context.Context, req SignupRequest) error {
	if err := e.validate.StructCtx(ctx, req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fe.Field()+":"+fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(fields, ","))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	switch req.Method {
	case account.MethodEmail:
		if req.Email == "" || req.Phone != "" || req.External != nil {
			return fmt.Errorf("%w: email signup takes exactly an email", ErrInvalidRequest)
		}
		if n := len(req.Password); n < e.config.Password.MinLength || n > e.config.Password.MaxLength {
			return fmt.Errorf("%w: password length must be within [%d, %d]",
				ErrInvalidRequest, e.config.Password.MinLength, e.config.Password.MaxLength)
		}
	case account.MethodPhone:
		if req.Phone == "" || req.Email != "" || req.External != nil || req.Password != "" {
			return fmt.Errorf("%w: phone signup takes exactly a phone number", ErrInvalidRequest)
		}
	case account.MethodExternal:
		if req.External == nil || req.External.Provider == "" || req.External.Subject == "" {
			return fmt.Errorf("%w: external signup requires provider and subject", ErrInvalidRequest)
		}
		if req.Email != "" || req.Phone != "" || req.Password != "" {
			return fmt.Errorf("%w: external signup takes no email, phone or password", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown signup method", ErrInvalidRequest)
	}
	return nil
}

// newAccount builds the record to insert and, for EMAIL and PHONE, the
// verification challenge embedded in it.
func (e *Engine) newAccount(ctx context.Context, req SignupRequest) (*account.Account, *otp.Challenge, error) {
	now := e.now()
	status, err := account.InitialStatus(req.Method)
	if err != nil {
		return nil, nil, ErrInvalidRequest
	}
	id, err := account.NewID(now)
	if err != nil {
		e.logger.Error("account id generation failed", zap.Error(err))
		return nil, nil, ErrInternal
	}

	a := &account.Account{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		External:  req.External,
		Method:    req.Method,
		Status:    status,
		Role:      e.config.Account.DefaultRole,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if req.Method == account.MethodEmail {
		hash, err := e.hasher.HashContext(ctx, req.Password)
		if err != nil {
			mapped := mapHashError(err)
			if errors.Is(mapped, ErrHashingFailure) {
				e.logger.Error("password hashing failed", zap.Error(err))
			}
			return nil, nil, mapped
		}
		a.CredentialHash = hash
	}

	var ch *otp.Challenge
	if account.IsPendingVerification(status) {
		ch, err = e.codes.Generate(otp.PurposeVerification)
		if err != nil {
			e.logger.Error("verification code generation failed", zap.Error(err))
			return nil, nil, ErrInternal
		}
		a.OTP = ch
	}

	if err := a.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return a, ch, nil
}
