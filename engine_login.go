package goIdentity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/otp"
	"go.uber.org/zap"
)

// Login authenticates an EMAIL account by identifier and password and issues
// a token pair.
//
// Every rejection returns ErrInvalidCredentials: unknown identifier, wrong
// password, unverified, blocked or reset-pending accounts, and accounts
// without a password. Rejections without a stored credential still spend
// one hash verification so response times do not reveal which case applied.
//
// Wrong passwords on an ACTIVE account count toward Config.Lockout.Threshold.
// A TEMPORARILY_BLOCKED account whose cool-down has passed is released on
// the next attempt.
func (e *Engine) Login(ctx context.Context, identifier, password string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}

	load, ok := e.byIdentifier(identifier)
	if !ok {
		return TokenPair{}, e.rejectLogin(ctx, "", password, "invalid_identifier")
	}

	a, err := load(ctx)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return TokenPair{}, e.rejectLogin(ctx, "", password, "unknown_account")
		}
		return TokenPair{}, e.storeFailure("login lookup", err)
	}
	if a.Method != account.MethodEmail || a.CredentialHash == "" {
		return TokenPair{}, e.rejectLogin(ctx, a.ID, password, "no_credential")
	}

	a, err = e.releaseCooldown(ctx, a)
	if err != nil {
		return TokenPair{}, err
	}
	if !account.CanAuthenticate(a.Status) {
		return TokenPair{}, e.rejectLogin(ctx, a.ID, password, "status_"+strings.ToLower(a.Status.String()))
	}

	match, err := e.hasher.VerifyContext(ctx, password, a.CredentialHash)
	if err != nil {
		return TokenPair{}, mapHashError(err)
	}
	if !match {
		e.recordCredentialFailure(ctx, a.ID)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, a.ID, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "wrong_password",
			}
		})
		return TokenPair{}, ErrInvalidCredentials
	}

	var rehash string
	if e.config.Password.UpgradeOnLogin && e.hasher.NeedsRehash(a.CredentialHash) {
		if h, err := e.hasher.HashContext(ctx, password); err == nil {
			rehash = h
		} else {
			e.logger.Warn("password rehash failed", zap.String("account_id", a.ID), zap.Error(err))
		}
	}

	updated, err := e.completeLogin(ctx, a.ID, a.CredentialHash, rehash)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, a.ID, err, func() map[string]string {
				return map[string]string{
					"reason": "status_changed",
				}
			})
		}
		return TokenPair{}, err
	}

	tokens, err := e.issuePair(updated)
	if err != nil {
		return TokenPair{}, err
	}
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, updated.ID, nil, func() map[string]string {
		return map[string]string{
			"method": "password",
		}
	})
	return tokens, nil
}

func (e *Engine) rejectLogin(ctx context.Context, accountID, password, reason string) error {
	if err := e.equalizeVerify(ctx, password); err != nil {
		return mapHashError(err)
	}
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, accountID, ErrInvalidCredentials, func() map[string]string {
		return map[string]string{
			"reason": reason,
		}
	})
	return ErrInvalidCredentials
}

// completeLogin resets the failure counter and stores rehash when set. The
// verified hash must still be the stored one.
func (e *Engine) completeLogin(ctx context.Context, id, verifiedHash, rehash string) (*account.Account, error) {
	updated, err := e.mutate(ctx, e.byID(id), func(a *account.Account) error {
		if !account.CanAuthenticate(a.Status) || a.CredentialHash != verifiedHash {
			return ErrInvalidCredentials
		}
		if a.FailedLogins == 0 && rehash == "" {
			return errSkipWrite
		}
		a.FailedLogins = 0
		if rehash != "" {
			a.CredentialHash = rehash
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, err
		}
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, e.storeFailure("complete login", err)
	}
	if rehash != "" && updated.CredentialHash == rehash {
		e.metricInc(MetricPasswordRehash)
	}
	return updated, nil
}

// releaseCooldown moves a TEMPORARILY_BLOCKED account whose cool-down has
// passed back to ACTIVE. Other accounts are returned as given.
func (e *Engine) releaseCooldown(ctx context.Context, a *account.Account) (*account.Account, error) {
	if !account.CooldownElapsed(a, e.now()) {
		return a, nil
	}

	released := false
	updated, err := e.mutate(ctx, e.byID(a.ID), func(cur *account.Account) error {
		released = false
		if !account.CooldownElapsed(cur, e.now()) {
			return errSkipWrite
		}
		released = true
		return account.Apply(cur, account.EventCooldownElapsed, e.now())
	})
	if err != nil {
		return nil, e.storeFailure("release cooldown", err)
	}
	if released {
		e.metricInc(MetricLockoutReleased)
		e.emitAudit(ctx, auditEventLockoutReleased, true, updated.ID, nil, func() map[string]string {
			return map[string]string{
				"reason": "cooldown_elapsed",
			}
		})
	}
	return updated, nil
}

// recordCredentialFailure counts a failed attempt on an ACTIVE account and
// locks it once the threshold is reached. Store failures are logged only;
// the caller's answer is the same either way.
func (e *Engine) recordCredentialFailure(ctx context.Context, id string) {
	if !e.config.Lockout.Enabled {
		return
	}

	locked := false
	updated, err := e.mutate(ctx, e.byID(id), func(a *account.Account) error {
		locked = false
		if a.Status != account.StatusActive {
			return errSkipWrite
		}
		a.FailedLogins++
		if a.FailedLogins < e.config.Lockout.Threshold {
			return nil
		}
		now := e.now()
		locked = true
		return account.Lock(a, now.Add(e.config.Lockout.Cooldown), now)
	})
	if err != nil {
		e.logger.Warn("failed login not recorded", zap.String("account_id", id), zap.Error(err))
		return
	}
	if locked {
		e.metricInc(MetricAccountLocked)
		e.logger.Info("account temporarily blocked",
			zap.String("account_id", id),
			zap.Time("blocked_until", updated.BlockedUntil),
		)
		e.emitAudit(ctx, auditEventAccountLocked, true, id, nil, func() map[string]string {
			return map[string]string{
				"blocked_until": updated.BlockedUntil.UTC().Format(time.RFC3339),
			}
		})
	}
}

// RequestLoginCode issues and delivers a login code to an ACTIVE PHONE
// account. Unknown or ineligible numbers return nil.
func (e *Engine) RequestLoginCode(ctx context.Context, phone string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	load, ok := e.byPhone(phone)
	if !ok {
		return ErrInvalidRequest
	}

	if a, err := load(ctx); err == nil {
		if _, err := e.releaseCooldown(ctx, a); err != nil {
			return err
		}
	}
	return e.issueChallenge(ctx, load, otp.PurposeLogin, auditEventLoginCodeRequest)
}

// LoginWithCode consumes a login code issued by RequestLoginCode and issues
// a token pair. Every rejection returns ErrOTPInvalidOrExpired; wrong codes
// count toward the lockout threshold like wrong passwords.
func (e *Engine) LoginWithCode(ctx context.Context, phone, code string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}
	load, ok := e.byPhone(phone)
	if !ok {
		return TokenPair{}, ErrInvalidRequest
	}

	var (
		accountID string
		wrongCode bool
	)
	updated, err := e.mutate(ctx, load, func(a *account.Account) error {
		accountID = a.ID
		wrongCode = false
		if a.Method != account.MethodPhone || !account.CanAuthenticate(a.Status) {
			return ErrOTPInvalidOrExpired
		}
		if !e.codes.Validate(a.OTP, otp.PurposeLogin, code) {
			wrongCode = true
			return ErrOTPInvalidOrExpired
		}
		a.OTP = nil
		a.FailedLogins = 0
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrOTPInvalidOrExpired), errors.Is(err, account.ErrNotFound):
			err = ErrOTPInvalidOrExpired
		default:
			err = e.storeFailure("login with code", err)
		}
		if wrongCode {
			e.recordCredentialFailure(ctx, accountID)
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, accountID, err, func() map[string]string {
			return map[string]string{
				"method": "code",
			}
		})
		return TokenPair{}, err
	}

	tokens, err := e.issuePair(updated)
	if err != nil {
		return TokenPair{}, err
	}
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, updated.ID, nil, func() map[string]string {
		return map[string]string{
			"method": "code",
		}
	})
	return tokens, nil
}

func (e *Engine) byPhone(phone string) (loader, bool) {
	kind, _ := account.ClassifyIdentifier(phone)
	if kind != account.IdentifierPhone {
		return nil, false
	}
	return e.byIdentifier(phone)
}

// AuthenticateExternal signs in the holder of a federated identity, creating
// an ACTIVE EXTERNAL account on first use. The provider must already have
// authenticated the subject.
func (e *Engine) AuthenticateExternal(ctx context.Context, ext account.ExternalIdentity) (VerifyResult, error) {
	if !e.ready() {
		return VerifyResult{}, ErrEngineNotReady
	}
	ext.Provider = strings.ToLower(strings.TrimSpace(ext.Provider))
	ext.Subject = strings.TrimSpace(ext.Subject)
	if ext.Provider == "" || ext.Subject == "" {
		return VerifyResult{}, ErrInvalidRequest
	}

	a, created, err := e.findOrCreateExternal(ctx, ext)
	if err != nil {
		e.emitAudit(ctx, auditEventExternalLogin, false, "", err, nil)
		return VerifyResult{}, err
	}

	a, err = e.releaseCooldown(ctx, a)
	if err != nil {
		return VerifyResult{}, err
	}
	if !account.CanAuthenticate(a.Status) {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventExternalLogin, false, a.ID, ErrInvalidCredentials, nil)
		return VerifyResult{}, ErrInvalidCredentials
	}

	tokens, err := e.issuePair(a)
	if err != nil {
		return VerifyResult{}, err
	}
	e.metricInc(MetricExternalLogin)
	e.emitAudit(ctx, auditEventExternalLogin, true, a.ID, nil, func() map[string]string {
		m := map[string]string{
			"provider": ext.Provider,
		}
		if created {
			m["created"] = "true"
		}
		return m
	})
	return VerifyResult{
		Account: publicView(a),
		Tokens:  tokens,
	}, nil
}

func (e *Engine) findOrCreateExternal(ctx context.Context, ext account.ExternalIdentity) (*account.Account, bool, error) {
	a, err := e.store.FindByExternal(ctx, ext.Provider, ext.Subject)
	if err == nil {
		return a, false, nil
	}
	if !errors.Is(err, account.ErrNotFound) {
		return nil, false, e.storeFailure("find external", err)
	}

	a, _, err = e.newAccount(ctx, SignupRequest{
		Method:   account.MethodExternal,
		External: &ext,
	})
	if err != nil {
		return nil, false, err
	}
	if err := e.store.Create(ctx, a); err != nil {
		if !errors.Is(err, account.ErrDuplicate) {
			return nil, false, e.storeFailure("create external", err)
		}
		// A concurrent first login created it.
		a, err = e.store.FindByExternal(ctx, ext.Provider, ext.Subject)
		if err != nil {
			return nil, false, e.storeFailure("find external", err)
		}
		return a, false, nil
	}

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditEventSignup, true, a.ID, nil, func() map[string]string {
		return map[string]string{
			"method": account.MethodExternal.String(),
			"status": a.Status.String(),
		}
	})
	return a, true, nil
}

// Refresh mints a new access token from a valid refresh token. The refresh
// token itself is neither rotated nor revoked and stays usable until it
// expires.
//
// With Config.Token.CheckAccountOnRefresh the account must still exist and
// be ACTIVE, otherwise ErrTokenInvalid is returned.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}

	var accountID string
	if e.config.Token.CheckAccountOnRefresh {
		claims, err := e.tokens.VerifyRefresh(refreshToken)
		if err != nil {
			return "", e.refreshFailure(ctx, "", mapTokenError(err))
		}
		accountID = claims.Subject
		a, err := e.store.FindByID(ctx, claims.Subject)
		switch {
		case errors.Is(err, account.ErrNotFound):
			return "", e.refreshFailure(ctx, accountID, ErrTokenInvalid)
		case err != nil:
			return "", e.storeFailure("refresh lookup", err)
		case !account.CanAuthenticate(a.Status):
			return "", e.refreshFailure(ctx, accountID, ErrTokenInvalid)
		}
	}

	access, err := e.tokens.RefreshAccess(refreshToken)
	if err != nil {
		return "", e.refreshFailure(ctx, accountID, mapTokenError(err))
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, accountID, nil, nil)
	return access, nil
}

func (e *Engine) refreshFailure(ctx context.Context, accountID string, err error) error {
	e.metricInc(MetricRefreshFailure)
	e.emitAudit(ctx, auditEventRefreshInvalid, false, accountID, err, nil)
	return err
}
