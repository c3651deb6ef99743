package goIdentity

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goIdentity/account"
)

// BlockAccount permanently blocks an account. Blocking an already BLOCKED
// account is a no-op.
func (e *Engine) BlockAccount(ctx context.Context, id string) error {
	err := e.transitionAccount(ctx, id, account.EventBlock)
	if err == nil {
		e.metricInc(MetricAccountBlocked)
	}
	e.emitAudit(ctx, auditEventAccountStatusChange, err == nil, id, err, func() map[string]string {
		return map[string]string{
			"action": "block",
		}
	})
	return err
}

// UnblockAccount releases a TEMPORARILY_BLOCKED account before its
// cool-down ends.
func (e *Engine) UnblockAccount(ctx context.Context, id string) error {
	err := e.transitionAccount(ctx, id, account.EventUnblock)
	if err == nil {
		e.metricInc(MetricAccountUnblocked)
	}
	e.emitAudit(ctx, auditEventAccountStatusChange, err == nil, id, err, func() map[string]string {
		return map[string]string{
			"action": "unblock",
		}
	})
	return err
}

// RequirePasswordReset moves an ACTIVE EMAIL account to NEEDS_PASSWORD_RESET.
// Password login is refused until ConfirmPasswordReset succeeds. Accounts
// without a password return ErrIllegalTransition.
func (e *Engine) RequirePasswordReset(ctx context.Context, id string) error {
	err := e.transitionAccount(ctx, id, account.EventRequirePasswordReset)
	e.emitAudit(ctx, auditEventAccountStatusChange, err == nil, id, err, func() map[string]string {
		return map[string]string{
			"action": "require_password_reset",
		}
	})
	return err
}

// SetRole describes the setrole operation and its observable behavior.
//
// Tokens already issued keep the role they were signed with.
func (e *Engine) SetRole(ctx context.Context, id string, role account.Role) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, role)
	}
	if id == "" {
		return ErrAccountNotFound
	}

	var previous account.Role
	_, err := e.mutate(ctx, e.byID(id), func(a *account.Account) error {
		previous = a.Role
		if a.Role == role {
			return errSkipWrite
		}
		a.Role = role
		return nil
	})
	if err != nil {
		err = e.storeFailure("set role", err)
	} else if previous != role {
		e.metricInc(MetricRoleChanged)
	}
	e.emitAudit(ctx, auditEventRoleChange, err == nil, id, err, func() map[string]string {
		return map[string]string{
			"from": string(previous),
			"to":   string(role),
		}
	})
	return err
}

// transitionAccount applies ev through the account state machine. Blocking
// is idempotent; every other event must be legal from the current status.
func (e *Engine) transitionAccount(ctx context.Context, id string, ev account.Event) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if id == "" {
		return ErrAccountNotFound
	}

	_, err := e.mutate(ctx, e.byID(id), func(a *account.Account) error {
		if ev == account.EventBlock && a.Status == account.StatusBlocked {
			return errSkipWrite
		}
		return account.Apply(a, ev, e.now())
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, account.ErrIllegalTransition) {
		return mapTransitionError(err)
	}
	return e.storeFailure("account status change", err)
}
