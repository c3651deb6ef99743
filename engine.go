package goIdentity

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/MrEthical07/goIdentity/account"
	internalaudit "github.com/MrEthical07/goIdentity/internal/audit"
	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/logging"
	"github.com/MrEthical07/goIdentity/otp"
	"github.com/MrEthical07/goIdentity/password"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Engine orchestrates signup, verification, login and token refresh over an
// AccountStore. It holds configuration and shared collaborators only; every
// account mutation is a compare-and-swap against the store.
//
// Engine methods are safe for concurrent use after Builder.Build.
type Engine struct {
	config    Config
	store     AccountStore
	deliverer Deliverer
	hasher    *password.Limited
	codes     *otp.Generator
	tokens    tokenService
	validate  *validator.Validate
	logger    *zap.Logger
	audit     *internalaudit.Dispatcher
	metrics   *Metrics
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// tokenService is the part of jwt.Manager the engine calls.
type tokenService interface {
	IssuePair(subject, role string) (jwt.Pair, error)
	VerifyAccess(token string) (*jwt.Claims, error)
	VerifyRefresh(token string) (*jwt.Claims, error)
	RefreshAccess(refreshToken string) (string, error)
	Peek(token string) *jwt.Claims
}

var _ tokenService = (*jwt.Manager)(nil)

// errSkipWrite aborts a mutation without writing and without failing.
var errSkipWrite = errors.New("skip write")

// Close drains pending audit events and stops the dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.store != nil && e.tokens != nil && e.hasher != nil && e.codes != nil
}

// VerifyAccess verifies an access token for request authorization.
func (e *Engine) VerifyAccess(token string) (*Claims, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	claims, err := e.tokens.VerifyAccess(token)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricVerifyAccessLatency, time.Since(start))
	}
	if err != nil {
		return nil, mapTokenError(err)
	}
	return claims, nil
}

// Peek decodes token claims without verifying anything. The result must
// never be used for authorization; it exists for logging and diagnostics.
func (e *Engine) Peek(token string) *Claims {
	if !e.ready() {
		return nil
	}
	return e.tokens.Peek(token)
}

// Account returns the account with the given ID, with its credential hash
// and challenge code removed.
func (e *Engine) Account(ctx context.Context, id string) (account.Account, error) {
	if !e.ready() {
		return account.Account{}, ErrEngineNotReady
	}
	if id == "" {
		return account.Account{}, ErrAccountNotFound
	}
	a, err := e.store.FindByID(ctx, id)
	if err != nil {
		return account.Account{}, e.storeFailure("load account", err)
	}
	return publicView(a), nil
}

type loader func(ctx context.Context) (*account.Account, error)

func (e *Engine) byID(id string) loader {
	return func(ctx context.Context) (*account.Account, error) {
		return e.store.FindByID(ctx, id)
	}
}

// byIdentifier resolves an email or phone identifier. ok is false when the
// identifier is neither.
func (e *Engine) byIdentifier(identifier string) (load loader, ok bool) {
	kind, value := account.ClassifyIdentifier(identifier)
	switch kind {
	case account.IdentifierEmail:
		return func(ctx context.Context) (*account.Account, error) {
			return e.store.FindByEmail(ctx, value)
		}, true
	case account.IdentifierPhone:
		return func(ctx context.Context) (*account.Account, error) {
			return e.store.FindByPhone(ctx, value)
		}, true
	}
	return nil, false
}

// mutate runs a read-modify-write loop. fn edits a private clone; returning
// an error aborts without writing (errSkipWrite aborts without failing). On
// success the stored record is replaced only if its version is unchanged,
// otherwise the loop restarts from a fresh read.
//
// It returns the committed record, or the last record read when fn aborted.
// Store errors are returned unmapped.
func (e *Engine) mutate(ctx context.Context, load loader, fn func(a *account.Account) error) (*account.Account, error) {
	for attempt := 0; attempt < e.config.Account.MaxCASRetries; attempt++ {
		current, err := load(ctx)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			if errors.Is(err, errSkipWrite) {
				return current, nil
			}
			return current, err
		}
		next.Version = current.Version + 1
		next.UpdatedAt = e.now()

		err = e.store.CompareAndSwap(ctx, next, current.Version)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, account.ErrVersionConflict) {
			return nil, err
		}
		e.metricInc(MetricCASConflict)
		e.logger.Debug("account version conflict, retrying",
			zap.String("account_id", current.ID),
			zap.Int("attempt", attempt+1),
		)
	}
	e.logger.Warn("compare-and-swap retries exhausted", zap.Int("max_retries", e.config.Account.MaxCASRetries))
	return nil, ErrConflict
}

// storeFailure maps a store error and logs backend faults.
func (e *Engine) storeFailure(op string, err error) error {
	mapped := mapStoreError(err)
	if errors.Is(mapped, ErrStoreUnavailable) {
		e.logger.Error("account store failure", zap.String("op", op), zap.Error(err))
	}
	return mapped
}

func (e *Engine) deliverCode(ctx context.Context, a *account.Account, ch *otp.Challenge) error {
	dst, ok := a.Destination()
	if !ok {
		return ErrInvalidRequest
	}
	dctx, cancel := e.deliveryContext(ctx)
	defer cancel()

	if err := e.deliverer.SendVerificationCode(dctx, dst, ch.Code, ch.Purpose); err != nil {
		e.metricInc(MetricDeliveryFailure)
		e.logger.Warn("verification code delivery failed",
			zap.String("account_id", a.ID),
			zap.String("to", logging.Redact(dst.Address)),
			zap.String("purpose", string(ch.Purpose)),
			zap.Error(err),
		)
		e.emitAudit(ctx, auditEventDeliveryFailure, false, a.ID, ErrDeliveryFailed, func() map[string]string {
			return map[string]string{
				"purpose": string(ch.Purpose),
				"channel": string(dst.Channel),
			}
		})
		return err
	}
	return nil
}

// sendWelcome is best effort: the account is already active.
func (e *Engine) sendWelcome(ctx context.Context, a *account.Account) {
	dst, ok := a.Destination()
	if !ok {
		return
	}
	dctx, cancel := e.deliveryContext(ctx)
	defer cancel()

	if err := e.deliverer.SendWelcome(dctx, dst, a.ID); err != nil {
		e.metricInc(MetricDeliveryFailure)
		e.logger.Warn("welcome delivery failed", zap.String("account_id", a.ID), zap.Error(err))
	}
}

func (e *Engine) deliveryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.config.Delivery.Timeout > 0 {
		return context.WithTimeout(ctx, e.config.Delivery.Timeout)
	}
	return context.WithCancel(ctx)
}

func (e *Engine) issuePair(a *account.Account) (TokenPair, error) {
	pair, err := e.tokens.IssuePair(a.ID, string(a.Role))
	if err != nil {
		e.logger.Error("token issuance failed", zap.String("account_id", a.ID), zap.Error(err))
		return TokenPair{}, ErrInternal
	}
	return pair, nil
}

// equalizeVerify spends one hash verification so that paths without a
// stored credential take as long as a wrong password.
func (e *Engine) equalizeVerify(ctx context.Context, plaintext string) error {
	e.dummyOnce.Do(func() {
		h, err := e.hasher.HashContext(context.Background(), "identity-timing-equalizer")
		if err != nil {
			e.logger.Warn("timing equalizer hash unavailable", zap.Error(err))
			return
		}
		e.dummyHash = h
	})
	if e.dummyHash == "" {
		return nil
	}
	_, err := e.hasher.VerifyContext(ctx, plaintext, e.dummyHash)
	return err
}

func (e *Engine) enumerationDelay(ctx context.Context) error {
	if !e.config.Account.EnumerationDelay {
		return ctx.Err()
	}
	minMs := int64(20)
	maxMs := int64(40)
	span := maxMs - minMs + 1

	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return err
	}

	delay := time.Duration(minMs+n.Int64()) * time.Millisecond
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
