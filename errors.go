package goIdentity

import (
	"context"
	"errors"

	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/jwt"
)

var (
	// ErrDuplicateAccount is returned by Signup when the email, phone or
	// external identity is already registered. No record is written.
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrAccountNotFound means no account matches the ID or identifier. Login never
	// returns it; it answers ErrInvalidCredentials instead.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials covers every login failure: unknown account,
	// wrong password, unverified or blocked status, missing credential.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrOTPInvalidOrExpired covers a wrong code, an expired code, a code for
	// another purpose and an account no longer awaiting the code. The stored
	// challenge is left untouched.
	ErrOTPInvalidOrExpired = errors.New("verification code invalid or expired")
	// ErrDeliveryFailed is returned when a code was stored but could not be
	// handed to the deliverer. The operation may be retried.
	ErrDeliveryFailed = errors.New("delivery failed")
	// ErrTokenExpired means the token was valid but is past its expiry. The
	// caller should refresh or log in again.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid means the token parsed but failed signature, issuer,
	// audience or type checks, such as an access token presented for refresh.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenMalformed means the input is not a token at all. It is never
	// returned for a well-formed token with a bad signature.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrHashingFailure is an entropy or library fault in the credential hasher.
	ErrHashingFailure = errors.New("hashing failure")
	// ErrInvalidRequest reports missing or malformed input. The wrapped
	// message names the field.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrIllegalTransition is returned by administrative operations the
	// account's current status does not allow.
	ErrIllegalTransition = errors.New("illegal account status transition")
	// ErrStoreUnavailable wraps account store faults. The operation may be
	// retried.
	ErrStoreUnavailable = errors.New("account store unavailable")
	// ErrConflict is returned when compare-and-swap retries are exhausted.
	ErrConflict = errors.New("concurrent account update")
	// ErrInternal reports an unexpected fault such as token signing or code
	// generation failing.
	ErrInternal = errors.New("internal error")
	// ErrEngineNotReady is returned by methods called on a nil or unbuilt
	// Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// DeliveryError is returned by Signup when the account was persisted but its
// verification code could not be delivered. It matches ErrDeliveryFailed.
type DeliveryError struct {
	PendingIdentifier string
	AccountID         string
	Err               error
}

func (e *DeliveryError) Error() string {
	return ErrDeliveryFailed.Error() + " for " + e.AccountID
}

func (e *DeliveryError) Is(target error) bool { return target == ErrDeliveryFailed }

func (e *DeliveryError) Unwrap() error { return e.Err }

// Failure is the stable, caller-facing rendering of an engine error.
type Failure struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

var failures = []struct {
	err     error
	failure Failure
}{
	{ErrDuplicateAccount, Failure{Code: "duplicate_account", Message: "An account with this identifier already exists."}},
	{ErrAccountNotFound, Failure{Code: "account_not_found", Message: "No matching account was found."}},
	{ErrInvalidCredentials, Failure{Code: "invalid_credentials", Message: "The credentials provided are not valid."}},
	{ErrOTPInvalidOrExpired, Failure{Code: "otp_invalid_or_expired", Message: "The verification code is invalid or has expired."}},
	{ErrDeliveryFailed, Failure{Code: "delivery_failed", Message: "The verification code could not be sent. Please try again.", Retryable: true}},
	{ErrTokenExpired, Failure{Code: "token_expired", Message: "Your session has expired. Please log in again."}},
	{ErrTokenInvalid, Failure{Code: "token_invalid", Message: "The token was rejected."}},
	{ErrTokenMalformed, Failure{Code: "token_malformed", Message: "The token could not be read."}},
	{ErrInvalidRequest, Failure{Code: "invalid_request", Message: "The request is missing or has invalid fields."}},
	{ErrIllegalTransition, Failure{Code: "illegal_transition", Message: "The account cannot be changed from its current status."}},
	{ErrStoreUnavailable, Failure{Code: "store_unavailable", Message: "The service is temporarily unavailable.", Retryable: true}},
	{ErrConflict, Failure{Code: "conflict", Message: "The account was modified concurrently. Please retry.", Retryable: true}},
	{ErrHashingFailure, Failure{Code: "hashing_failure", Message: "An unexpected error occurred."}},
	{ErrEngineNotReady, Failure{Code: "not_ready", Message: "The service is not ready."}},
	{context.DeadlineExceeded, Failure{Code: "timeout", Message: "The request timed out.", Retryable: true}},
	{context.Canceled, Failure{Code: "canceled", Message: "The request was canceled."}},
}

var internalFailure = Failure{Code: "internal_error", Message: "An unexpected error occurred."}

// Describe maps err to a stable code and a message safe to show callers.
// Unrecognized errors render as internal_error; their detail is never
// included. A nil error yields the zero Failure.
func Describe(err error) Failure {
	if err == nil {
		return Failure{}
	}
	for _, f := range failures {
		if errors.Is(err, f.err) {
			return f.failure
		}
	}
	return internalFailure
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case isContextError(err):
		return err
	case errors.Is(err, account.ErrNotFound):
		return ErrAccountNotFound
	case errors.Is(err, account.ErrDuplicate):
		return ErrDuplicateAccount
	case errors.Is(err, account.ErrVersionConflict), errors.Is(err, ErrConflict):
		return ErrConflict
	case errors.Is(err, account.ErrImmutableIdentity):
		return ErrInvalidRequest
	default:
		return ErrStoreUnavailable
	}
}

func mapTokenError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrMalformed):
		return ErrTokenMalformed
	default:
		return ErrTokenInvalid
	}
}

func mapHashError(err error) error {
	switch {
	case err == nil:
		return nil
	case isContextError(err):
		return err
	default:
		return ErrHashingFailure
	}
}

func mapTransitionError(err error) error {
	if errors.Is(err, account.ErrIllegalTransition) {
		return ErrIllegalTransition
	}
	return err
}
