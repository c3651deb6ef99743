package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goIdentity/otp"
)

// Event drives a status transition.
type Event uint8

const (
	// EventVerified fires when a verification challenge is consumed.
	EventVerified Event = iota + 1
	// EventLockout fires when consecutive credential failures reach the threshold.
	EventLockout
	// EventCooldownElapsed fires on the first authentication attempt after BlockedUntil.
	EventCooldownElapsed
	// EventUnblock is the administrative release of a temporary block.
	EventUnblock
	// EventBlock is the administrative, terminal block.
	EventBlock
	// EventRequirePasswordReset forces the holder through a reset before logging in.
	EventRequirePasswordReset
	// EventPasswordReset fires when a password reset challenge is consumed.
	EventPasswordReset
)

var eventNames = map[Event]string{
	EventVerified:             "verified",
	EventLockout:              "lockout",
	EventCooldownElapsed:      "cooldown_elapsed",
	EventUnblock:              "unblock",
	EventBlock:                "block",
	EventRequirePasswordReset: "require_password_reset",
	EventPasswordReset:        "password_reset",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Event(%d)", uint8(e))
}

var (
	ErrIllegalTransition = errors.New("account: illegal status transition")
	ErrUnknownMethod     = errors.New("account: unknown signup method")
)

type transitionKey struct {
	from  Status
	event Event
}

var transitions = map[transitionKey]Status{
	{StatusNeedsEmailVerification, EventVerified}: StatusActive,
	{StatusNeedsPhoneVerification, EventVerified}: StatusActive,

	{StatusActive, EventLockout}:                     StatusTemporarilyBlocked,
	{StatusTemporarilyBlocked, EventCooldownElapsed}: StatusActive,
	{StatusTemporarilyBlocked, EventUnblock}:         StatusActive,

	{StatusActive, EventRequirePasswordReset}:      StatusNeedsPasswordReset,
	{StatusActive, EventPasswordReset}:             StatusActive,
	{StatusNeedsPasswordReset, EventPasswordReset}: StatusActive,
	{StatusTemporarilyBlocked, EventPasswordReset}: StatusActive,

	{StatusActive, EventBlock}:                 StatusBlocked,
	{StatusNeedsEmailVerification, EventBlock}: StatusBlocked,
	{StatusNeedsPhoneVerification, EventBlock}: StatusBlocked,
	{StatusNeedsPasswordReset, EventBlock}:     StatusBlocked,
	{StatusTemporarilyBlocked, EventBlock}:     StatusBlocked,
}

// InitialStatus returns the status a new account starts in.
func InitialStatus(m SignupMethod) (Status, error) {
	switch m {
	case MethodEmail:
		return StatusNeedsEmailVerification, nil
	case MethodPhone:
		return StatusNeedsPhoneVerification, nil
	case MethodExternal:
		return StatusActive, nil
	}
	return StatusUnknown, ErrUnknownMethod
}

// Next returns the status reached from `from` on ev.
func Next(from Status, ev Event) (Status, error) {
	to, ok := transitions[transitionKey{from: from, event: ev}]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, from, ev)
	}
	return to, nil
}

// CanAuthenticate gates the login path.
func CanAuthenticate(s Status) bool {
	return s == StatusActive
}

// IsTerminal reports whether no self-service transition leaves s.
func IsTerminal(s Status) bool {
	return s == StatusBlocked
}

// IsPendingVerification reports whether s awaits an identity proof.
func IsPendingVerification(s Status) bool {
	return s == StatusNeedsEmailVerification || s == StatusNeedsPhoneVerification
}

// CanIssueChallenge reports whether a challenge for purpose may be issued
// (or re-issued) to a. Issuing never changes the status.
func CanIssueChallenge(a *Account, purpose otp.Purpose) bool {
	if a == nil || IsTerminal(a.Status) {
		return false
	}
	switch purpose {
	case otp.PurposeVerification:
		switch a.Status {
		case StatusNeedsEmailVerification:
			return a.Method == MethodEmail
		case StatusNeedsPhoneVerification:
			return a.Method == MethodPhone
		}
		return false
	case otp.PurposePasswordReset:
		if a.Method != MethodEmail {
			return false
		}
		switch a.Status {
		case StatusActive, StatusNeedsPasswordReset, StatusTemporarilyBlocked:
			return true
		}
		return false
	case otp.PurposeLogin:
		return a.Method == MethodPhone && a.Status == StatusActive
	}
	return false
}

// Apply moves a through ev and performs the bookkeeping that belongs to the
// transition. a must be a working copy the caller will commit atomically.
func Apply(a *Account, ev Event, now time.Time) error {
	to, err := Next(a.Status, ev)
	if err != nil {
		return err
	}
	if !methodAllows(a.Method, ev) {
		return fmt.Errorf("%w: %s on %s account", ErrIllegalTransition, ev, a.Method)
	}

	switch ev {
	case EventVerified, EventPasswordReset:
		a.OTP = nil
		a.FailedLogins = 0
		a.BlockedUntil = time.Time{}
	case EventCooldownElapsed, EventUnblock:
		a.FailedLogins = 0
		a.BlockedUntil = time.Time{}
	case EventBlock:
		a.OTP = nil
		a.BlockedUntil = time.Time{}
	case EventRequirePasswordReset:
		a.OTP = nil
	}

	a.Status = to
	a.UpdatedAt = now
	return nil
}

// methodAllows reports whether ev is meaningful for accounts created with m.
// Password events need a password credential, which only EMAIL accounts hold.
func methodAllows(m SignupMethod, ev Event) bool {
	switch ev {
	case EventRequirePasswordReset, EventPasswordReset:
		return m == MethodEmail
	}
	return true
}

// Lock applies EventLockout and sets the cool-down deadline.
func Lock(a *Account, until time.Time, now time.Time) error {
	if err := Apply(a, EventLockout, now); err != nil {
		return err
	}
	a.BlockedUntil = until
	return nil
}

// CooldownElapsed reports whether a temporarily blocked account may be released.
func CooldownElapsed(a *Account, now time.Time) bool {
	return a.Status == StatusTemporarilyBlocked && !a.BlockedUntil.IsZero() && !now.Before(a.BlockedUntil)
}
