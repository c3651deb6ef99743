package account

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/MrEthical07/goIdentity/otp"
	"github.com/oklog/ulid/v2"
)

// ExternalIdentity is a delegated identity from a federated provider.
type ExternalIdentity struct {
	Provider string `json:"provider"`
	Subject  string `json:"subject"`
}

// Account is the durable identity record. Stores own it; callers work on
// clones and commit through Store.CompareAndSwap.
type Account struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`

	Email    string            `json:"email,omitempty"`
	Phone    string            `json:"phone,omitempty"`
	External *ExternalIdentity `json:"external,omitempty"`

	Method         SignupMethod   `json:"signup_method"`
	CredentialHash string         `json:"credential_hash,omitempty"`
	Status         Status         `json:"status"`
	OTP            *otp.Challenge `json:"otp,omitempty"`
	Role           Role           `json:"role"`

	FailedLogins int       `json:"failed_logins,omitempty"`
	BlockedUntil time.Time `json:"blocked_until,omitempty"`

	Version   uint64    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of a.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	if a.External != nil {
		ext := *a.External
		out.External = &ext
	}
	out.OTP = a.OTP.Clone()
	return &out
}

var (
	ErrNoIdentifier       = errors.New("account: no identifier")
	ErrMultipleIdentifier = errors.New("account: more than one identifier")
	ErrMethodMismatch     = errors.New("account: identifier does not match signup method")
	ErrCredentialMismatch = errors.New("account: credential hash must be present iff signup method is EMAIL")
	ErrInvalidRole        = errors.New("account: invalid role")
)

// Validate checks the record-level invariants.
func (a *Account) Validate() error {
	count := 0
	if a.Email != "" {
		count++
	}
	if a.Phone != "" {
		count++
	}
	if a.External != nil {
		count++
	}
	switch {
	case count == 0:
		return ErrNoIdentifier
	case count > 1:
		return ErrMultipleIdentifier
	}

	switch a.Method {
	case MethodEmail:
		if a.Email == "" {
			return ErrMethodMismatch
		}
	case MethodPhone:
		if a.Phone == "" {
			return ErrMethodMismatch
		}
	case MethodExternal:
		if a.External == nil || a.External.Provider == "" || a.External.Subject == "" {
			return ErrMethodMismatch
		}
	default:
		return ErrMethodMismatch
	}

	if (a.Method == MethodEmail) != (a.CredentialHash != "") {
		return ErrCredentialMismatch
	}
	if !a.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// Channel is the medium a destination is reached through.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Destination is where codes and notices for an account are delivered.
type Destination struct {
	Channel Channel `json:"channel"`
	Address string  `json:"address"`
}

// Destination returns the delivery target, or false for accounts without one.
func (a *Account) Destination() (Destination, bool) {
	switch {
	case a.Email != "":
		return Destination{Channel: ChannelEmail, Address: a.Email}, true
	case a.Phone != "":
		return Destination{Channel: ChannelSMS, Address: a.Phone}, true
	}
	return Destination{}, false
}

// SameIdentity reports whether a and b carry the same email, phone and
// external identity.
func SameIdentity(a, b *Account) bool {
	if a.Email != b.Email || a.Phone != b.Phone {
		return false
	}
	if (a.External == nil) != (b.External == nil) {
		return false
	}
	return a.External == nil || *a.External == *b.External
}

// IdentityKey returns a stable encoding of the identity attributes.
func (a *Account) IdentityKey() string {
	switch {
	case a.Email != "":
		return "email:" + a.Email
	case a.Phone != "":
		return "phone:" + a.Phone
	case a.External != nil:
		return "ext:" + a.External.Provider + ":" + a.External.Subject
	}
	return ""
}

// Identifier returns the email or phone the account signs in with.
func (a *Account) Identifier() string {
	if a.Email != "" {
		return a.Email
	}
	return a.Phone
}

// NewID returns a lexicographically sortable account ID.
func NewID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
