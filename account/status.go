package account

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of an account. Exactly one holds at a time.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusNeedsEmailVerification
	StatusNeedsPhoneVerification
	StatusNeedsPasswordReset
	StatusTemporarilyBlocked
	StatusBlocked
	StatusActive
)

var statusNames = [...]string{
	StatusUnknown:                "UNKNOWN",
	StatusNeedsEmailVerification: "NEEDS_EMAIL_VERIFICATION",
	StatusNeedsPhoneVerification: "NEEDS_PHONE_VERIFICATION",
	StatusNeedsPasswordReset:     "NEEDS_PASSWORD_RESET",
	StatusTemporarilyBlocked:     "TEMPORARILY_BLOCKED",
	StatusBlocked:                "BLOCKED",
	StatusActive:                 "ACTIVE",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(v string) (Status, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	for i, name := range statusNames {
		if i == int(StatusUnknown) {
			continue
		}
		if name == v {
			return Status(i), nil
		}
	}
	return StatusUnknown, fmt.Errorf("account: unknown status %q", v)
}

func (s Status) MarshalText() ([]byte, error) {
	if s == StatusUnknown || int(s) >= len(statusNames) {
		return nil, fmt.Errorf("account: cannot marshal status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SignupMethod records how the account proved its identity at creation.
type SignupMethod uint8

const (
	MethodUnknown SignupMethod = iota
	MethodEmail
	MethodPhone
	MethodExternal
)

var methodNames = [...]string{
	MethodUnknown:  "UNKNOWN",
	MethodEmail:    "EMAIL",
	MethodPhone:    "PHONE",
	MethodExternal: "EXTERNAL",
}

func (m SignupMethod) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("SignupMethod(%d)", uint8(m))
}

// ParseSignupMethod is the inverse of SignupMethod.String.
func ParseSignupMethod(v string) (SignupMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "EMAIL":
		return MethodEmail, nil
	case "PHONE":
		return MethodPhone, nil
	case "EXTERNAL":
		return MethodExternal, nil
	}
	return MethodUnknown, fmt.Errorf("account: unknown signup method %q", v)
}

func (m SignupMethod) MarshalText() ([]byte, error) {
	if m == MethodUnknown || int(m) >= len(methodNames) {
		return nil, fmt.Errorf("account: cannot marshal signup method %d", uint8(m))
	}
	return []byte(m.String()), nil
}

func (m *SignupMethod) UnmarshalText(b []byte) error {
	parsed, err := ParseSignupMethod(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Role is the authorization role carried in issued tokens.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAdmin     Role = "ADMIN"
	RoleDeveloper Role = "DEVELOPER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleDeveloper:
		return true
	}
	return false
}
