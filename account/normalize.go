package account

import (
	"strings"
	"unicode"
)

// IdentifierKind tells which index an identifier resolves against.
type IdentifierKind uint8

const (
	IdentifierInvalid IdentifierKind = iota
	IdentifierEmail
	IdentifierPhone
)

// NormalizeEmail performs case-insensitive canonicalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone strips formatting characters and keeps a leading '+'.
// It returns "" when the result is not 7 to 15 digits.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	digits := 0
	for i, r := range s {
		switch {
		case r == '+' && i == 0:
			b.WriteRune(r)
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
			digits++
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return ""
		}
	}
	if digits < 7 || digits > 15 {
		return ""
	}
	return b.String()
}

// ClassifyIdentifier normalizes a login/verify identifier and reports its kind.
func ClassifyIdentifier(s string) (IdentifierKind, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return IdentifierInvalid, ""
	}
	if strings.Contains(s, "@") {
		return IdentifierEmail, NormalizeEmail(s)
	}
	if p := NormalizePhone(s); p != "" {
		return IdentifierPhone, p
	}
	return IdentifierInvalid, ""
}
