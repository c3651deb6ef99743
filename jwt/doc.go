// Package jwt issues and verifies paired access/refresh bearer tokens.
//
// Access and refresh tokens are signed with distinct keys and carry a typ
// claim, so neither can stand in for the other. Every parse enforces the
// configured issuer and audience. Verification failures fold into exactly one
// of ErrExpired, ErrInvalid or ErrMalformed.
//
// Tokens are stateless: there is no revocation list, so a leaked refresh token
// stays usable until its exp.
package jwt
