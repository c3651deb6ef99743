// Package otp issues and validates short numeric one-time passcodes.
//
// # Contract
//
// [Generator.Generate] draws a fixed-width code uniformly from
// [10^(d-1), 10^d-1] using crypto/rand and stamps it with an expiry of
// now+TTL. [Validate] is a pure function: it never mutates the challenge and
// fails closed on a nil challenge, a purpose mismatch, an expired window, or a
// code that is not an exact string match.
//
// # Architecture boundaries
//
// Clearing a consumed challenge is the caller's job and must be committed
// atomically with the status transition the code authorizes.
//
// # What this package must NOT do
//
//   - Persist or log codes.
//   - Import any other goIdentity package.
package otp
