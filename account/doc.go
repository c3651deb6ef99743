// Package account defines the account record, its lifecycle state machine and
// the durable store contract the engine consumes.
//
// # State machine
//
// Initial status depends on the signup method: EMAIL starts in
// NEEDS_EMAIL_VERIFICATION, PHONE in NEEDS_PHONE_VERIFICATION and EXTERNAL in
// ACTIVE. [Next] is the only place legal transitions are defined; BLOCKED has
// no outgoing self-service transitions. [CanAuthenticate] is true only for
// ACTIVE.
//
// # Architecture boundaries
//
// This package is pure data plus rules. Persistence lives behind [Store] and
// orchestration lives in the root package.
//
// # What this package must NOT do
//
//   - Perform I/O.
//   - Hash passwords or sign tokens.
package account
