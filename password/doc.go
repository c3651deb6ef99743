// Package password implements one-way credential hashing and verification.
//
// # Output format
//
// Argon2id hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Bcrypt hashes use the modular crypt format produced by golang.org/x/crypto/bcrypt.
//
// A [Hasher] built by [New] hashes with the configured algorithm and verifies
// either format, so stored credentials survive an algorithm switch. [Hasher.NeedsRehash]
// reports hashes produced by a different algorithm or weaker parameters so the caller
// can re-hash on the next successful login.
//
// # Contract
//
// Hash fails only with [ErrHashingFailure] when the entropy source or the
// underlying library fails; it never rejects plaintext content. Verify never
// returns an error: empty plaintext, empty hashes and malformed hashes compare
// as non-matching.
//
// [Limited] bounds how many hash computations run at once. Argon2id is
// memory-hard, so unbounded fan-out under load multiplies its memory cost.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other goIdentity package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
