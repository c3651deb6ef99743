// Package goIdentity provides an identity core: account signup by email, phone
// or external provider, one-time-code verification, password and code login,
// and signed access/refresh token pairs.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goIdentity is the public surface. It exposes [Engine], [Builder], [Config]
// and value types (SignupResult, VerifyResult, MetricsSnapshot). Hashing,
// code generation, token signing and the account state machine live in the
// password, otp, jwt and account packages; durable storage is supplied by the
// caller through [AccountStore] (see store/memstore, store/redisstore and
// store/pgstore).
//
// # Consistency
//
// Every account change is a read-modify-write committed with
// AccountStore.CompareAndSwap. Conflicting writers retry from a fresh read,
// so a verification code is consumed at most once and a status is never
// overwritten by a stale copy.
//
// # What this package must NOT do
//
//   - Expose credential hashes or challenge codes outside the configured Deliverer.
//   - Reveal through its errors whether an identifier is registered on login,
//     code request or password reset paths.
//   - Keep server-side session state; refresh tokens are stateless.
package goIdentity
