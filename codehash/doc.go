// Package codehash hashes one-time recovery codes for storage at rest using
// argon2id in PHC string format.
//
// Recovery codes are short numeric strings, so the plaintext must never be
// persisted: only the salted hash is stored, and verification re-derives the
// hash and compares in constant time.
//
// # What this package must NOT do
//
//   - Import goMFA (the engine imports codehash, never the reverse).
//   - Log or expose plaintext codes.
//   - Use non-constant-time comparisons.
package codehash
