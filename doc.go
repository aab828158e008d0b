// Package goMFA provides a pluggable multi-factor authentication engine that
// layers WebAuthn/FIDO2 authenticators, TOTP generators, and single-use
// recovery codes on top of an existing password login.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goMFA is the public surface. It exposes [Engine], [Builder], [Config], the
// [Method] contract, and value types (Key, LoginResult, AuthResult, etc.).
// Host applications keep owning user accounts, password verification, cookie
// transport, and routing; goMFA owns the challenge lifecycle between a begin
// step and a complete step, the per-account key collection, and the pending
// state between password success and MFA success.
//
// # What this package must NOT do
//
//   - Hash or verify login passwords, or issue application session tokens.
//   - Expose Redis clients, store codecs, or method private state in its
//     public API.
//   - Send a challenge's private verification state to the client.
//
// # Challenge lifecycle contract
//
// A begin operation writes the (public data, private state) pair atomically
// into the caller's browser session. A complete operation verifies against the
// privately held state and deletes the pair on success. A failed verification
// preserves the pair so the user can retry without repeating a multi-step
// ceremony; a fresh begin always regenerates it.
package goMFA
