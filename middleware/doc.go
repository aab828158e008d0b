// Package middleware exposes the HTTP enforcement gate that makes MFA
// enrollment mandatory: authenticated users without a registered key are
// redirected to the key-management page before they reach anything else.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication itself — who the current user is comes from the
// host via a PrincipalFunc, and key lookups are delegated to the engine.
//
// # What this package must NOT do
//
//   - Verify passwords or MFA responses (Engine flows own that).
//   - Block requests on backend failure: the gate fails open so a key store
//     outage does not take the whole site down.
package middleware
