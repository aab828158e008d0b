// Package keystore ships two ready-made implementations of the goMFA
// KeyStore interface: an in-memory store for tests and single-process
// deployments, and a SQLite-backed store for durable single-node setups.
// Applications with an existing user database implement the interface
// against their own schema instead.
package keystore
