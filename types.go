package goMFA

import (
	"context"
)

// Method names accepted in Config.Methods and route parameters.
const (
	// MethodFIDO2 is an exported constant or variable used by the MFA engine.
	MethodFIDO2 = "FIDO2"
	// MethodTOTP is an exported constant or variable used by the MFA engine.
	MethodTOTP = "TOTP"
	// MethodRecovery is an exported constant or variable used by the MFA engine.
	MethodRecovery = "recovery"
)

// UserRecord is the minimal account view the engine needs from the host
// application's user directory. Email may be empty; notification mail is then
// skipped.
type UserRecord struct {
	UserID      string
	Username    string
	DisplayName string
	Email       string
	// Backend tags which authentication backend verified the password. It is
	// carried through the pending login marker and handed back untouched.
	Backend string
}

// UserDirectory is the lookup interface that callers must implement to
// integrate goMFA with their user database.
type UserDirectory interface {
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
}

// Key is a stored, method-tagged credential enabling future verification for
// one user. Secret encoding is private to the method that created it and
// opaque to the engine.
type Key struct {
	ID     string
	UserID string
	Method string
	Name   string
	Secret string
	// LastCode is the replay guard: the most recently accepted one-time code
	// for this key. Empty for methods without code replay semantics.
	LastCode  string
	CreatedAt int64
}

// KeyStore is the credential persistence interface. (user, method, secret)
// identifies a usable credential; the engine enforces the per-account key
// limit, stores only guarantee uniqueness of ID.
type KeyStore interface {
	// List returns the user's keys, filtered to one method when method is
	// non-empty.
	List(ctx context.Context, userID, method string) ([]Key, error)
	Create(ctx context.Context, key Key) (Key, error)
	// Delete removes one of the user's keys. Unknown IDs (or IDs owned by a
	// different user) return ErrKeyNotFound.
	Delete(ctx context.Context, userID, keyID string) error
	// UpdateLastCode persists the replay guard after a successful TOTP
	// verification.
	UpdateLastCode(ctx context.Context, keyID, code string) error
}

// SessionStore is a per-browser-session keyed value store. Implementations
// must scope values to (sessionID, field) and expire them independently of
// the application session cookie. Get and Pop return ErrSessionValueNotFound
// when no value is held.
type SessionStore interface {
	Get(ctx context.Context, sessionID, field string) ([]byte, error)
	Set(ctx context.Context, sessionID, field string, value []byte) error
	Pop(ctx context.Context, sessionID, field string) ([]byte, error)
	Delete(ctx context.Context, sessionID, field string) error
}

// Mailer dispatches the best-effort notification sent after a failed
// authentication attempt. Implementations report how many messages went out;
// zero (with a nil error) means the user has no address or no template is
// configured.
type Mailer interface {
	SendLoginFailed(ctx context.Context, user UserRecord, method string) (int, error)
}

// QRRenderer turns a provisioning URL into inline image markup for TOTP
// enrollment pages.
type QRRenderer interface {
	Render(url string) (string, error)
}

// Method is the uniform four-operation contract every MFA method satisfies.
// Begin operations produce a challenge pair: public data sent to the client
// and private state held server-side. Complete operations verify a client
// response against that private state and report ErrValidationFailed on
// mismatch.
//
// RegisterBegin must not mutate the key store. AuthenticateComplete may have
// method-defined side effects: TOTP advances the replay guard, recovery
// deletes the consumed key.
type Method interface {
	Name() string
	RegisterBegin(ctx context.Context, user UserRecord) (public, state []byte, err error)
	RegisterComplete(ctx context.Context, state []byte, response string) (secret string, err error)
	AuthenticateBegin(ctx context.Context, user UserRecord) (public, state []byte, err error)
	AuthenticateComplete(ctx context.Context, state []byte, user UserRecord, response string) error
}

// ChallengeData is the client-facing half of an issued challenge.
type ChallengeData struct {
	Method string
	// Public is method-defined: a JSON document for TOTP and recovery, a
	// WebAuthn creation/request options document for FIDO2. Never contains
	// the private verification state.
	Public []byte
}

// LoginResult is returned by [Engine.CompleteLogin] after the host verified a
// password.
type LoginResult struct {
	// MFARequired reports whether an MFA step stands between the caller and a
	// fully authenticated session. False means the user holds no keys and the
	// host may finalize the login immediately.
	MFARequired bool
	// Method is the first configured method the user holds a key for.
	Method string
	// RedirectURL is where the host should send the browser next.
	RedirectURL string
}

// AuthResult is returned by [Engine.CompleteAuthenticate] on success. The
// host finalizes the login for UserID/Backend and redirects to RedirectURL.
type AuthResult struct {
	UserID      string
	Backend     string
	RedirectURL string
}

// KeyList is returned by [Engine.ListKeys]; MaxKeys carries the configured
// per-account limit (0 = unlimited) so UIs can display it.
type KeyList struct {
	Keys    []Key
	MaxKeys int
}
