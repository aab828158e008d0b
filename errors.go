package goMFA

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineNotReady is an exported constant or variable used by the MFA engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrUserNotFound is an exported constant or variable used by the MFA engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrMethodNotFound is an exported constant or variable used by the MFA engine.
	ErrMethodNotFound = errors.New("mfa method not found")
	// ErrChallengeNotFound is an exported constant or variable used by the MFA engine.
	ErrChallengeNotFound = errors.New("mfa challenge not found")
	// ErrPendingLoginNotFound is an exported constant or variable used by the MFA engine.
	ErrPendingLoginNotFound = errors.New("pending mfa login not found")
	// ErrValidationFailed is an exported constant or variable used by the MFA engine.
	ErrValidationFailed = errors.New("mfa validation failed")
	// ErrReplayDetected reports a code that verified against a stored secret
	// but was already accepted once. It matches ErrValidationFailed under
	// errors.Is, so callers treating it as a plain failure keep working.
	ErrReplayDetected = fmt.Errorf("%w: code already used", ErrValidationFailed)
	// ErrKeyNotFound is an exported constant or variable used by the MFA engine.
	ErrKeyNotFound = errors.New("mfa key not found")
	// ErrKeyLimitExceeded is an exported constant or variable used by the MFA engine.
	ErrKeyLimitExceeded = errors.New("mfa key limit exceeded")
	// ErrSessionUnavailable is an exported constant or variable used by the MFA engine.
	ErrSessionUnavailable = errors.New("session store unavailable")
	// ErrSessionValueNotFound is an exported constant or variable used by the MFA engine.
	ErrSessionValueNotFound = errors.New("session value not found")
	// ErrKeyStoreUnavailable is an exported constant or variable used by the MFA engine.
	ErrKeyStoreUnavailable = errors.New("key store unavailable")
)
