package goMFA

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by goMFA APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	RelyingParty RelyingPartyConfig
	// Methods is the ordered list of enabled method names. Order matters:
	// after a password login the user is routed to the first configured
	// method they hold a key for.
	Methods   []string
	TOTP      TOTPConfig
	Recovery  RecoveryConfig
	Keys      KeysConfig
	Challenge ChallengeConfig
	Routes    RoutesConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
RELYING PARTY CONFIG
====================================
*/

// RelyingPartyConfig defines a public type used by goMFA APIs.
//
// RelyingPartyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RelyingPartyConfig struct {
	// Domain is the exact domain this service is reachable on
	// (e.g. "example.com"). FIDO2 ceremonies fail if this does not match the
	// web origin.
	Domain string
	// Title is shown in authenticator apps and in notification mails.
	Title string
	// UserVerification is the WebAuthn user-verification requirement:
	// "required", "preferred" (default) or "discouraged".
	UserVerification string
	// AllowInsecureLocalhost additionally accepts the plain-http origin of a
	// localhost-family Domain. It exists for local development only, is off
	// by default, and is recorded in the audit stream when enabled.
	AllowInsecureLocalhost bool
}

/*
====================================
METHOD CONFIG
====================================
*/

// TOTPConfig defines a public type used by goMFA APIs.
//
// TOTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TOTPConfig struct {
	Digits     int
	Period     int
	SecretSize int
	// Window is the accepted time-step tolerance in steps before/after the
	// current one. Zero means only the current step is valid.
	Window int
}

// RecoveryConfig defines a public type used by goMFA APIs.
//
// RecoveryConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RecoveryConfig struct {
	Digits int
}

// KeysConfig defines a public type used by goMFA APIs.
//
// KeysConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type KeysConfig struct {
	// MaxPerAccount caps registered keys per account. Zero means unlimited.
	// Enforced only at creation.
	MaxPerAccount int
}

// ChallengeConfig defines a public type used by goMFA APIs.
//
// ChallengeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ChallengeConfig struct {
	// TTL bounds how long an issued challenge and a pending login marker stay
	// valid in the session store.
	TTL time.Duration
	// SessionPrefix namespaces goMFA values inside the session store.
	SessionPrefix string
}

// RoutesConfig holds the redirect targets the engine hands back to the host
// application. The host owns actual routing; these are opaque strings to the
// engine.
type RoutesConfig struct {
	// ListURL is the key-management page. Recovery-code logins and the
	// enforcement gate redirect here.
	ListURL string
	// AuthURLPrefix is joined with a method name to form the authenticate
	// redirect issued after password success.
	AuthURLPrefix string
}

// AuditConfig defines a public type used by goMFA APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goMFA APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig may return an error when input validation, dependency calls, or security checks fail.
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return Config{
		RelyingParty: RelyingPartyConfig{
			UserVerification: "preferred",
		},
		Methods: []string{MethodFIDO2, MethodTOTP, MethodRecovery},
		TOTP: TOTPConfig{
			Digits:     6,
			Period:     30,
			SecretSize: 20,
			Window:     0,
		},
		Recovery: RecoveryConfig{
			Digits: 10,
		},
		Keys: KeysConfig{
			MaxPerAccount: 0,
		},
		Challenge: ChallengeConfig{
			TTL:           10 * time.Minute,
			SessionPrefix: "mfa",
		},
		Routes: RoutesConfig{
			ListURL:       "/mfa/",
			AuthURLPrefix: "/mfa/auth/",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	methods := c.Methods
	if strings.TrimSpace(c.RelyingParty.Domain) == "" {
		return errors.New("RelyingParty.Domain is required")
	}
	if strings.Contains(c.RelyingParty.Domain, "/") || strings.Contains(c.RelyingParty.Domain, "://") {
		return errors.New("RelyingParty.Domain must be a bare domain, not a URL")
	}
	// The title doubles as the otpauth issuer, which must not be empty.
	if strings.TrimSpace(c.RelyingParty.Title) == "" {
		return errors.New("RelyingParty.Title is required")
	}
	switch c.RelyingParty.UserVerification {
	case "", "required", "preferred", "discouraged":
	default:
		return errors.New("RelyingParty.UserVerification must be required, preferred or discouraged")
	}
	if len(methods) == 0 {
		return errors.New("at least one method must be enabled")
	}
	seen := make(map[string]struct{}, len(methods))
	for _, name := range methods {
		if name == "" {
			return errors.New("method name must not be empty")
		}
		if _, dup := seen[name]; dup {
			return errors.New("duplicate method name: " + name)
		}
		seen[name] = struct{}{}
	}
	if c.TOTP.Digits < 6 || c.TOTP.Digits > 8 {
		return errors.New("TOTP.Digits must be between 6 and 8")
	}
	if c.TOTP.Period <= 0 {
		return errors.New("TOTP.Period must be positive")
	}
	if c.TOTP.SecretSize < 16 {
		return errors.New("TOTP.SecretSize must be at least 16 bytes")
	}
	if c.TOTP.Window < 0 {
		return errors.New("TOTP.Window must not be negative")
	}
	if c.Recovery.Digits < 8 || c.Recovery.Digits > 10 {
		return errors.New("Recovery.Digits must be between 8 and 10")
	}
	if c.Keys.MaxPerAccount < 0 {
		return errors.New("Keys.MaxPerAccount must not be negative")
	}
	if c.Challenge.TTL <= 0 {
		return errors.New("Challenge.TTL must be positive")
	}
	if c.Challenge.SessionPrefix == "" {
		return errors.New("Challenge.SessionPrefix is required")
	}
	if c.Routes.ListURL == "" || c.Routes.AuthURLPrefix == "" {
		return errors.New("Routes.ListURL and Routes.AuthURLPrefix are required")
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	if len(c.Methods) > 0 {
		out.Methods = append([]string(nil), c.Methods...)
	}
	return out
}
