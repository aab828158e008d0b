package goMFA

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by goMFA APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	sessions SessionStore
	keys     KeyStore
	users    UserDirectory
	mailer   Mailer
	qr       QRRenderer

	auditSink AuditSink

	customMethods []Method

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis wires a Redis-backed session store using the configured challenge
// prefix and TTL. It is the common path; WithSessionStore accepts any other
// backend.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.sessions = NewRedisSessionStore(client, b.config.Challenge.SessionPrefix, b.config.Challenge.TTL)
	return b
}

// WithSessionStore describes the withsessionstore operation and its observable behavior.
//
// WithSessionStore may return an error when input validation, dependency calls, or security checks fail.
// WithSessionStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	b.sessions = store
	return b
}

// WithKeyStore describes the withkeystore operation and its observable behavior.
//
// WithKeyStore may return an error when input validation, dependency calls, or security checks fail.
// WithKeyStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithKeyStore(store KeyStore) *Builder {
	b.keys = store
	return b
}

// WithUserDirectory describes the withuserdirectory operation and its observable behavior.
//
// WithUserDirectory may return an error when input validation, dependency calls, or security checks fail.
// WithUserDirectory does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithUserDirectory(users UserDirectory) *Builder {
	b.users = users
	return b
}

// WithMailer describes the withmailer operation and its observable behavior.
//
// WithMailer may return an error when input validation, dependency calls, or security checks fail.
// WithMailer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithQRRenderer describes the withqrrenderer operation and its observable behavior.
//
// WithQRRenderer may return an error when input validation, dependency calls, or security checks fail.
// WithQRRenderer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithQRRenderer(r QRRenderer) *Builder {
	b.qr = r
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMethod registers a caller-provided method implementation. Its name must
// also appear in Config.Methods to be active, and it takes precedence over a
// built-in method of the same name.
func (b *Builder) WithMethod(m Method) *Builder {
	b.customMethods = append(b.customMethods, m)
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.sessions == nil {
		return nil, errors.New("session store required")
	}
	if b.keys == nil {
		return nil, errors.New("key store required")
	}
	if b.users == nil {
		return nil, errors.New("user directory required")
	}

	mailer := b.mailer
	if mailer == nil {
		mailer = NoOpMailer{}
	}

	custom := make(map[string]Method, len(b.customMethods))
	for _, m := range b.customMethods {
		if m == nil || m.Name() == "" {
			return nil, errors.New("custom method must have a name")
		}
		if _, dup := custom[m.Name()]; dup {
			return nil, errors.New("duplicate custom method: " + m.Name())
		}
		custom[m.Name()] = m
	}

	// -------- METHOD REGISTRY --------
	registry := newMethodRegistry()
	for _, name := range cfg.Methods {
		if m, ok := custom[name]; ok {
			registry.add(m)
			delete(custom, name)
			continue
		}
		switch name {
		case MethodFIDO2:
			m, err := newFIDO2Method(cfg.RelyingParty, b.keys)
			if err != nil {
				return nil, err
			}
			registry.add(m)
		case MethodTOTP:
			registry.add(newTOTPMethod(cfg.TOTP, cfg.RelyingParty.Title, b.keys, b.qr))
		case MethodRecovery:
			registry.add(newRecoveryMethod(cfg.Recovery, b.keys))
		default:
			return nil, errors.New("unknown method: " + name)
		}
	}
	for name := range custom {
		return nil, errors.New("custom method not enabled in Config.Methods: " + name)
	}

	engine := &Engine{
		config:     cfg,
		registry:   registry,
		sessions:   b.sessions,
		challenges: newChallengeStore(b.sessions),
		pending:    newPendingStore(b.sessions),
		keys:       b.keys,
		users:      b.users,
		mailer:     mailer,
		audit:      newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:    NewMetrics(cfg.Metrics),
	}

	if cfg.RelyingParty.AllowInsecureLocalhost {
		engine.emitAudit(context.Background(), auditEventInsecureOriginsEnabled, true, "", "", "", nil, func() map[string]string {
			return map[string]string{
				"domain": cfg.RelyingParty.Domain,
			}
		})
	}

	b.built = true

	return engine, nil
}
