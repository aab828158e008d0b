package goMFA

import (
	"context"
	"fmt"
)

// CompleteLogin describes the completelogin operation and its observable behavior.
//
// CompleteLogin may return an error when input validation, dependency calls, or security checks fail.
// CompleteLogin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// CompleteLogin is called after the host verified the user's password.
// A user without keys is let through directly; a user with at least one key
// gets a pending login marker and a redirect to the authenticate flow for the
// first configured method they hold a key for. The caller must not establish
// an authenticated session while MFARequired is true.
func (e *Engine) CompleteLogin(ctx context.Context, sessionID string, user UserRecord, successURL string) (*LoginResult, error) {
	if e == nil || e.registry == nil {
		return nil, ErrEngineNotReady
	}

	keys, err := e.keys.List(ctx, user.UserID, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyStoreUnavailable, err)
	}

	if len(keys) == 0 {
		e.metricInc(MetricLoginDirect)
		e.emitAudit(ctx, auditEventLoginDirect, true, user.UserID, "", sessionID, nil, nil)
		return &LoginResult{
			MFARequired: false,
			RedirectURL: successURL,
		}, nil
	}

	byMethod := make(map[string]int, len(keys))
	for _, key := range keys {
		byMethod[key.Method]++
	}

	method := ""
	for _, name := range e.registry.names() {
		if byMethod[name] > 0 {
			method = name
			break
		}
	}
	if method == "" {
		// Every key belongs to a method that is no longer configured. Treat it
		// as keyless rather than locking the user out.
		e.metricInc(MetricLoginDirect)
		e.emitAudit(ctx, auditEventLoginDirect, true, user.UserID, "", sessionID, nil, nil)
		return &LoginResult{
			MFARequired: false,
			RedirectURL: successURL,
		}, nil
	}

	marker := &pendingLogin{
		UserID:     user.UserID,
		Backend:    user.Backend,
		SuccessURL: successURL,
	}
	if err := e.pending.Save(ctx, sessionID, marker); err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginMFARequired)
	e.emitAudit(ctx, auditEventLoginMFARequired, true, user.UserID, method, sessionID, nil, nil)

	return &LoginResult{
		MFARequired: true,
		Method:      method,
		RedirectURL: e.config.Routes.AuthURLPrefix + method,
	}, nil
}
