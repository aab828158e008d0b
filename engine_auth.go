package goMFA

import (
	"context"
	"errors"
	"log"
	"time"
)

// BeginAuthenticate describes the beginauthenticate operation and its observable behavior.
//
// BeginAuthenticate may return an error when input validation, dependency calls, or security checks fail.
// BeginAuthenticate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// BeginAuthenticate issues a fresh authentication challenge for the pending
// login held in the session. It fails with ErrPendingLoginNotFound when no
// password login preceded it; the authenticate flow has no subject without
// the marker. Methods without a server-issued challenge (TOTP, recovery)
// produce an empty challenge record, which still pins the method for the
// complete step.
func (e *Engine) BeginAuthenticate(ctx context.Context, sessionID, methodName string) (*ChallengeData, error) {
	if e == nil || e.registry == nil {
		return nil, ErrEngineNotReady
	}

	marker, err := e.pending.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	user, err := e.users.GetUserByID(ctx, marker.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	method, err := e.registry.get(methodName)
	if err != nil {
		return nil, err
	}

	public, state, err := method.AuthenticateBegin(ctx, user)
	if err != nil {
		return nil, err
	}

	record := &challengeRecord{
		Method: methodName,
		Public: public,
		State:  state,
	}
	if err := e.challenges.Save(ctx, sessionID, flowAuthenticate, record); err != nil {
		return nil, err
	}

	e.metricInc(MetricAuthChallengeIssued)
	e.emitAudit(ctx, auditEventAuthChallenge, true, user.UserID, methodName, sessionID, nil, nil)

	return &ChallengeData{Method: methodName, Public: public}, nil
}

// HeldAuthenticateChallenge describes the heldauthenticatechallenge operation and its observable behavior.
//
// HeldAuthenticateChallenge may return an error when input validation, dependency calls, or security checks fail.
// HeldAuthenticateChallenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) HeldAuthenticateChallenge(ctx context.Context, sessionID, methodName string) (*ChallengeData, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	record, err := e.challenges.Get(ctx, sessionID, flowAuthenticate)
	if err != nil {
		return nil, err
	}
	if record.Method != methodName {
		return nil, ErrChallengeNotFound
	}
	return &ChallengeData{Method: record.Method, Public: record.Public}, nil
}

// CompleteAuthenticate describes the completeauthenticate operation and its observable behavior.
//
// CompleteAuthenticate may return an error when input validation, dependency calls, or security checks fail.
// CompleteAuthenticate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// CompleteAuthenticate verifies the client response for the pending login.
// On success the challenge and the pending marker are consumed and the host
// finalizes the login from the returned AuthResult. On ErrValidationFailed
// both survive, the user may retry, and a best-effort notification mail is
// sent to the account's address.
func (e *Engine) CompleteAuthenticate(ctx context.Context, sessionID, methodName, response string) (*AuthResult, error) {
	if e == nil || e.registry == nil {
		return nil, ErrEngineNotReady
	}

	marker, err := e.pending.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	user, err := e.users.GetUserByID(ctx, marker.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	method, err := e.registry.get(methodName)
	if err != nil {
		return nil, err
	}

	record, err := e.challenges.Get(ctx, sessionID, flowAuthenticate)
	if err != nil {
		return nil, err
	}
	if record.Method != methodName {
		return nil, ErrChallengeNotFound
	}

	start := time.Now()
	verifyErr := method.AuthenticateComplete(ctx, record.State, user, response)
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}

	if verifyErr != nil {
		if errors.Is(verifyErr, ErrValidationFailed) {
			if errors.Is(verifyErr, ErrReplayDetected) {
				e.metricInc(MetricAuthReplayBlocked)
			}
			e.metricInc(MetricAuthFailure)
			e.emitAudit(ctx, auditEventAuthFailure, false, user.UserID, methodName, sessionID, verifyErr, nil)
			e.notifyFailure(ctx, user, methodName, sessionID)
		}
		return nil, verifyErr
	}

	if err := e.challenges.Delete(ctx, sessionID, flowAuthenticate); err != nil {
		return nil, err
	}
	if _, err := e.pending.Pop(ctx, sessionID); err != nil && !errors.Is(err, ErrPendingLoginNotFound) {
		return nil, err
	}

	redirect := marker.SuccessURL
	if methodName == MethodRecovery {
		// A consumed recovery code is gone; send the user to key management so
		// they can mint a replacement before anything else.
		redirect = e.config.Routes.ListURL
		e.metricInc(MetricRecoveryKeyConsumed)
		e.emitAudit(ctx, auditEventRecoveryKeyConsumed, true, user.UserID, methodName, sessionID, nil, nil)
	}

	e.metricInc(MetricAuthSuccess)
	e.emitAudit(ctx, auditEventAuthSuccess, true, user.UserID, methodName, sessionID, nil, nil)

	return &AuthResult{
		UserID:      user.UserID,
		Backend:     marker.Backend,
		RedirectURL: redirect,
	}, nil
}

func (e *Engine) notifyFailure(ctx context.Context, user UserRecord, methodName, sessionID string) {
	if e.mailer == nil {
		return
	}
	sent, err := e.mailer.SendLoginFailed(ctx, user, methodName)
	if err != nil {
		// Mail is best-effort and must not change the outcome of the attempt.
		log.Print("goMFA: failed login notification mail errored")
		e.metricInc(MetricMailSkipped)
		return
	}
	if sent > 0 {
		e.metricInc(MetricMailSent)
		e.emitAudit(ctx, auditEventMailSent, true, user.UserID, methodName, sessionID, nil, nil)
		return
	}
	e.metricInc(MetricMailSkipped)
}
