package goMFA

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BeginRegister describes the beginregister operation and its observable behavior.
//
// BeginRegister may return an error when input validation, dependency calls, or security checks fail.
// BeginRegister does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// BeginRegister issues a fresh registration challenge, replacing any
// challenge a previous call left in the session. The returned public data is
// what the enrollment page renders; the private state stays server-side.
func (e *Engine) BeginRegister(ctx context.Context, sessionID, methodName string, user UserRecord) (*ChallengeData, error) {
	if e == nil || e.registry == nil {
		return nil, ErrEngineNotReady
	}

	method, err := e.registry.get(methodName)
	if err != nil {
		return nil, err
	}

	public, state, err := method.RegisterBegin(ctx, user)
	if err != nil {
		return nil, err
	}

	record := &challengeRecord{
		Method: methodName,
		Public: public,
		State:  state,
	}
	if err := e.challenges.Save(ctx, sessionID, flowRegister, record); err != nil {
		return nil, err
	}

	e.metricInc(MetricRegisterChallengeIssued)
	e.emitAudit(ctx, auditEventRegisterChallenge, true, user.UserID, methodName, sessionID, nil, nil)

	return &ChallengeData{Method: methodName, Public: public}, nil
}

// HeldRegisterChallenge describes the heldregisterchallenge operation and its observable behavior.
//
// HeldRegisterChallenge may return an error when input validation, dependency calls, or security checks fail.
// HeldRegisterChallenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// HeldRegisterChallenge returns the registration challenge currently held in
// the session, so a page re-rendered after a failed attempt shows the same
// challenge the user was answering. ErrChallengeNotFound means the caller
// should go through BeginRegister.
func (e *Engine) HeldRegisterChallenge(ctx context.Context, sessionID, methodName string) (*ChallengeData, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	record, err := e.challenges.Get(ctx, sessionID, flowRegister)
	if err != nil {
		return nil, err
	}
	if record.Method != methodName {
		return nil, ErrChallengeNotFound
	}
	return &ChallengeData{Method: record.Method, Public: record.Public}, nil
}

// CompleteRegister describes the completeregister operation and its observable behavior.
//
// CompleteRegister may return an error when input validation, dependency calls, or security checks fail.
// CompleteRegister does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// CompleteRegister verifies the client response against the held challenge
// and persists the resulting key. The per-account key limit is checked before
// any verification work. On ErrValidationFailed the challenge is kept so the
// user can retry against the same one.
func (e *Engine) CompleteRegister(ctx context.Context, sessionID string, user UserRecord, methodName, name, response string) (*Key, error) {
	if e == nil || e.registry == nil {
		return nil, ErrEngineNotReady
	}

	if e.config.Keys.MaxPerAccount > 0 {
		existing, err := e.keys.List(ctx, user.UserID, "")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyStoreUnavailable, err)
		}
		if len(existing) >= e.config.Keys.MaxPerAccount {
			e.metricInc(MetricRegisterLimitExceeded)
			e.emitAudit(ctx, auditEventRegisterLimitExceeded, false, user.UserID, methodName, sessionID, ErrKeyLimitExceeded, nil)
			return nil, ErrKeyLimitExceeded
		}
	}

	method, err := e.registry.get(methodName)
	if err != nil {
		return nil, err
	}

	record, err := e.challenges.Get(ctx, sessionID, flowRegister)
	if err != nil {
		return nil, err
	}
	if record.Method != methodName {
		return nil, ErrChallengeNotFound
	}

	secret, err := method.RegisterComplete(ctx, record.State, response)
	if err != nil {
		if errors.Is(err, ErrValidationFailed) {
			e.metricInc(MetricRegisterFailure)
			e.emitAudit(ctx, auditEventRegisterFailure, false, user.UserID, methodName, sessionID, err, nil)
		}
		return nil, err
	}

	key := Key{
		ID:        uuid.NewString(),
		UserID:    user.UserID,
		Method:    methodName,
		Name:      name,
		Secret:    secret,
		CreatedAt: time.Now().Unix(),
	}
	created, err := e.keys.Create(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyStoreUnavailable, err)
	}

	// Consume the challenge only once the key exists.
	if err := e.challenges.Delete(ctx, sessionID, flowRegister); err != nil {
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.metricInc(MetricKeyCreated)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.UserID, methodName, sessionID, nil, func() map[string]string {
		return map[string]string{
			"key_id": created.ID,
		}
	})

	return &created, nil
}
