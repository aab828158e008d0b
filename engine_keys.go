package goMFA

import (
	"context"
	"errors"
	"fmt"
)

// ListKeys describes the listkeys operation and its observable behavior.
//
// ListKeys may return an error when input validation, dependency calls, or security checks fail.
// ListKeys does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ListKeys(ctx context.Context, userID string) (*KeyList, error) {
	if e == nil || e.keys == nil {
		return nil, ErrEngineNotReady
	}
	keys, err := e.keys.List(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyStoreUnavailable, err)
	}
	return &KeyList{
		Keys:    keys,
		MaxKeys: e.config.Keys.MaxPerAccount,
	}, nil
}

// DeleteKey describes the deletekey operation and its observable behavior.
//
// DeleteKey may return an error when input validation, dependency calls, or security checks fail.
// DeleteKey does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// DeleteKey removes one of the user's keys. Keys belonging to other users are
// indistinguishable from unknown IDs: both return ErrKeyNotFound.
func (e *Engine) DeleteKey(ctx context.Context, userID, keyID string) error {
	if e == nil || e.keys == nil {
		return ErrEngineNotReady
	}
	if err := e.keys.Delete(ctx, userID, keyID); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("%w: %v", ErrKeyStoreUnavailable, err)
	}
	e.metricInc(MetricKeyDeleted)
	e.emitAudit(ctx, auditEventKeyDeleted, true, userID, "", "", nil, func() map[string]string {
		return map[string]string{
			"key_id": keyID,
		}
	})
	return nil
}
