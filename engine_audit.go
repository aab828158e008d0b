package goMFA

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginDirect            = "login_direct"
	auditEventLoginMFARequired       = "login_mfa_required"
	auditEventRegisterChallenge      = "register_challenge_issued"
	auditEventRegisterSuccess        = "register_success"
	auditEventRegisterFailure        = "register_failure"
	auditEventRegisterLimitExceeded  = "register_limit_exceeded"
	auditEventAuthChallenge          = "auth_challenge_issued"
	auditEventAuthSuccess            = "auth_success"
	auditEventAuthFailure            = "auth_failure"
	auditEventRecoveryKeyConsumed    = "recovery_key_consumed"
	auditEventKeyDeleted             = "key_deleted"
	auditEventMailSent               = "failure_mail_sent"
	auditEventInsecureOriginsEnabled = "insecure_origins_enabled"
)

// AuditErrorCode defines a public type used by goMFA APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrUserNotFound      AuditErrorCode = "user_not_found"
	auditErrMethodNotFound    AuditErrorCode = "method_not_found"
	auditErrChallengeNotFound AuditErrorCode = "challenge_not_found"
	auditErrPendingNotFound   AuditErrorCode = "pending_login_not_found"
	auditErrValidationFailed  AuditErrorCode = "validation_failed"
	auditErrCodeReplayed      AuditErrorCode = "code_replayed"
	auditErrKeyNotFound       AuditErrorCode = "key_not_found"
	auditErrKeyLimitExceeded  AuditErrorCode = "key_limit_exceeded"
	auditErrUnavailable       AuditErrorCode = "backend_unavailable"
	auditErrInternal          AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	method string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Method:    method,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrMethodNotFound):
		return auditErrMethodNotFound
	case errors.Is(err, ErrChallengeNotFound):
		return auditErrChallengeNotFound
	case errors.Is(err, ErrPendingLoginNotFound):
		return auditErrPendingNotFound
	case errors.Is(err, ErrReplayDetected):
		return auditErrCodeReplayed
	case errors.Is(err, ErrValidationFailed):
		return auditErrValidationFailed
	case errors.Is(err, ErrKeyNotFound):
		return auditErrKeyNotFound
	case errors.Is(err, ErrKeyLimitExceeded):
		return auditErrKeyLimitExceeded
	case errors.Is(err, ErrSessionUnavailable),
		errors.Is(err, ErrKeyStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
