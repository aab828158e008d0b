package internaldefs

import (
	goMFA "github.com/MrEthical07/goMFA"
)

// CounterDef defines a public type used by goMFA APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goMFA.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goMFA APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goMFA.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the MFA engine.
var CounterDefs = []CounterDef{
	{ID: goMFA.MetricLoginDirect, Name: "gomfa_login_direct_total", Help: "Password logins completed without an MFA step."},
	{ID: goMFA.MetricLoginMFARequired, Name: "gomfa_login_mfa_required_total", Help: "Password logins routed into an MFA step."},
	{ID: goMFA.MetricRegisterChallengeIssued, Name: "gomfa_register_challenge_issued_total", Help: "Issued registration challenges."},
	{ID: goMFA.MetricRegisterSuccess, Name: "gomfa_register_success_total", Help: "Successful key registrations."},
	{ID: goMFA.MetricRegisterFailure, Name: "gomfa_register_failure_total", Help: "Failed key registration attempts."},
	{ID: goMFA.MetricRegisterLimitExceeded, Name: "gomfa_register_limit_exceeded_total", Help: "Registrations rejected by the per-account key limit."},
	{ID: goMFA.MetricAuthChallengeIssued, Name: "gomfa_auth_challenge_issued_total", Help: "Issued authentication challenges."},
	{ID: goMFA.MetricAuthSuccess, Name: "gomfa_auth_success_total", Help: "Successful MFA authentications."},
	{ID: goMFA.MetricAuthFailure, Name: "gomfa_auth_failure_total", Help: "Failed MFA authentication attempts."},
	{ID: goMFA.MetricAuthReplayBlocked, Name: "gomfa_auth_replay_blocked_total", Help: "Authentications blocked by code replay protection."},
	{ID: goMFA.MetricRecoveryKeyConsumed, Name: "gomfa_recovery_key_consumed_total", Help: "Recovery codes consumed by authentication."},
	{ID: goMFA.MetricKeyCreated, Name: "gomfa_key_created_total", Help: "Created MFA keys."},
	{ID: goMFA.MetricKeyDeleted, Name: "gomfa_key_deleted_total", Help: "Deleted MFA keys."},
	{ID: goMFA.MetricMailSent, Name: "gomfa_failure_mail_sent_total", Help: "Failed-login notification mails sent."},
	{ID: goMFA.MetricMailSkipped, Name: "gomfa_failure_mail_skipped_total", Help: "Failed-login notifications skipped (no address or mailer)."},
}

// HistogramDefs is an exported constant or variable used by the MFA engine.
var HistogramDefs = []HistogramDef{
	{ID: goMFA.MetricVerifyLatency, Name: "gomfa_verify_latency_seconds", Help: "Verification latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the MFA engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the MFA engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
