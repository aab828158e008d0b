package goMFA

// Engine defines a public type used by goMFA APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config     Config
	registry   *methodRegistry
	sessions   SessionStore
	challenges *challengeStore
	pending    *pendingStore
	keys       KeyStore
	users      UserDirectory
	mailer     Mailer
	audit      *auditDispatcher
	metrics    *Metrics
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Methods describes the methods operation and its observable behavior.
//
// Methods may return an error when input validation, dependency calls, or security checks fail.
// Methods does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Methods() []string {
	if e == nil || e.registry == nil {
		return nil
	}
	return append([]string(nil), e.registry.names()...)
}

// ListURL describes the listurl operation and its observable behavior.
//
// ListURL may return an error when input validation, dependency calls, or security checks fail.
// ListURL does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ListURL() string {
	if e == nil {
		return ""
	}
	return e.config.Routes.ListURL
}

// AuthURLPrefix describes the authurlprefix operation and its observable behavior.
//
// AuthURLPrefix may return an error when input validation, dependency calls, or security checks fail.
// AuthURLPrefix does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuthURLPrefix() string {
	if e == nil {
		return ""
	}
	return e.config.Routes.AuthURLPrefix
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditDroppedByEvent describes the auditdroppedbyevent operation and its observable behavior.
//
// AuditDroppedByEvent may return an error when input validation, dependency calls, or security checks fail.
// AuditDroppedByEvent does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDroppedByEvent() map[string]uint64 {
	if e == nil || e.audit == nil {
		return map[string]uint64{}
	}
	return e.audit.DroppedByEvent()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
