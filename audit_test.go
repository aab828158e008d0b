package goMFA

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	engine, _ := newFlowEngine(t, func(c *Config) {
		c.Audit.Enabled = false
	}, func(b *Builder) {
		b.WithAuditSink(sink)
	})

	if _, err := engine.CompleteLogin(context.Background(), "s1", flowUsers["u1"], "/home"); err != nil {
		t.Fatalf("CompleteLogin failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
	if dropped := engine.AuditDroppedByEvent(); len(dropped) != 0 {
		t.Fatalf("expected no drop accounting when audit is disabled, got %v", dropped)
	}
}

func TestAuditEnabledSinkReceivesEventWithFields(t *testing.T) {
	sink := NewChannelSink(8)
	engine, _ := newFlowEngine(t, func(c *Config) {
		c.Audit.Enabled = true
		c.Audit.BufferSize = 16
		c.Audit.DropIfFull = true
	}, func(b *Builder) {
		b.WithAuditSink(sink)
	})

	ctx := WithClientIP(context.Background(), "198.51.100.33")
	if _, err := engine.CompleteLogin(ctx, "s1", flowUsers["u1"], "/home"); err != nil {
		t.Fatalf("CompleteLogin failed: %v", err)
	}

	select {
	case ev := <-sink.Events():
		if ev.EventType != auditEventLoginDirect {
			t.Fatalf("expected %q, got %q", auditEventLoginDirect, ev.EventType)
		}
		if ev.IP != "198.51.100.33" {
			t.Fatalf("expected IP 198.51.100.33, got %q", ev.IP)
		}
		if ev.UserID != "u1" || ev.SessionID != "s1" {
			t.Fatalf("unexpected identity fields: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected audit event to be received")
	}
}

func TestAuditBufferFullDropIfFullTrueDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	start := time.Now()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}

	byEvent := dispatcher.DroppedByEvent()
	var total uint64
	for _, n := range byEvent {
		total += n
	}
	if total != dispatcher.Dropped() {
		t.Fatalf("per-event drop counts %v do not add up to %d", byEvent, dispatcher.Dropped())
	}
	if byEvent["e3"] == 0 {
		t.Fatalf("expected the dropped event type to be accounted, got %v", byEvent)
	}
}

func TestAuditBufferFullDropIfFullFalseBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestAuditJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: auditEventAuthSuccess,
		UserID:    "u1",
		Method:    MethodTOTP,
		IP:        "127.0.0.1",
		Success:   true,
	}
	sink.Emit(context.Background(), event)

	if !buf.Contains("auth_success") {
		t.Fatal("expected JSON log line to contain event type")
	}
	if !buf.Contains("\"user_id\":\"u1\"") {
		t.Fatal("expected JSON log line to contain user id")
	}

	var decoded AuditEvent
	if err := json.Unmarshal([]byte(buf.String()), &decoded); err != nil {
		t.Fatalf("expected a parseable JSON line: %v", err)
	}
}

func TestAuditDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, &countingSink{})

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Close()
	dispatcher.Close()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})
}

func TestAuditNoSecretsInEvents(t *testing.T) {
	sink := NewChannelSink(32)
	engine, _ := newFlowEngine(t, func(c *Config) {
		c.Audit.Enabled = true
		c.Audit.BufferSize = 32
		c.Audit.DropIfFull = false
	}, func(b *Builder) {
		b.WithAuditSink(sink)
	})
	ctx := context.Background()

	secret := registerTOTPKey(t, engine, "s1")
	beginMFALogin(t, engine, "s1", "/home")
	if _, err := engine.BeginAuthenticate(ctx, "s1", MethodTOTP); err != nil {
		t.Fatalf("BeginAuthenticate failed: %v", err)
	}
	code := totpCodeFor(t, secret, flowTestConfig().TOTP)
	if _, err := engine.CompleteAuthenticate(ctx, "s1", MethodTOTP, code); err != nil {
		t.Fatalf("CompleteAuthenticate failed: %v", err)
	}

	events := make([]AuditEvent, 0, 8)
	timeout := time.After(2 * time.Second)
collectLoop:
	for len(events) < 8 {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			break collectLoop
		}
	}
	if len(events) == 0 {
		t.Fatal("expected at least one audit event")
	}

	// Neither the shared secret nor a valid code may ever reach the stream.
	for _, ev := range events {
		for _, needle := range []string{secret, code} {
			if strings.Contains(ev.Error, needle) {
				t.Fatalf("sensitive value leaked in audit error field")
			}
			for k, v := range ev.Metadata {
				if strings.Contains(k, needle) || strings.Contains(v, needle) {
					t.Fatalf("sensitive value leaked in audit metadata")
				}
			}
		}
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

func (b *syncBuffer) Contains(v string) bool {
	return strings.Contains(b.String(), v)
}
