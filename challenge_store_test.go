package goMFA

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestChallengeRecordCodecRoundTrip(t *testing.T) {
	record := &challengeRecord{
		Method: MethodFIDO2,
		Public: []byte(`{"publicKey":{}}`),
		State:  []byte{0x00, 0x01, 0xff},
	}

	data, err := encodeChallengeRecord(record)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := decodeChallengeRecord(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if decoded.Method != record.Method {
		t.Fatalf("method mismatch: %q", decoded.Method)
	}
	if !bytes.Equal(decoded.Public, record.Public) || !bytes.Equal(decoded.State, record.State) {
		t.Fatal("payload mismatch after round trip")
	}
}

func TestChallengeRecordCodecEmptyPayloads(t *testing.T) {
	record := &challengeRecord{Method: MethodTOTP}

	data, err := encodeChallengeRecord(record)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := decodeChallengeRecord(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded.Public) != 0 || len(decoded.State) != 0 {
		t.Fatal("expected empty payloads")
	}
}

func TestChallengeRecordCodecRejectsGarbage(t *testing.T) {
	for _, data := range [][]byte{nil, {}, {0xff}, {0x02, 0x01, 'a'}} {
		if _, err := decodeChallengeRecord(data); err == nil {
			t.Errorf("expected decode error for %v", data)
		}
	}
}

func TestChallengeStoreFlowsAreIndependent(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := newChallengeStore(NewRedisSessionStore(rdb, "mfa", time.Minute))
	ctx := context.Background()

	if err := store.Save(ctx, "s1", flowRegister, &challengeRecord{Method: MethodTOTP}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := store.Get(ctx, "s1", flowAuthenticate); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound for the other flow, got %v", err)
	}

	record, err := store.Get(ctx, "s1", flowRegister)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Method != MethodTOTP {
		t.Fatalf("unexpected record %+v", record)
	}

	if err := store.Delete(ctx, "s1", flowRegister); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "s1", flowRegister); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound after delete, got %v", err)
	}
}

func TestPendingLoginCodecRoundTrip(t *testing.T) {
	record := &pendingLogin{
		UserID:     "u1",
		Backend:    "model",
		SuccessURL: "/home",
	}

	data, err := encodePendingLogin(record)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := decodePendingLogin(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if *decoded != *record {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestPendingStorePopConsumesMarker(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := newPendingStore(NewRedisSessionStore(rdb, "mfa", time.Minute))
	ctx := context.Background()

	if err := store.Save(ctx, "s1", &pendingLogin{UserID: "u1", Backend: "model", SuccessURL: "/home"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	marker, err := store.Pop(ctx, "s1")
	if err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if marker.UserID != "u1" {
		t.Fatalf("unexpected marker %+v", marker)
	}

	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrPendingLoginNotFound) {
		t.Fatalf("expected consumed marker, got %v", err)
	}
}
