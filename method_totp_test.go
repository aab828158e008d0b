package goMFA

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

type staticQR struct{ out string }

func (q staticQR) Render(string) (string, error) { return q.out, nil }

func newTestTOTP(keys KeyStore, qr QRRenderer) *totpMethod {
	cfg := flowTestConfig().TOTP
	return newTOTPMethod(cfg, "Example", keys, qr)
}

func TestTOTPRegisterBeginURL(t *testing.T) {
	m := newTestTOTP(newTestKeyStore(), staticQR{out: "data:image/png;base64,xxxx"})

	public, state, err := m.RegisterBegin(context.Background(), UserRecord{UserID: "u1", Username: "alice"})
	if err != nil {
		t.Fatalf("RegisterBegin failed: %v", err)
	}

	var data TOTPPublicData
	if err := json.Unmarshal(public, &data); err != nil {
		t.Fatalf("decode public data: %v", err)
	}
	if !strings.HasPrefix(data.URL, "otpauth://totp/") {
		t.Fatalf("unexpected provisioning URL %q", data.URL)
	}
	if !strings.Contains(data.URL, "alice") || !strings.Contains(data.URL, "Example") {
		t.Fatalf("URL must carry account and issuer, got %q", data.URL)
	}
	if data.Secret == "" || string(state) != data.Secret {
		t.Fatal("state must carry the generated secret")
	}
	if data.QRCode != "data:image/png;base64,xxxx" {
		t.Fatalf("expected rendered QR code, got %q", data.QRCode)
	}
}

func TestTOTPRegisterBeginFallsBackToUserID(t *testing.T) {
	m := newTestTOTP(newTestKeyStore(), nil)

	public, _, err := m.RegisterBegin(context.Background(), UserRecord{UserID: "u1"})
	if err != nil {
		t.Fatalf("RegisterBegin failed: %v", err)
	}
	var data TOTPPublicData
	if err := json.Unmarshal(public, &data); err != nil {
		t.Fatalf("decode public data: %v", err)
	}
	if !strings.Contains(data.URL, "u1") {
		t.Fatalf("expected user ID as account name, got %q", data.URL)
	}
	if data.QRCode != "" {
		t.Fatal("no renderer, no QR code")
	}
}

func TestTOTPWindowTolerance(t *testing.T) {
	keys := newTestKeyStore()
	m := newTestTOTP(keys, nil)
	ctx := context.Background()

	public, _, err := m.RegisterBegin(ctx, UserRecord{UserID: "u1"})
	if err != nil {
		t.Fatalf("RegisterBegin failed: %v", err)
	}
	var data TOTPPublicData
	if err := json.Unmarshal(public, &data); err != nil {
		t.Fatalf("decode public data: %v", err)
	}

	cfg := flowTestConfig().TOTP
	previous, err := totp.GenerateCodeCustom(data.Secret, time.Now().UTC().Add(-time.Duration(cfg.Period)*time.Second), totp.ValidateOpts{
		Period:    uint(cfg.Period),
		Digits:    otp.Digits(cfg.Digits),
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		t.Fatalf("GenerateCodeCustom failed: %v", err)
	}

	// Window 1 accepts the previous step's code.
	if !m.validate(previous, data.Secret) {
		t.Fatal("expected previous-step code to validate with Window=1")
	}

	strict := newTOTPMethod(TOTPConfig{Digits: cfg.Digits, Period: cfg.Period, SecretSize: cfg.SecretSize, Window: 0}, "Example", keys, nil)
	current, err := totp.GenerateCodeCustom(data.Secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    uint(cfg.Period),
		Digits:    otp.Digits(cfg.Digits),
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		t.Fatalf("GenerateCodeCustom failed: %v", err)
	}
	if !strict.validate(current, data.Secret) {
		t.Fatal("expected current code to validate with Window=0")
	}
}

func TestTOTPAuthenticateAdvancesReplayGuard(t *testing.T) {
	keys := newTestKeyStore()
	m := newTestTOTP(keys, nil)
	ctx := context.Background()

	public, _, err := m.RegisterBegin(ctx, UserRecord{UserID: "u1"})
	if err != nil {
		t.Fatalf("RegisterBegin failed: %v", err)
	}
	var data TOTPPublicData
	if err := json.Unmarshal(public, &data); err != nil {
		t.Fatalf("decode public data: %v", err)
	}
	if _, err := keys.Create(ctx, Key{UserID: "u1", Method: MethodTOTP, Secret: data.Secret}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	code := totpCodeFor(t, data.Secret, flowTestConfig().TOTP)
	user := UserRecord{UserID: "u1"}
	if err := m.AuthenticateComplete(ctx, nil, user, code); err != nil {
		t.Fatalf("AuthenticateComplete failed: %v", err)
	}

	stored, err := keys.List(ctx, "u1", MethodTOTP)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(stored) != 1 || stored[0].LastCode != code {
		t.Fatalf("expected replay guard %q, got %+v", code, stored)
	}

	if err := m.AuthenticateComplete(ctx, nil, user, code); !errors.Is(err, ErrReplayDetected) {
		t.Fatalf("expected replay to fail, got %v", err)
	}
}

func TestTOTPAuthenticateNoKeys(t *testing.T) {
	m := newTestTOTP(newTestKeyStore(), nil)

	if err := m.AuthenticateComplete(context.Background(), nil, UserRecord{UserID: "u1"}, "123456"); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
}
