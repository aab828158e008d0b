package goMFA

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPPublicData is the client-facing payload of a TOTP registration
// challenge. QRCode is only populated when a [QRRenderer] is configured.
type TOTPPublicData struct {
	URL    string `json:"url"`
	Secret string `json:"secret"`
	QRCode string `json:"qrcode,omitempty"`
}

type totpMethod struct {
	cfg    TOTPConfig
	issuer string
	keys   KeyStore
	qr     QRRenderer
}

func newTOTPMethod(cfg TOTPConfig, issuer string, keys KeyStore, qr QRRenderer) *totpMethod {
	return &totpMethod{
		cfg:    cfg,
		issuer: issuer,
		keys:   keys,
		qr:     qr,
	}
}

func (m *totpMethod) Name() string { return MethodTOTP }

func (m *totpMethod) RegisterBegin(ctx context.Context, user UserRecord) ([]byte, []byte, error) {
	account := user.Username
	if account == "" {
		account = user.UserID
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      m.issuer,
		AccountName: account,
		SecretSize:  uint(m.cfg.SecretSize),
		Digits:      otp.Digits(m.cfg.Digits),
		Period:      uint(m.cfg.Period),
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("totp secret generation: %w", err)
	}

	data := TOTPPublicData{
		URL:    key.URL(),
		Secret: key.Secret(),
	}
	if m.qr != nil {
		if rendered, qerr := m.qr.Render(key.URL()); qerr == nil {
			data.QRCode = rendered
		}
	}

	public, err := json.Marshal(data)
	if err != nil {
		return nil, nil, err
	}
	return public, []byte(key.Secret()), nil
}

func (m *totpMethod) RegisterComplete(_ context.Context, state []byte, response string) (string, error) {
	secret := string(state)
	if !m.validate(response, secret) {
		return "", ErrValidationFailed
	}
	return secret, nil
}

func (m *totpMethod) AuthenticateBegin(context.Context, UserRecord) ([]byte, []byte, error) {
	// Code entry alone suffices; there is no challenge to send.
	return nil, nil, nil
}

func (m *totpMethod) AuthenticateComplete(ctx context.Context, _ []byte, user UserRecord, response string) error {
	keys, err := m.keys.List(ctx, user.UserID, MethodTOTP)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyStoreUnavailable, err)
	}

	replayed := false
	for _, key := range keys {
		if !m.validate(response, key.Secret) {
			continue
		}
		// A code equal to the last accepted one is a replay inside the
		// validity window, never a success.
		if response == key.LastCode {
			replayed = true
			continue
		}
		if err := m.keys.UpdateLastCode(ctx, key.ID, response); err != nil {
			return fmt.Errorf("%w: %v", ErrKeyStoreUnavailable, err)
		}
		return nil
	}
	if replayed {
		return ErrReplayDetected
	}
	return ErrValidationFailed
}

func (m *totpMethod) validate(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    uint(m.cfg.Period),
		Skew:      uint(m.cfg.Window),
		Digits:    otp.Digits(m.cfg.Digits),
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
