package goMFA

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/MrEthical07/goMFA/codehash"
)

// RecoveryPublicData carries the plaintext recovery code. It is exposed
// exactly once, at registration; only the salted hash survives it.
type RecoveryPublicData struct {
	Code string `json:"code"`
}

type recoveryMethod struct {
	cfg  RecoveryConfig
	keys KeyStore
}

func newRecoveryMethod(cfg RecoveryConfig, keys KeyStore) *recoveryMethod {
	return &recoveryMethod{
		cfg:  cfg,
		keys: keys,
	}
}

func (m *recoveryMethod) Name() string { return MethodRecovery }

func (m *recoveryMethod) RegisterBegin(_ context.Context, _ UserRecord) ([]byte, []byte, error) {
	// The TOTP machinery is only a convenient uniform-digit generator here;
	// the throwaway secret never leaves this function.
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "recovery",
		AccountName: "recovery",
		SecretSize:  20,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("recovery code generation: %w", err)
	}

	code, err := totp.GenerateCodeCustom(key.Secret(), time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Digits:    otp.Digits(m.cfg.Digits),
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("recovery code generation: %w", err)
	}
	formatted := formatRecoveryCode(code)

	hash, err := codehash.Hash(formatted)
	if err != nil {
		return nil, nil, err
	}

	public, err := json.Marshal(RecoveryPublicData{Code: formatted})
	if err != nil {
		return nil, nil, err
	}
	return public, []byte(hash), nil
}

func (m *recoveryMethod) RegisterComplete(_ context.Context, state []byte, response string) (string, error) {
	ok, err := codehash.Verify(response, string(state))
	if err != nil || !ok {
		return "", ErrValidationFailed
	}
	return string(state), nil
}

func (m *recoveryMethod) AuthenticateBegin(context.Context, UserRecord) ([]byte, []byte, error) {
	return nil, nil, nil
}

func (m *recoveryMethod) AuthenticateComplete(ctx context.Context, _ []byte, user UserRecord, response string) error {
	keys, err := m.keys.List(ctx, user.UserID, MethodRecovery)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyStoreUnavailable, err)
	}

	for _, key := range keys {
		ok, verr := codehash.Verify(response, key.Secret)
		if verr != nil || !ok {
			continue
		}
		// Single use: the matched key is gone the moment it verifies.
		if err := m.keys.Delete(ctx, user.UserID, key.ID); err != nil {
			return fmt.Errorf("%w: %v", ErrKeyStoreUnavailable, err)
		}
		return nil
	}
	return ErrValidationFailed
}

// formatRecoveryCode splits a numeric code into two groups joined by a dash,
// e.g. "1234567890" -> "12345-67890". The user types it with the dash.
func formatRecoveryCode(code string) string {
	half := (len(code) + 1) / 2
	if half >= len(code) {
		return code
	}
	return code[:half] + "-" + code[half:]
}
