package goMFA

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// fido2StoredUser is the user snapshot the FIDO2 method serializes into the
// challenge state. Regeneration between Begin and Complete would change the
// snapshot, so Complete always verifies against the snapshot taken at Begin.
type fido2StoredUser struct {
	ID          []byte                `json:"id"`
	Name        string                `json:"name"`
	DisplayName string                `json:"display_name"`
	Credentials []webauthn.Credential `json:"credentials"`
}

func (u fido2StoredUser) WebAuthnID() []byte                         { return u.ID }
func (u fido2StoredUser) WebAuthnName() string                       { return u.Name }
func (u fido2StoredUser) WebAuthnDisplayName() string                { return u.DisplayName }
func (u fido2StoredUser) WebAuthnCredentials() []webauthn.Credential { return u.Credentials }

// fido2State is the private half of a FIDO2 challenge: the library's ceremony
// session plus the user snapshot it was issued against.
type fido2State struct {
	Session webauthn.SessionData `json:"session"`
	User    fido2StoredUser      `json:"user"`
}

type fido2Method struct {
	wa   *webauthn.WebAuthn
	keys KeyStore
}

func newFIDO2Method(rp RelyingPartyConfig, keys KeyStore) (*fido2Method, error) {
	origins := []string{"https://" + rp.Domain}
	if rp.AllowInsecureLocalhost && localhostFamily(rp.Domain) {
		origins = append(origins, "http://"+rp.Domain)
	}
	wa, err := webauthn.New(&webauthn.Config{
		RPID:                  rp.Domain,
		RPDisplayName:         rp.Title,
		RPOrigins:             origins,
		AttestationPreference: protocol.PreferNoAttestation,
		AuthenticatorSelection: protocol.AuthenticatorSelection{
			UserVerification: protocol.UserVerificationRequirement(rp.UserVerification),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("webauthn setup: %w", err)
	}
	return &fido2Method{wa: wa, keys: keys}, nil
}

func (m *fido2Method) Name() string { return MethodFIDO2 }

func (m *fido2Method) RegisterBegin(ctx context.Context, user UserRecord) ([]byte, []byte, error) {
	stored, err := m.storedUser(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	exclusions := make([]protocol.CredentialDescriptor, 0, len(stored.Credentials))
	for _, cred := range stored.Credentials {
		exclusions = append(exclusions, cred.Descriptor())
	}

	creation, session, err := m.wa.BeginRegistration(stored, webauthn.WithExclusions(exclusions))
	if err != nil {
		return nil, nil, fmt.Errorf("begin registration: %w", err)
	}
	return m.encode(creation, session, stored)
}

func (m *fido2Method) RegisterComplete(_ context.Context, state []byte, response string) (string, error) {
	st, err := decodeFIDO2State(state)
	if err != nil {
		return "", err
	}
	parsed, err := protocol.ParseCredentialCreationResponseBody(strings.NewReader(response))
	if err != nil {
		return "", ErrValidationFailed
	}
	credential, err := m.wa.CreateCredential(st.User, st.Session, parsed)
	if err != nil {
		return "", ErrValidationFailed
	}
	secret, err := json.Marshal(credential)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

func (m *fido2Method) AuthenticateBegin(ctx context.Context, user UserRecord) ([]byte, []byte, error) {
	stored, err := m.storedUser(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	assertion, session, err := m.wa.BeginLogin(stored)
	if err != nil {
		return nil, nil, fmt.Errorf("begin login: %w", err)
	}
	return m.encode(assertion, session, stored)
}

func (m *fido2Method) AuthenticateComplete(_ context.Context, state []byte, _ UserRecord, response string) error {
	st, err := decodeFIDO2State(state)
	if err != nil {
		return err
	}
	parsed, err := protocol.ParseCredentialRequestResponseBody(strings.NewReader(response))
	if err != nil {
		return ErrValidationFailed
	}
	// The library checks the sign counter within this ceremony. The updated
	// counter is not written back; clone detection across ceremonies is the
	// host's concern if it wants it.
	if _, err := m.wa.ValidateLogin(st.User, st.Session, parsed); err != nil {
		return ErrValidationFailed
	}
	return nil
}

// storedUser assembles the snapshot from the user record and the key store.
// Secrets that fail to decode are skipped rather than failing the ceremony.
func (m *fido2Method) storedUser(ctx context.Context, user UserRecord) (fido2StoredUser, error) {
	keys, err := m.keys.List(ctx, user.UserID, MethodFIDO2)
	if err != nil {
		return fido2StoredUser{}, fmt.Errorf("%w: %v", ErrKeyStoreUnavailable, err)
	}

	credentials := make([]webauthn.Credential, 0, len(keys))
	for _, key := range keys {
		var cred webauthn.Credential
		if err := json.Unmarshal([]byte(key.Secret), &cred); err != nil {
			continue
		}
		credentials = append(credentials, cred)
	}

	name := user.Username
	if name == "" {
		name = user.UserID
	}
	displayName := user.DisplayName
	if displayName == "" {
		displayName = name
	}
	return fido2StoredUser{
		ID:          []byte(user.UserID),
		Name:        name,
		DisplayName: displayName,
		Credentials: credentials,
	}, nil
}

func (m *fido2Method) encode(public any, session *webauthn.SessionData, stored fido2StoredUser) ([]byte, []byte, error) {
	publicJSON, err := json.Marshal(public)
	if err != nil {
		return nil, nil, err
	}
	stateJSON, err := json.Marshal(fido2State{Session: *session, User: stored})
	if err != nil {
		return nil, nil, err
	}
	return publicJSON, stateJSON, nil
}

func decodeFIDO2State(state []byte) (fido2State, error) {
	var st fido2State
	if err := json.Unmarshal(state, &st); err != nil {
		return fido2State{}, fmt.Errorf("%w: corrupt state", ErrChallengeNotFound)
	}
	return st, nil
}

// localhostFamily reports whether domain resolves to the local machine by
// name alone: localhost, *.localhost and the loopback literals.
func localhostFamily(domain string) bool {
	return domain == "localhost" ||
		strings.HasSuffix(domain, ".localhost") ||
		domain == "127.0.0.1" ||
		domain == "::1"
}
