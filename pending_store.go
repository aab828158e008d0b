package goMFA

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
)

const (
	pendingRecordVersion1 = 1
	pendingField          = "pending"
)

// pendingLogin marks a user whose password was verified but whose MFA step is
// still outstanding. It exists only between those two events; absence means
// the authenticate flow has no subject.
type pendingLogin struct {
	UserID     string
	Backend    string
	SuccessURL string
}

type pendingStore struct {
	sessions SessionStore
}

func newPendingStore(sessions SessionStore) *pendingStore {
	return &pendingStore{sessions: sessions}
}

func (s *pendingStore) Save(ctx context.Context, sessionID string, record *pendingLogin) error {
	encoded, err := encodePendingLogin(record)
	if err != nil {
		return err
	}
	return s.sessions.Set(ctx, sessionID, pendingField, encoded)
}

func (s *pendingStore) Get(ctx context.Context, sessionID string) (*pendingLogin, error) {
	data, err := s.sessions.Get(ctx, sessionID, pendingField)
	if err != nil {
		if errors.Is(err, ErrSessionValueNotFound) {
			return nil, ErrPendingLoginNotFound
		}
		return nil, err
	}
	return decodePendingLogin(data)
}

func (s *pendingStore) Pop(ctx context.Context, sessionID string) (*pendingLogin, error) {
	data, err := s.sessions.Pop(ctx, sessionID, pendingField)
	if err != nil {
		if errors.Is(err, ErrSessionValueNotFound) {
			return nil, ErrPendingLoginNotFound
		}
		return nil, err
	}
	return decodePendingLogin(data)
}

func (s *pendingStore) Delete(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID, pendingField)
}

func encodePendingLogin(record *pendingLogin) ([]byte, error) {
	if len(record.UserID) > 65535 || len(record.Backend) > 65535 || len(record.SuccessURL) > 65535 {
		return nil, errors.New("pending login field length exceeded")
	}

	var buf bytes.Buffer
	buf.WriteByte(pendingRecordVersion1)

	for _, field := range []string{record.UserID, record.Backend, record.SuccessURL} {
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodePendingLogin(data []byte) (*pendingLogin, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != pendingRecordVersion1 {
		return nil, errors.New("invalid pending login record version")
	}

	fields := make([]string, 3)
	for i := range fields {
		var length uint16
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, err
		}
		fields[i] = string(raw)
	}

	return &pendingLogin{
		UserID:     fields[0],
		Backend:    fields[1],
		SuccessURL: fields[2],
	}, nil
}
