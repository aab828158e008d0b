package goMFA

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
)

const (
	challengeRecordVersion1 = 1

	flowRegister     = "register"
	flowAuthenticate = "authenticate"
)

// challengeRecord is the atomic (public data, private state) pair for one
// in-flight begin/complete cycle. The method name is stored alongside so a
// complete step for a different method reads as "no challenge" rather than
// verifying against foreign state.
type challengeRecord struct {
	Method string
	Public []byte
	State  []byte
}

type challengeStore struct {
	sessions SessionStore
}

func newChallengeStore(sessions SessionStore) *challengeStore {
	return &challengeStore{sessions: sessions}
}

func challengeField(flow string) string {
	return "challenge:" + flow
}

func (s *challengeStore) Save(ctx context.Context, sessionID, flow string, record *challengeRecord) error {
	encoded, err := encodeChallengeRecord(record)
	if err != nil {
		return err
	}
	return s.sessions.Set(ctx, sessionID, challengeField(flow), encoded)
}

func (s *challengeStore) Get(ctx context.Context, sessionID, flow string) (*challengeRecord, error) {
	data, err := s.sessions.Get(ctx, sessionID, challengeField(flow))
	if err != nil {
		if errors.Is(err, ErrSessionValueNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	return decodeChallengeRecord(data)
}

func (s *challengeStore) Delete(ctx context.Context, sessionID, flow string) error {
	return s.sessions.Delete(ctx, sessionID, challengeField(flow))
}

func encodeChallengeRecord(record *challengeRecord) ([]byte, error) {
	if len(record.Method) > 255 {
		return nil, errors.New("challenge method name length exceeded")
	}

	var buf bytes.Buffer
	buf.WriteByte(challengeRecordVersion1)
	buf.WriteByte(byte(len(record.Method)))
	buf.WriteString(record.Method)

	if err := binary.Write(&buf, binary.BigEndian, uint32(len(record.Public))); err != nil {
		return nil, err
	}
	buf.Write(record.Public)
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(record.State))); err != nil {
		return nil, err
	}
	buf.Write(record.State)

	return buf.Bytes(), nil
}

func decodeChallengeRecord(data []byte) (*challengeRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != challengeRecordVersion1 {
		return nil, errors.New("invalid challenge record version")
	}

	methodLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	method := make([]byte, methodLen)
	if _, err := io.ReadFull(reader, method); err != nil {
		return nil, err
	}

	record := &challengeRecord{Method: string(method)}

	var publicLen uint32
	if err := binary.Read(reader, binary.BigEndian, &publicLen); err != nil {
		return nil, err
	}
	if publicLen > 0 {
		record.Public = make([]byte, publicLen)
		if _, err := io.ReadFull(reader, record.Public); err != nil {
			return nil, err
		}
	}

	var stateLen uint32
	if err := binary.Read(reader, binary.BigEndian, &stateLen); err != nil {
		return nil, err
	}
	if stateLen > 0 {
		record.State = make([]byte, stateLen)
		if _, err := io.ReadFull(reader, record.State); err != nil {
			return nil, err
		}
	}

	return record, nil
}
