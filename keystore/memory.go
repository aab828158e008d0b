package keystore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	goMFA "github.com/MrEthical07/goMFA"
)

// Memory defines a public type used by goMFA APIs.
//
// Memory instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Memory struct {
	mu   sync.RWMutex
	keys map[string]goMFA.Key
}

// NewMemory describes the newmemory operation and its observable behavior.
//
// NewMemory may return an error when input validation, dependency calls, or security checks fail.
// NewMemory does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMemory() *Memory {
	return &Memory{
		keys: make(map[string]goMFA.Key),
	}
}

// List describes the list operation and its observable behavior.
//
// List may return an error when input validation, dependency calls, or security checks fail.
// List does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Memory) List(_ context.Context, userID, method string) ([]goMFA.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []goMFA.Key
	for _, key := range s.keys {
		if key.UserID != userID {
			continue
		}
		if method != "" && key.Method != method {
			continue
		}
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Create describes the create operation and its observable behavior.
//
// Create may return an error when input validation, dependency calls, or security checks fail.
// Create does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Memory) Create(_ context.Context, key goMFA.Key) (goMFA.Key, error) {
	if key.ID == "" {
		key.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[key.ID] = key
	return key, nil
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation, dependency calls, or security checks fail.
// Delete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Memory) Delete(_ context.Context, userID, keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.keys[keyID]
	if !ok || key.UserID != userID {
		return goMFA.ErrKeyNotFound
	}
	delete(s.keys, keyID)
	return nil
}

// UpdateLastCode describes the updatelastcode operation and its observable behavior.
//
// UpdateLastCode may return an error when input validation, dependency calls, or security checks fail.
// UpdateLastCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Memory) UpdateLastCode(_ context.Context, keyID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.keys[keyID]
	if !ok {
		return goMFA.ErrKeyNotFound
	}
	key.LastCode = code
	s.keys[keyID] = key
	return nil
}
