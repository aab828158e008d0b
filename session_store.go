package goMFA

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore is the provided [SessionStore] backed by Redis. Values
// live under "<prefix>:<sessionID>:<field>" with a fixed TTL, so abandoned
// challenges and pending login markers expire on their own.
type RedisSessionStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessionStore describes the newredissessionstore operation and its observable behavior.
//
// NewRedisSessionStore may return an error when input validation, dependency calls, or security checks fail.
// NewRedisSessionStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewRedisSessionStore(client *redis.Client, prefix string, ttl time.Duration) *RedisSessionStore {
	if prefix == "" {
		prefix = "mfa"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisSessionStore{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisSessionStore) key(sessionID, field string) string {
	return s.prefix + ":" + sessionID + ":" + field
}

// Get describes the get operation and its observable behavior.
//
// Get may return an error when input validation, dependency calls, or security checks fail.
// Get does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisSessionStore) Get(ctx context.Context, sessionID, field string) ([]byte, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID, field)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionValueNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	return data, nil
}

// Set describes the set operation and its observable behavior.
//
// Set may return an error when input validation, dependency calls, or security checks fail.
// Set does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisSessionStore) Set(ctx context.Context, sessionID, field string, value []byte) error {
	if err := s.redis.Set(ctx, s.key(sessionID, field), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	return nil
}

// Pop describes the pop operation and its observable behavior.
//
// Pop may return an error when input validation, dependency calls, or security checks fail.
// Pop does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisSessionStore) Pop(ctx context.Context, sessionID, field string) ([]byte, error) {
	data, err := s.redis.GetDel(ctx, s.key(sessionID, field)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionValueNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	return data, nil
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation, dependency calls, or security checks fail.
// Delete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID, field string) error {
	if err := s.redis.Del(ctx, s.key(sessionID, field)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	return nil
}
