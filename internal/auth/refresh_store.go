package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "photomap:refresh:"

// RefreshStore tracks live refresh tokens per member in a Redis hash (jti -> expiry).
type RefreshStore struct {
	client *redis.Client
}

// NewRefreshStore creates a Redis-backed refresh token store.
func NewRefreshStore(client *redis.Client) *RefreshStore {
	return &RefreshStore{client: client}
}

func refreshKey(memberID uuid.UUID) string {
	return refreshKeyPrefix + memberID.String()
}

// Save records jti as live until ttl elapses.
func (s *RefreshStore) Save(ctx context.Context, memberID uuid.UUID, jti string, ttl time.Duration) error {
	key := refreshKey(memberID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, jti, time.Now().Add(ttl).Unix())
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// Revoke removes one refresh token. It reports whether the token was live.
func (s *RefreshStore) Revoke(ctx context.Context, memberID uuid.UUID, jti string) (bool, error) {
	n, err := s.client.HDel(ctx, refreshKey(memberID), jti).Result()
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return n > 0, nil
}

// RevokeAll removes every refresh token of the member.
func (s *RefreshStore) RevokeAll(ctx context.Context, memberID uuid.UUID) error {
	if err := s.client.Del(ctx, refreshKey(memberID)).Err(); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}
