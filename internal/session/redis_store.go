package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gatehouse/gatehouse/internal/shared"
)

// RedisStore persists sessions in Redis under "session:<id>". When the
// authority has a positive duration the key carries a matching TTL, so Redis
// evicts on its own even if no sweep ever runs.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type redisPayload struct {
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Save writes the session record.
func (s *RedisStore) Save(ctx context.Context, sessionID string, record Record, ttl time.Duration) error {
	data, err := json.Marshal(redisPayload{UserID: record.UserID, CreatedAt: record.CreatedAt})
	if err != nil {
		return fmt.Errorf("session/redis: marshal: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, redisKey(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("session/redis: set: %w", err)
	}
	return nil
}

// Find loads the session record.
func (s *RedisStore) Find(ctx context.Context, sessionID string) (Record, error) {
	data, err := s.client.Get(ctx, redisKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, shared.ErrInvalidSession
		}
		return Record{}, fmt.Errorf("session/redis: get: %w", err)
	}
	var payload redisPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Record{}, fmt.Errorf("session/redis: unmarshal: %w", err)
	}
	return Record{UserID: payload.UserID, CreatedAt: payload.CreatedAt}, nil
}

// Delete removes the session record.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	removed, err := s.client.Del(ctx, redisKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("session/redis: del: %w", err)
	}
	if removed == 0 {
		return shared.ErrInvalidSession
	}
	return nil
}

func redisKey(id string) string {
	return "session:" + id
}

var _ Store = (*RedisStore)(nil)
