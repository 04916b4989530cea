package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// RedisStore keeps history as a JSON array under mem:{chatID}.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and pings Redis; an unreachable server is an error
// so the caller can fall back.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// History loads the stored turns for a chat; a missing key is empty history.
func (s *RedisStore) History(ctx context.Context, chatID string) ([]Turn, error) {
	data, err := s.client.Get(ctx, memKey(chatID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", memKey(chatID), err)
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("decode history for %s: %w", chatID, err)
	}
	return turns, nil
}

// Save replaces the stored turns for a chat.
func (s *RedisStore) Save(ctx context.Context, chatID string, turns []Turn) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode history for %s: %w", chatID, err)
	}
	if err := s.client.Set(ctx, memKey(chatID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", memKey(chatID), err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
