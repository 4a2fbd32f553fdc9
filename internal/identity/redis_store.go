package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// OpenRedis parses url, connects and pings.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

type redisSessionStore struct {
	rdb *redis.Client
}

// NewRedisSessionStore keeps sessions as keys with a TTL, so Redis expires
// them on its own.
func NewRedisSessionStore(rdb *redis.Client) SessionStore {
	return &redisSessionStore{rdb: rdb}
}

func (s *redisSessionStore) Save(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	return s.rdb.Set(ctx, sessionKeyPrefix+tokenHash, userID, ttl).Err()
}

func (s *redisSessionStore) Lookup(ctx context.Context, tokenHash string, _ time.Time) (string, error) {
	userID, err := s.rdb.Get(ctx, sessionKeyPrefix+tokenHash).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoSession
		}
		return "", err
	}
	return userID, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, tokenHash string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+tokenHash).Err()
}
