package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps revoked tokens as keys whose TTL matches the token's
// remaining lifetime, so the backend reclaims them without a purge job.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClient connects to redis with bounded timeouts and verifies the
// connection with a ping before the store is handed out.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Add(ctx context.Context, token string, expiresAt int64) error {
	ttl := time.Duration((expiresAt-time.Now().UnixMilli()+999)/1000) * time.Second
	if ttl <= 0 {
		// Already expired, revocation is moot.
		return nil
	}
	return s.client.Set(ctx, token, "blacklisted", ttl).Err()
}

func (s *RedisStore) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	_, err := s.client.Get(ctx, token).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	return true, nil
}

// PurgeExpired is a no-op: redis expires keys on its own.
func (s *RedisStore) PurgeExpired(ctx context.Context) error { return nil }
