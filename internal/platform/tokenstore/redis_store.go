// Package tokenstore persists the market vendor's credential bundle in Redis
// so batch jobs and the server share one rotating session.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"invest_backend/internal/platform/externalapi/kite"
)

// ErrCredentialsNotFound is returned when no credential bundle is stored.
var ErrCredentialsNotFound = errors.New("vendor credentials not found")

// defaultKey is the Redis key the bundle lives under.
const defaultKey = "kite:credentials"

// RedisStore is a Redis-backed kite.TokenSource.
type RedisStore struct {
	client *redis.Client
	key    string
}

// インターフェース実装の確認
var _ kite.TokenSource = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore. An empty key selects the default.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = defaultKey
	}
	return &RedisStore{client: client, key: key}
}

// Get loads the stored credential bundle.
func (s *RedisStore) Get(ctx context.Context) (kite.Credentials, error) {
	if s.client == nil {
		return kite.Credentials{}, fmt.Errorf("%w: redis unavailable", ErrCredentialsNotFound)
	}

	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return kite.Credentials{}, ErrCredentialsNotFound
		}
		return kite.Credentials{}, fmt.Errorf("load credentials: %w", err)
	}

	var creds kite.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return kite.Credentials{}, fmt.Errorf("unmarshal credentials: %w", err)
	}
	return creds, nil
}

// Put stores the credential bundle without expiry; rotation overwrites it.
func (s *RedisStore) Put(ctx context.Context, creds kite.Credentials) error {
	if s.client == nil {
		return errors.New("redis unavailable")
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}
	return nil
}
