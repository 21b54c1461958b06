package modelstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/ports"
)

// DefaultRedisKey holds the snapshot when no key is configured.
const DefaultRedisKey = "newsclassifier:model:snapshot"

// RedisStore keeps the snapshot under a single key; SET replaces it atomically.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

var _ ports.ModelStore = (*RedisStore)(nil)

// NewRedisStore wires a redis client and key.
func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Save replaces the snapshot.
func (s *RedisStore) Save(ctx context.Context, payload []byte) error {
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Load returns the snapshot or domain.ErrNoSavedModel when the key is absent.
func (s *RedisStore) Load(ctx context.Context) ([]byte, error) {
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis key %s: %w", s.key, domain.ErrNoSavedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return payload, nil
}
