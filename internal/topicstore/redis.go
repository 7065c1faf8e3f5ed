package topicstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rmacdonaldsmith/cnotify-go/pkg/topicstore"
)

// RedisStore implements topicstore.Store as a Redis list.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStore creates a store using client. An empty prefix stores the
// list under topicstore.SubscribedTopicsKey; a prefix namespaces it, e.g.
// "device-42:" for several clients sharing one Redis.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    prefix + topicstore.SubscribedTopicsKey,
	}
}

// Key returns the Redis key holding the list.
func (s *RedisStore) Key() string {
	return s.key
}

// Load returns the list, or an empty slice when the key does not exist.
func (s *RedisStore) Load(ctx context.Context) ([]string, error) {
	values, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load topics: %w", err)
	}
	if values == nil {
		values = make([]string, 0)
	}
	return values, nil
}

// Save replaces the list inside a MULTI/EXEC block so readers never observe
// a partially written list.
func (s *RedisStore) Save(ctx context.Context, topics []string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(topics) > 0 {
			args := make([]interface{}, len(topics))
			for i, topic := range topics {
				args[i] = topic
			}
			pipe.RPush(ctx, s.key, args...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save topics: %w", err)
	}
	return nil
}

// Clear deletes the key.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear topics: %w", err)
	}
	return nil
}
