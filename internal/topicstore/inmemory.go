package topicstore

import (
	"context"
	"sync"

	"github.com/rmacdonaldsmith/cnotify-go/pkg/topicstore"
)

// InMemoryStore implements topicstore.Store over an in-process key-value map.
// It stands in for platform preferences storage in tests and ephemeral runs.
// It is safe for concurrent use.
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[string][]string
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		values: make(map[string][]string),
	}
}

// Load returns a copy of the stored list, or an empty slice.
func (s *InMemoryStore) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyTopics(s.values[topicstore.SubscribedTopicsKey]), nil
}

// Save replaces the stored list.
func (s *InMemoryStore) Save(ctx context.Context, topics []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[topicstore.SubscribedTopicsKey] = copyTopics(topics)
	return nil
}

// Clear drops the stored list.
func (s *InMemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, topicstore.SubscribedTopicsKey)
	return nil
}

func copyTopics(topics []string) []string {
	out := make([]string, len(topics))
	copy(out, topics)
	return out
}
