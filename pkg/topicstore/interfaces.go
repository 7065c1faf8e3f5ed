package topicstore

import (
	"context"
)

// SubscribedTopicsKey is the key under which the topic list is stored.
const SubscribedTopicsKey = "cnotify_subscribed_topics"

// Store persists the topic list the client is subscribed to.
type Store interface {
	// Load returns the persisted topics, or an empty slice if none were
	// ever saved.
	Load(ctx context.Context) ([]string, error)

	// Save overwrites the persisted list with topics.
	Save(ctx context.Context, topics []string) error

	// Clear removes the persisted list. A later Load returns an empty slice.
	Clear(ctx context.Context) error
}
