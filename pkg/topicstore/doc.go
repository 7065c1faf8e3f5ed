// Package topicstore defines persistence of the last subscribed topic set.
//
// The store keeps a single string list under SubscribedTopicsKey. Saving
// replaces the whole list; nothing is merged and no history is kept. Loading
// before anything was saved yields an empty list, not an error.
//
// Implementations live in internal/topicstore (memory, file and Redis
// backed). None of them cache: every Load and Save reaches the backing
// key-value storage.
package topicstore
