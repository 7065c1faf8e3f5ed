package relay

import (
	"errors"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnknownRegistration is returned for device tokens the relay never issued
	ErrUnknownRegistration = errors.New("unknown registration")
	// ErrInvalidTopic is returned for topic names outside the provider grammar
	ErrInvalidTopic = errors.New("invalid topic name")
	// ErrEmptyClientID is returned when registering without a client
	ErrEmptyClientID = errors.New("client ID cannot be empty")
)

// topicPattern is the topic-name grammar accepted by Firebase Cloud Messaging.
var topicPattern = regexp.MustCompile(`^[a-zA-Z0-9\-_.~%]{1,900}$`)

// Registration is a device token issued to a client.
type Registration struct {
	DeviceToken string
	ClientID    string
	CreatedAt   time.Time
	Topics      []string
}

type registration struct {
	clientID  string
	createdAt time.Time
	topics    map[string]struct{}
}

// Registry keeps device registrations and their topic subscriptions in memory.
// It is safe for concurrent use.
type Registry struct {
	mu            sync.RWMutex
	registrations map[string]*registration        // device token -> registration
	subscribers   map[string]map[string]struct{} // topic -> device tokens
	newToken      func() string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		registrations: make(map[string]*registration),
		subscribers:   make(map[string]map[string]struct{}),
		newToken:      uuid.NewString,
	}
}

// ValidTopic reports whether topic is an acceptable topic name.
func ValidTopic(topic string) bool {
	return topicPattern.MatchString(topic)
}

// Register issues a new device token for clientID.
func (r *Registry) Register(clientID string) (Registration, error) {
	if clientID == "" {
		return Registration{}, ErrEmptyClientID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	token := r.newToken()
	reg := &registration{
		clientID:  clientID,
		createdAt: time.Now(),
		topics:    make(map[string]struct{}),
	}
	r.registrations[token] = reg
	return reg.snapshot(token), nil
}

// Get returns the registration for token.
func (r *Registry) Get(token string) (Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.registrations[token]
	if !ok {
		return Registration{}, ErrUnknownRegistration
	}
	return reg.snapshot(token), nil
}

// Delete removes a registration and all its subscriptions.
func (r *Registry) Delete(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.registrations[token]
	if !ok {
		return ErrUnknownRegistration
	}
	for topic := range reg.topics {
		r.removeSubscriber(topic, token)
	}
	delete(r.registrations, token)
	return nil
}

// Subscribe adds token to topic. Subscribing twice is not an error.
func (r *Registry) Subscribe(token, topic string) error {
	if !ValidTopic(topic) {
		return ErrInvalidTopic
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.registrations[token]
	if !ok {
		return ErrUnknownRegistration
	}
	reg.topics[topic] = struct{}{}
	if r.subscribers[topic] == nil {
		r.subscribers[topic] = make(map[string]struct{})
	}
	r.subscribers[topic][token] = struct{}{}
	return nil
}

// Unsubscribe removes token from topic. Removing an absent subscription is
// not an error.
func (r *Registry) Unsubscribe(token, topic string) error {
	if !ValidTopic(topic) {
		return ErrInvalidTopic
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.registrations[token]
	if !ok {
		return ErrUnknownRegistration
	}
	delete(reg.topics, topic)
	r.removeSubscriber(topic, token)
	return nil
}

// SubscriberCounts returns the number of registrations per topic.
func (r *Registry) SubscriberCounts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int, len(r.subscribers))
	for topic, tokens := range r.subscribers {
		counts[topic] = len(tokens)
	}
	return counts
}

// Counts returns the number of registrations and of topics with subscribers.
func (r *Registry) Counts() (registrations, topics int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.registrations), len(r.subscribers)
}

func (r *Registry) removeSubscriber(topic, token string) {
	tokens := r.subscribers[topic]
	delete(tokens, token)
	if len(tokens) == 0 {
		delete(r.subscribers, topic)
	}
}

func (reg *registration) snapshot(token string) Registration {
	list := make([]string, 0, len(reg.topics))
	for topic := range reg.topics {
		list = append(list, topic)
	}
	sort.Strings(list)
	return Registration{
		DeviceToken: token,
		ClientID:    reg.clientID,
		CreatedAt:   reg.createdAt,
		Topics:      list,
	}
}
