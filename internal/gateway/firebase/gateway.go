// Package firebase implements the messaging gateway over Firebase Cloud
// Messaging topic management.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	firebasesdk "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/rmacdonaldsmith/cnotify-go/pkg/gateway"
)

var (
	// ErrCredentialsUnavailable is returned when an explicit credentials
	// file cannot be read
	ErrCredentialsUnavailable = errors.New("firebase credentials unavailable")
	// ErrNoToken is returned for topic calls made before a device token was
	// set
	ErrNoToken = errors.New("no FCM registration token")
	// ErrTopicRejected is returned when FCM accepted the request but failed
	// the token
	ErrTopicRejected = errors.New("topic operation rejected")
)

// MessagingClient is the subset of *messaging.Client the gateway uses.
type MessagingClient interface {
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error)
	UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error)
}

// NewMessagingClient initializes the Admin SDK. An empty credentialsFile
// uses Application Default Credentials. A nil fs reads from the OS
// filesystem.
func NewMessagingClient(ctx context.Context, credentialsFile string, fs afero.Fs) (*messaging.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		if fs == nil {
			fs = afero.NewOsFs()
		}
		data, err := afero.ReadFile(fs, credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCredentialsUnavailable, err)
		}
		opts = append(opts, option.WithCredentialsJSON(data))
	}

	app, err := firebasesdk.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase messaging: %w", err)
	}
	return client, nil
}

// Gateway manages the topics of a single FCM registration token.
type Gateway struct {
	client MessagingClient
	logger *zap.Logger

	mu    sync.RWMutex
	token string
}

var (
	_ gateway.Gateway   = (*Gateway)(nil)
	_ gateway.TokenSink = (*Gateway)(nil)
)

// New creates a gateway. token may be empty until SetDeviceToken is called.
func New(client MessagingClient, token string, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{client: client, token: token, logger: logger}
}

// SetDeviceToken implements gateway.TokenSink.
func (g *Gateway) SetDeviceToken(token string) {
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
}

// TokenAvailable implements gateway.Gateway.
func (g *Gateway) TokenAvailable() bool {
	return g.currentToken() != ""
}

// FetchToken returns the held token. The Admin SDK cannot mint registration
// tokens, so an unset token yields neither a token nor an error.
func (g *Gateway) FetchToken(ctx context.Context) <-chan gateway.TokenResult {
	if err := ctx.Err(); err != nil {
		return gateway.TokenDone("", err)
	}
	return gateway.TokenDone(g.currentToken(), nil)
}

// Subscribe implements gateway.Gateway.
func (g *Gateway) Subscribe(ctx context.Context, topic string) <-chan error {
	return gateway.Go(func() error {
		return g.manage(ctx, "subscribe", topic, g.client.SubscribeToTopic)
	})
}

// Unsubscribe implements gateway.Gateway.
func (g *Gateway) Unsubscribe(ctx context.Context, topic string) <-chan error {
	return gateway.Go(func() error {
		return g.manage(ctx, "unsubscribe", topic, g.client.UnsubscribeFromTopic)
	})
}

type topicFunc func(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error)

func (g *Gateway) manage(ctx context.Context, op, topic string, fn topicFunc) error {
	token := g.currentToken()
	if token == "" {
		return ErrNoToken
	}

	resp, err := fn(ctx, []string{token}, topic)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, topic, err)
	}
	if resp != nil && resp.FailureCount > 0 {
		reason := "unknown"
		if len(resp.Errors) > 0 && resp.Errors[0] != nil {
			reason = resp.Errors[0].Reason
		}
		return fmt.Errorf("%w: %s %s: %s", ErrTopicRejected, op, topic, reason)
	}

	g.logger.Debug("topic operation accepted", zap.String("op", op), zap.String("topic", topic))
	return nil
}

func (g *Gateway) currentToken() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// StaticRegistrar yields a registration token obtained out of band, such as
// one configured for the host.
type StaticRegistrar struct {
	Token string
}

var _ gateway.Registrar = StaticRegistrar{}

// Register implements gateway.Registrar.
func (r StaticRegistrar) Register(ctx context.Context) <-chan gateway.Registration {
	if r.Token == "" {
		return gateway.RegistrationDone("", ErrNoToken)
	}
	return gateway.RegistrationDone(r.Token, nil)
}
