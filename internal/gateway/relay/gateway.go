// Package relay implements the messaging gateway and registrar over a cnotify
// relay.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/rmacdonaldsmith/cnotify-go/pkg/gateway"
	"github.com/rmacdonaldsmith/cnotify-go/pkg/httpclient"
)

var (
	// ErrNoDeviceToken is returned for topic calls made before a device
	// token was set
	ErrNoDeviceToken = errors.New("no device token")
	// ErrUnknownDevice is returned when the relay does not know the device
	// token
	ErrUnknownDevice = errors.New("device token unknown to relay")
)

// Gateway is a gateway.Gateway, gateway.Registrar and gateway.TokenSink
// backed by a relay.
type Gateway struct {
	client *httpclient.Client
	logger *zap.Logger

	mu          sync.RWMutex
	deviceToken string

	authMu sync.Mutex
}

var (
	_ gateway.Gateway   = (*Gateway)(nil)
	_ gateway.Registrar = (*Gateway)(nil)
	_ gateway.TokenSink = (*Gateway)(nil)
)

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithDeviceToken starts the gateway with a known device token. Register
// then returns it without asking the relay for a new one.
func WithDeviceToken(token string) Option {
	return func(g *Gateway) {
		g.deviceToken = token
	}
}

// New creates a gateway over client. The client authenticates lazily on the
// first call that needs a token.
func New(client *httpclient.Client, opts ...Option) *Gateway {
	g := &Gateway{
		client: client,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetDeviceToken implements gateway.TokenSink.
func (g *Gateway) SetDeviceToken(token string) {
	g.mu.Lock()
	g.deviceToken = token
	g.mu.Unlock()
}

// DeviceToken returns the current device token, or "".
func (g *Gateway) DeviceToken() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.deviceToken
}

// TokenAvailable implements gateway.Gateway.
func (g *Gateway) TokenAvailable() bool {
	return g.DeviceToken() != ""
}

// FetchToken confirms the device token with the relay and returns it.
func (g *Gateway) FetchToken(ctx context.Context) <-chan gateway.TokenResult {
	ch := make(chan gateway.TokenResult, 1)
	go func() {
		defer close(ch)

		token := g.DeviceToken()
		if token == "" {
			ch <- gateway.TokenResult{Err: ErrNoDeviceToken}
			return
		}
		err := g.call(ctx, func() error {
			_, err := g.client.ListTopics(ctx, token)
			return err
		})
		if httpclient.StatusCode(err) == http.StatusNotFound {
			err = fmt.Errorf("%w: %s", ErrUnknownDevice, token)
		}
		if err != nil {
			ch <- gateway.TokenResult{Err: err}
			return
		}
		ch <- gateway.TokenResult{Token: token}
	}()
	return ch
}

// Subscribe implements gateway.Gateway.
func (g *Gateway) Subscribe(ctx context.Context, topic string) <-chan error {
	return gateway.Go(func() error {
		return g.topicCall(ctx, func(token string) error {
			_, err := g.client.Subscribe(ctx, token, topic)
			return err
		})
	})
}

// Unsubscribe implements gateway.Gateway.
func (g *Gateway) Unsubscribe(ctx context.Context, topic string) <-chan error {
	return gateway.Go(func() error {
		return g.topicCall(ctx, func(token string) error {
			_, err := g.client.Unsubscribe(ctx, token, topic)
			return err
		})
	})
}

// Register implements gateway.Registrar. A gateway that already holds a
// device token yields it; otherwise the relay issues a new one.
func (g *Gateway) Register(ctx context.Context) <-chan gateway.Registration {
	ch := make(chan gateway.Registration, 1)
	go func() {
		defer close(ch)

		if token := g.DeviceToken(); token != "" {
			ch <- gateway.Registration{DeviceToken: token}
			return
		}

		var resp *httpclient.RegistrationResponse
		err := g.call(ctx, func() error {
			var err error
			resp, err = g.client.Register(ctx)
			return err
		})
		if err != nil {
			ch <- gateway.Registration{Err: err}
			return
		}

		g.logger.Info("device registered with relay", zap.String("device_token", resp.DeviceToken))
		ch <- gateway.Registration{DeviceToken: resp.DeviceToken}
	}()
	return ch
}

// Unregister drops the device registration from the relay and forgets the
// token.
func (g *Gateway) Unregister(ctx context.Context) error {
	token := g.DeviceToken()
	if token == "" {
		return ErrNoDeviceToken
	}
	if err := g.call(ctx, func() error {
		return g.client.DeleteRegistration(ctx, token)
	}); err != nil {
		return err
	}
	g.SetDeviceToken("")
	return nil
}

func (g *Gateway) topicCall(ctx context.Context, fn func(token string) error) error {
	token := g.DeviceToken()
	if token == "" {
		return ErrNoDeviceToken
	}
	return g.call(ctx, func() error { return fn(token) })
}

// call runs fn with an access token, logging in first when needed and once
// more if the relay rejects the token.
func (g *Gateway) call(ctx context.Context, fn func() error) error {
	if err := g.ensureAuthenticated(ctx, false); err != nil {
		return err
	}
	err := fn()
	if httpclient.StatusCode(err) != http.StatusUnauthorized {
		return err
	}

	g.logger.Debug("relay rejected access token, re-authenticating")
	if err := g.ensureAuthenticated(ctx, true); err != nil {
		return err
	}
	return fn()
}

func (g *Gateway) ensureAuthenticated(ctx context.Context, force bool) error {
	g.authMu.Lock()
	defer g.authMu.Unlock()

	if g.client.IsAuthenticated() && !force {
		return nil
	}
	return g.client.Authenticate(ctx)
}
