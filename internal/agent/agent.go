// Package agent assembles a topic store, a provider gateway and a
// coordinator from configuration and drives the startup triggers.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/rmacdonaldsmith/cnotify-go/internal/config"
	"github.com/rmacdonaldsmith/cnotify-go/internal/coordinator"
	"github.com/rmacdonaldsmith/cnotify-go/internal/gateway/firebase"
	relaygw "github.com/rmacdonaldsmith/cnotify-go/internal/gateway/relay"
	"github.com/rmacdonaldsmith/cnotify-go/internal/logging"
	"github.com/rmacdonaldsmith/cnotify-go/internal/topicstore"
	"github.com/rmacdonaldsmith/cnotify-go/pkg/gateway"
	"github.com/rmacdonaldsmith/cnotify-go/pkg/httpclient"
	"github.com/rmacdonaldsmith/cnotify-go/pkg/topics"
	topicstorepkg "github.com/rmacdonaldsmith/cnotify-go/pkg/topicstore"
)

var (
	// ErrConfigUnavailable is returned when the provider configuration file
	// named in the config is missing or unreadable
	ErrConfigUnavailable = config.ErrConfigUnavailable
	// ErrAgentClosed is returned when starting a closed agent
	ErrAgentClosed = errors.New("agent is closed")
)

type options struct {
	logger          *zap.Logger
	fs              afero.Fs
	lookup          func(string) string
	store           topicstorepkg.Store
	gateway         gateway.Gateway
	registrar       gateway.Registrar
	messagingClient firebase.MessagingClient
	scheduler       coordinator.Scheduler
}

// Option customizes agent construction.
type Option func(*options)

// WithLogger sets the root logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithFs sets the filesystem used for the file store and provider
// configuration files.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithEnv sets the environment lookup used for locale detection.
func WithEnv(lookup func(string) string) Option {
	return func(o *options) { o.lookup = lookup }
}

// WithStore replaces the configured topic store.
func WithStore(s topicstorepkg.Store) Option {
	return func(o *options) { o.store = s }
}

// WithGateway replaces the configured provider gateway. If gw also
// implements gateway.Registrar it is used for registration unless
// WithRegistrar says otherwise.
func WithGateway(gw gateway.Gateway) Option {
	return func(o *options) { o.gateway = gw }
}

// WithRegistrar replaces the registration flow.
func WithRegistrar(r gateway.Registrar) Option {
	return func(o *options) { o.registrar = r }
}

// WithMessagingClient sets the FCM client for the firebase provider instead
// of initializing the Admin SDK.
func WithMessagingClient(c firebase.MessagingClient) Option {
	return func(o *options) { o.messagingClient = c }
}

// WithScheduler replaces the coordinator retry timer source.
func WithScheduler(s coordinator.Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// Agent owns one coordinator and the resources behind it.
type Agent struct {
	config      *config.Config
	logger      *zap.Logger
	store       topicstorepkg.Store
	gateway     gateway.Gateway
	registrar   gateway.Registrar
	coordinator *coordinator.Coordinator
	closers     []func() error

	mu      sync.Mutex
	started bool
	closed  bool
	pending sync.WaitGroup
}

// New builds an agent from cfg. It does not touch the network.
func New(cfg *config.Config, opts ...Option) (*Agent, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if path := cfg.Provider.ConfigFile; path != "" {
		if _, err := o.fs.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: provider config %s: %v", ErrConfigUnavailable, path, err)
		}
	}

	a := &Agent{
		config: cfg,
		logger: logging.For(o.logger, logging.ComponentAgent),
	}

	a.store = o.store
	if a.store == nil {
		var closeStore func() error
		a.store, closeStore = OpenStore(cfg, o.fs)
		a.closers = append(a.closers, closeStore)
	}

	a.gateway, a.registrar = o.gateway, o.registrar
	if a.gateway == nil {
		gw, reg, err := a.buildGateway(o)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.gateway = gw
		if a.registrar == nil {
			a.registrar = reg
		}
	}
	if a.registrar == nil {
		if r, ok := a.gateway.(gateway.Registrar); ok {
			a.registrar = r
		}
	}

	coordOpts := []coordinator.Option{coordinator.WithLogger(o.logger)}
	if o.scheduler != nil {
		coordOpts = append(coordOpts, coordinator.WithScheduler(o.scheduler))
	}
	coord, err := coordinator.New(cfg.Coordinator(o.lookup), a.store, a.gateway, coordOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.coordinator = coord

	return a, nil
}

// MustNew is New for startup paths where a broken configuration is fatal.
func MustNew(cfg *config.Config, opts ...Option) *Agent {
	a, err := New(cfg, opts...)
	if err != nil {
		panic(fmt.Sprintf("cnotify: %v", err))
	}
	return a
}

// OpenStore builds the topic store cfg selects, on fs for the file backend.
// The returned close function releases any connection and is never nil.
func OpenStore(cfg *config.Config, fs afero.Fs) (topicstorepkg.Store, func() error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return topicstore.NewInMemoryStore(), func() error { return nil }
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		return topicstore.NewRedisStore(client, cfg.Store.KeyPrefix), client.Close
	default:
		return topicstore.NewFileStore(fs, cfg.Store.Path), func() error { return nil }
	}
}

func (a *Agent) buildGateway(o *options) (gateway.Gateway, gateway.Registrar, error) {
	gwLogger := logging.For(o.logger, logging.ComponentGateway)
	provider := a.config.Provider

	switch provider.Name {
	case config.ProviderFirebase:
		client := o.messagingClient
		if client == nil {
			mc, err := firebase.NewMessagingClient(context.Background(), provider.ConfigFile, o.fs)
			if err != nil {
				if errors.Is(err, firebase.ErrCredentialsUnavailable) {
					return nil, nil, fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
				}
				return nil, nil, err
			}
			client = mc
		}
		return firebase.New(client, provider.DeviceToken, gwLogger),
			firebase.StaticRegistrar{Token: provider.DeviceToken}, nil

	default:
		client, err := httpclient.NewClient(httpclient.Config{
			ServerURL: provider.RelayURL,
			ClientID:  provider.ClientID,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create relay client: %w", err)
		}
		gw := relaygw.New(client,
			relaygw.WithLogger(gwLogger),
			relaygw.WithDeviceToken(provider.DeviceToken))
		return gw, gw, nil
	}
}

// Start fires the permission trigger and requests registration; the
// registration result is fed back as the device token trigger. It returns
// immediately. Starting twice is a no-op.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrAgentClosed
	}
	if a.started {
		return nil
	}
	a.started = true

	a.logger.Info("Starting agent",
		zap.String("provider", a.config.Provider.Name),
		zap.String("store", a.config.Store.Backend))

	a.coordinator.OnPermissionGranted(ctx)

	if a.registrar == nil {
		a.logger.Warn("No registrar configured, relying on an existing device token")
		return nil
	}

	results := a.registrar.Register(ctx)
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()

		select {
		case reg, ok := <-results:
			switch {
			case !ok:
				a.logger.Warn("Registration finished without a result")
			case reg.Err != nil:
				a.logger.Warn("Failed to register for remote notifications", zap.Error(reg.Err))
			default:
				a.logger.Info("Registered for remote notifications")
				a.coordinator.OnDeviceToken(ctx, reg.DeviceToken)
			}
		case <-ctx.Done():
		}
	}()
	return nil
}

// EnableTestingMode adds the debug topic to the device's subscriptions. It
// is subscribed immediately if topics were already reconciled and otherwise
// with the reconciliation, once a device token exists.
func (a *Agent) EnableTestingMode(ctx context.Context) {
	a.logger.Info("Testing mode enabled", zap.String("topic", topics.DebugTopic))
	a.coordinator.EnableTesting(ctx)
}

// Coordinator returns the agent's coordinator.
func (a *Agent) Coordinator() *coordinator.Coordinator {
	return a.coordinator
}

// Store returns the topic store in use.
func (a *Agent) Store() topicstorepkg.Store {
	return a.store
}

// Gateway returns the provider gateway in use.
func (a *Agent) Gateway() gateway.Gateway {
	return a.gateway
}

// Wait blocks until registration and every coordinator handler finished,
// including scheduled retries.
func (a *Agent) Wait() {
	a.pending.Wait()
	if a.coordinator != nil {
		a.coordinator.Wait()
	}
}

// Close cancels pending retries, waits for in-flight work and releases the
// store connection. Closing twice is safe.
func (a *Agent) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	if a.coordinator != nil {
		a.coordinator.Stop()
	}
	a.Wait()

	var errs []error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to close agent: %w", err)
	}
	return nil
}
