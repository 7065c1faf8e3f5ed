package agent

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/cnotify-go/internal/config"
	relaygw "github.com/rmacdonaldsmith/cnotify-go/internal/gateway/relay"
	"github.com/rmacdonaldsmith/cnotify-go/internal/relay"
	"github.com/rmacdonaldsmith/cnotify-go/internal/topicstore"
	"github.com/rmacdonaldsmith/cnotify-go/pkg/gateway"
	"github.com/rmacdonaldsmith/cnotify-go/pkg/gateway/mocks"
	"github.com/rmacdonaldsmith/cnotify-go/pkg/topics"
	topicstorepkg "github.com/rmacdonaldsmith/cnotify-go/pkg/topicstore"
)

var usEnglish = map[string]string{"LANG": "en_US.UTF-8"}

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Store.Backend = config.StoreMemory
	cfg.Locale.AppVersion = "1.0"
	cfg.Retry.Delay = 10 * time.Millisecond
	return cfg
}

var expectedTopics = []string{
	"eruka_lang-en_audall_users",
	"eruka_lang-en_aud-country-US",
	"eruka_lang-en_aud-version-1.0",
}

func TestNew_ProviderConfigUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.Provider.ConfigFile = "/etc/cnotify/GoogleService-Info.json"

	_, err := New(cfg, WithFs(afero.NewMemMapFs()))
	assert.ErrorIs(t, err, ErrConfigUnavailable)

	assert.Panics(t, func() {
		MustNew(cfg, WithFs(afero.NewMemMapFs()))
	})
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestAgent_RelayEndToEnd(t *testing.T) {
	srv := relay.NewServer(nil, relay.Config{SecretKey: "test-secret"}, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	cfg := testConfig()
	cfg.Provider.RelayURL = ts.URL

	a, err := New(cfg, WithEnv(env(usEnglish)))
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	require.NoError(t, a.Start(ctx))
	require.NoError(t, a.Start(ctx))

	require.Eventually(t, a.Coordinator().Subscribed, 5*time.Second, 10*time.Millisecond)
	a.Wait()

	token := a.Gateway().(*relaygw.Gateway).DeviceToken()
	require.NotEmpty(t, token)

	reg, err := srv.Registry().Get(token)
	require.NoError(t, err)
	assert.ElementsMatch(t, expectedTopics, reg.Topics)

	saved, err := a.Store().Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, expectedTopics, saved)
}

func TestAgent_MockGateway(t *testing.T) {
	gw := mocks.NewMockGateway(t)
	registrar := mocks.NewMockRegistrar(t)
	store := topicstore.NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, []string{"eruka_lang-fr_audall_users", expectedTopics[0]}))

	gw.EXPECT().TokenAvailable().Return(true)
	gw.EXPECT().FetchToken(mock.Anything).RunAndReturn(func(context.Context) <-chan gateway.TokenResult {
		return gateway.TokenDone("device-token", nil)
	})
	gw.EXPECT().Unsubscribe(mock.Anything, "eruka_lang-fr_audall_users").RunAndReturn(func(context.Context, string) <-chan error {
		return gateway.Done(nil)
	}).Once()
	for _, topic := range expectedTopics {
		gw.EXPECT().Subscribe(mock.Anything, topic).RunAndReturn(func(context.Context, string) <-chan error {
			return gateway.Done(nil)
		}).Once()
	}
	registrar.EXPECT().Register(mock.Anything).RunAndReturn(func(context.Context) <-chan gateway.Registration {
		return gateway.RegistrationDone("device-token", nil)
	}).Once()

	a, err := New(testConfig(),
		WithEnv(env(usEnglish)),
		WithGateway(gw),
		WithRegistrar(registrar),
		WithStore(store))
	require.NoError(t, err)

	require.NoError(t, a.Start(ctx))
	a.Wait()
	require.NoError(t, a.Close())

	assert.True(t, a.Coordinator().Subscribed())
	saved, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, expectedTopics, saved)
}

func TestAgent_RegistrationFailureLeavesAgentWaiting(t *testing.T) {
	gw := mocks.NewMockGateway(t)
	registrar := mocks.NewMockRegistrar(t)

	gw.EXPECT().TokenAvailable().Return(false)
	registrar.EXPECT().Register(mock.Anything).Return(gateway.RegistrationDone("", assert.AnError)).Once()

	a, err := New(testConfig(), WithGateway(gw), WithRegistrar(registrar))
	require.NoError(t, err)

	require.NoError(t, a.Start(context.Background()))
	a.Wait()
	require.NoError(t, a.Close())

	assert.False(t, a.Coordinator().Subscribed())
	assert.Equal(t, int64(5), a.Coordinator().Stats().Attempts)
	gw.AssertNumberOfCalls(t, "TokenAvailable", 5)
}

type fakeMessaging struct {
	mu     sync.Mutex
	topics []string
}

func (f *fakeMessaging) SubscribeToTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	return &messaging.TopicManagementResponse{SuccessCount: len(tokens)}, nil
}

func (f *fakeMessaging) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error) {
	return &messaging.TopicManagementResponse{SuccessCount: len(tokens)}, nil
}

func (f *fakeMessaging) subscribed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.topics...)
}

func TestAgent_FirebaseProvider(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/cnotify/firebase.json", []byte("{}"), 0o600))

	cfg := testConfig()
	cfg.Provider.Name = config.ProviderFirebase
	cfg.Provider.ConfigFile = "/etc/cnotify/firebase.json"
	cfg.Provider.DeviceToken = "fcm-token"
	cfg.Testing = true

	fake := &fakeMessaging{}
	a, err := New(cfg, WithFs(fs), WithEnv(env(usEnglish)), WithMessagingClient(fake))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.Start(ctx))
	a.Wait()
	require.NoError(t, a.Close())

	assert.True(t, a.Coordinator().Subscribed())
	assert.ElementsMatch(t, append(expectedTopics, topics.DebugTopic), fake.subscribed())
}

func TestAgent_EnableTestingMode(t *testing.T) {
	t.Run("before_reconciliation", func(t *testing.T) {
		fake := &fakeMessaging{}
		cfg := testConfig()
		cfg.Provider.Name = config.ProviderFirebase
		cfg.Provider.DeviceToken = "fcm-token"

		a, err := New(cfg, WithEnv(env(usEnglish)), WithMessagingClient(fake))
		require.NoError(t, err)
		defer a.Close()

		ctx := context.Background()
		a.EnableTestingMode(ctx)
		a.Wait()
		assert.Empty(t, fake.subscribed())

		require.NoError(t, a.Start(ctx))
		a.Wait()
		assert.ElementsMatch(t, append(expectedTopics, topics.DebugTopic), fake.subscribed())
	})

	t.Run("after_reconciliation", func(t *testing.T) {
		fake := &fakeMessaging{}
		cfg := testConfig()
		cfg.Provider.Name = config.ProviderFirebase
		cfg.Provider.DeviceToken = "fcm-token"

		a, err := New(cfg, WithEnv(env(usEnglish)), WithMessagingClient(fake))
		require.NoError(t, err)
		defer a.Close()

		ctx := context.Background()
		require.NoError(t, a.Start(ctx))
		a.Wait()
		require.True(t, a.Coordinator().Subscribed())

		a.EnableTestingMode(ctx)
		a.Wait()
		assert.ElementsMatch(t, append(expectedTopics, topics.DebugTopic), fake.subscribed())
	})
}

func TestAgent_EnableTestingModeWaitsForRelayToken(t *testing.T) {
	srv := relay.NewServer(nil, relay.Config{SecretKey: "test-secret"}, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	cfg := testConfig()
	cfg.Provider.RelayURL = ts.URL

	a, err := New(cfg, WithEnv(env(usEnglish)))
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	a.EnableTestingMode(ctx)
	require.NoError(t, a.Start(ctx))

	require.Eventually(t, a.Coordinator().Subscribed, 5*time.Second, 10*time.Millisecond)
	a.Wait()

	token := a.Gateway().(*relaygw.Gateway).DeviceToken()
	reg, err := srv.Registry().Get(token)
	require.NoError(t, err)
	assert.ElementsMatch(t, append(expectedTopics, topics.DebugTopic), reg.Topics)
	assert.Zero(t, a.Coordinator().Stats().Failures)

	saved, err := a.Store().Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, expectedTopics, saved)
}

func TestAgent_FileStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	fake := &fakeMessaging{}
	cfg := testConfig()
	cfg.Provider.Name = config.ProviderFirebase
	cfg.Provider.DeviceToken = "fcm-token"
	cfg.Store.Backend = config.StoreFile
	cfg.Store.Path = "/var/lib/cnotify/preferences.json"

	ctx := context.Background()
	a, err := New(cfg, WithFs(fs), WithEnv(env(usEnglish)), WithMessagingClient(fake))
	require.NoError(t, err)
	require.NoError(t, a.Start(ctx))
	a.Wait()
	require.NoError(t, a.Close())

	again, err := topicstore.NewFileStore(fs, cfg.Store.Path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, expectedTopics, again)
}

func TestAgent_RedisStore(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"bare_key", ""},
		{"prefixed_key", "device-42:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr := miniredis.RunT(t)
			fake := &fakeMessaging{}
			cfg := testConfig()
			cfg.Provider.Name = config.ProviderFirebase
			cfg.Provider.DeviceToken = "fcm-token"
			cfg.Store.Backend = config.StoreRedis
			cfg.Store.RedisAddr = mr.Addr()
			cfg.Store.KeyPrefix = tt.prefix

			a, err := New(cfg, WithEnv(env(usEnglish)), WithMessagingClient(fake))
			require.NoError(t, err)
			require.NoError(t, a.Start(context.Background()))
			a.Wait()
			require.NoError(t, a.Close())

			list, err := mr.List(tt.prefix + topicstorepkg.SubscribedTopicsKey)
			require.NoError(t, err)
			assert.Equal(t, expectedTopics, list)
		})
	}
}

func TestAgent_Lifecycle(t *testing.T) {
	a, err := New(testConfig(), WithMessagingClient(&fakeMessaging{}))
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.ErrorIs(t, a.Start(context.Background()), ErrAgentClosed)
}
