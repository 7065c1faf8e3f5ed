package relay

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	relayserver "github.com/rmacdonaldsmith/cnotify-go/internal/relay"
	"github.com/rmacdonaldsmith/cnotify-go/pkg/httpclient"
)

func newRelay(t *testing.T) (*relayserver.Server, *httpclient.Client) {
	t.Helper()

	srv := relayserver.NewServer(nil, relayserver.Config{SecretKey: "test-secret"}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := httpclient.NewClient(httpclient.Config{
		ServerURL:    ts.URL,
		ClientID:     "device-client",
		RetryBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	return srv, client
}

func TestGateway_RegisterThenSubscribe(t *testing.T) {
	srv, client := newRelay(t)
	g := New(client)
	ctx := context.Background()

	assert.False(t, g.TokenAvailable())
	assert.ErrorIs(t, <-g.Subscribe(ctx, "eruka_lang-en_audall_users"), ErrNoDeviceToken)

	reg := <-g.Register(ctx)
	require.NoError(t, reg.Err)
	require.NotEmpty(t, reg.DeviceToken)
	assert.False(t, g.TokenAvailable(), "registration result is forwarded by the caller")

	g.SetDeviceToken(reg.DeviceToken)
	assert.True(t, g.TokenAvailable())

	res := <-g.FetchToken(ctx)
	require.NoError(t, res.Err)
	assert.Equal(t, reg.DeviceToken, res.Token)

	require.NoError(t, <-g.Subscribe(ctx, "eruka_lang-en_audall_users"))
	require.NoError(t, <-g.Subscribe(ctx, "eruka_lang-en_aud-version-1.0"))
	require.NoError(t, <-g.Unsubscribe(ctx, "eruka_lang-en_aud-version-1.0"))
	assert.Error(t, <-g.Subscribe(ctx, "eruka_lang-en_aud-country-??"))

	got, err := srv.Registry().Get(reg.DeviceToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"eruka_lang-en_audall_users"}, got.Topics)
}

func TestGateway_RegisterWithKnownToken(t *testing.T) {
	_, client := newRelay(t)
	g := New(client, WithDeviceToken("preset"))

	reg := <-g.Register(context.Background())
	require.NoError(t, reg.Err)
	assert.Equal(t, "preset", reg.DeviceToken)
	assert.False(t, client.IsAuthenticated())
}

func TestGateway_FetchUnknownToken(t *testing.T) {
	_, client := newRelay(t)
	g := New(client, WithDeviceToken("never-issued"))

	res := <-g.FetchToken(context.Background())
	assert.ErrorIs(t, res.Err, ErrUnknownDevice)
	assert.Empty(t, res.Token)
}

func TestGateway_FetchWithoutToken(t *testing.T) {
	_, client := newRelay(t)

	res := <-New(client).FetchToken(context.Background())
	assert.ErrorIs(t, res.Err, ErrNoDeviceToken)
}

func TestGateway_ReauthenticatesOnRejectedToken(t *testing.T) {
	srv, client := newRelay(t)
	reg, err := srv.Registry().Register("device-client")
	require.NoError(t, err)

	client.SetToken("stale-token")
	g := New(client, WithDeviceToken(reg.DeviceToken))

	require.NoError(t, <-g.Subscribe(context.Background(), "eruka_lang-en_audall_users"))
	assert.NotEqual(t, "stale-token", client.GetToken())
}

func TestGateway_Unregister(t *testing.T) {
	srv, client := newRelay(t)
	g := New(client)
	ctx := context.Background()

	assert.ErrorIs(t, g.Unregister(ctx), ErrNoDeviceToken)

	reg := <-g.Register(ctx)
	require.NoError(t, reg.Err)
	g.SetDeviceToken(reg.DeviceToken)

	require.NoError(t, g.Unregister(ctx))
	assert.False(t, g.TokenAvailable())
	_, err := srv.Registry().Get(reg.DeviceToken)
	assert.ErrorIs(t, err, relayserver.ErrUnknownRegistration)
}
