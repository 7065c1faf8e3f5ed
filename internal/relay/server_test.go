package relay

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_Defaults(t *testing.T) {
	srv := NewServer(nil, Config{}, nil)

	assert.NotNil(t, srv.Registry())
	assert.NotNil(t, srv.Handler())
	assert.Equal(t, ":"+DefaultPort, srv.Addr())
}

func TestLogin(t *testing.T) {
	tr := newTestRelay(t, Config{})

	t.Run("issues token", func(t *testing.T) {
		resp := tr.do(t, http.MethodPost, "/api/v1/auth/login", "", AuthRequest{ClientID: "device-client"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decode[AuthResponse](t, resp)
		assert.Equal(t, "device-client", body.ClientID)

		claims, err := tr.Server.auth.Verify(body.Token)
		require.NoError(t, err)
		assert.False(t, claims.IsAdmin)
	})

	t.Run("admin client gets admin token", func(t *testing.T) {
		resp := tr.do(t, http.MethodPost, "/api/v1/auth/login", "", AuthRequest{ClientID: DefaultAdminClientID})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		claims, err := tr.Server.auth.Verify(decode[AuthResponse](t, resp).Token)
		require.NoError(t, err)
		assert.True(t, claims.IsAdmin)
	})

	t.Run("short client id", func(t *testing.T) {
		resp := tr.do(t, http.MethodPost, "/api/v1/auth/login", "", AuthRequest{ClientID: "x"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong content type", func(t *testing.T) {
		resp, err := tr.HTTP.Client().Post(tr.HTTP.URL+"/api/v1/auth/login", "text/plain", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRegistrationLifecycle(t *testing.T) {
	tr := newTestRelay(t, Config{})
	token := tr.token(t, "device-client", false)

	resp := tr.do(t, http.MethodPost, "/api/v1/registrations", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reg := decode[RegistrationResponse](t, resp)
	require.NotEmpty(t, reg.DeviceToken)

	topicsPath := "/api/v1/registrations/" + reg.DeviceToken + "/topics"

	for _, topic := range []string{"eruka_lang-en_audall_users", "eruka_lang-en_aud-country-US"} {
		resp = tr.do(t, http.MethodPut, topicsPath+"/"+topic, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		op := decode[TopicOperationResponse](t, resp)
		assert.True(t, op.Subscribed)
		assert.Equal(t, topic, op.Topic)
	}

	resp = tr.do(t, http.MethodGet, topicsPath, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t,
		[]string{"eruka_lang-en_aud-country-US", "eruka_lang-en_audall_users"},
		decode[TopicsResponse](t, resp).Topics)

	resp = tr.do(t, http.MethodDelete, topicsPath+"/eruka_lang-en_aud-country-US", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[TopicOperationResponse](t, resp).Subscribed)

	resp = tr.do(t, http.MethodGet, topicsPath, token, nil)
	assert.Equal(t, []string{"eruka_lang-en_audall_users"}, decode[TopicsResponse](t, resp).Topics)

	resp = tr.do(t, http.MethodDelete, "/api/v1/registrations/"+reg.DeviceToken, token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = tr.do(t, http.MethodGet, topicsPath, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTopicErrors(t *testing.T) {
	tr := newTestRelay(t, Config{})
	token := tr.token(t, "device-client", false)
	reg, err := tr.Server.Registry().Register("device-client")
	require.NoError(t, err)

	t.Run("invalid topic", func(t *testing.T) {
		path := "/api/v1/registrations/" + reg.DeviceToken + "/topics/" + url.PathEscape("eruka_lang-en_aud-country-??")
		resp := tr.do(t, http.MethodPut, path, token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, http.StatusBadRequest, decode[ErrorResponse](t, resp).Code)
	})

	t.Run("unknown registration", func(t *testing.T) {
		resp := tr.do(t, http.MethodPut, "/api/v1/registrations/nope/topics/news", token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("foreign registration", func(t *testing.T) {
		other := tr.token(t, "other-client", false)
		resp := tr.do(t, http.MethodGet, "/api/v1/registrations/"+reg.DeviceToken+"/topics", other, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin may inspect any registration", func(t *testing.T) {
		admin := tr.token(t, DefaultAdminClientID, true)
		resp := tr.do(t, http.MethodGet, "/api/v1/registrations/"+reg.DeviceToken+"/topics", admin, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestAuthRequired(t *testing.T) {
	tr := newTestRelay(t, Config{})

	resp := tr.do(t, http.MethodPost, "/api/v1/registrations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = tr.do(t, http.MethodPost, "/api/v1/registrations", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNoAuthMode(t *testing.T) {
	tr := newTestRelay(t, Config{NoAuth: true})

	resp := tr.do(t, http.MethodPost, "/api/v1/registrations", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, devClientID, decode[RegistrationResponse](t, resp).ClientID)

	resp = tr.do(t, http.MethodGet, "/api/v1/admin/topics", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminTopics(t *testing.T) {
	tr := newTestRelay(t, Config{})
	registry := tr.Server.Registry()

	for _, client := range []string{"c1", "c2"} {
		reg, err := registry.Register(client)
		require.NoError(t, err)
		require.NoError(t, registry.Subscribe(reg.DeviceToken, "eruka_lang-en_audall_users"))
	}
	reg, _ := registry.Register("c3")
	require.NoError(t, registry.Subscribe(reg.DeviceToken, "eruka_lang-fr_audall_users"))

	resp := tr.do(t, http.MethodGet, "/api/v1/admin/topics", tr.token(t, "c1", false), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = tr.do(t, http.MethodGet, "/api/v1/admin/topics", tr.token(t, DefaultAdminClientID, true), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []TopicInfo{
		{Topic: "eruka_lang-en_audall_users", Subscribers: 2},
		{Topic: "eruka_lang-fr_audall_users", Subscribers: 1},
	}, decode[AdminTopicsResponse](t, resp).Topics)
}

func TestHealthAndRoot(t *testing.T) {
	tr := newTestRelay(t, Config{})
	_, err := tr.Server.Registry().Register("c1")
	require.NoError(t, err)

	resp := tr.do(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	health := decode[HealthResponse](t, resp)
	assert.True(t, health.Healthy)
	assert.Equal(t, 1, health.Registrations)

	resp = tr.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = tr.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	tr := newTestRelay(t, Config{})

	resp := tr.do(t, http.MethodOptions, "/api/v1/registrations", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
