package relay

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type testRelay struct {
	Server *Server
	HTTP   *httptest.Server
}

func newTestRelay(t *testing.T, config Config) *testRelay {
	t.Helper()

	config.SecretKey = "test-secret-key"
	srv := NewServer(NewRegistry(), config, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testRelay{Server: srv, HTTP: ts}
}

func (tr *testRelay) token(t *testing.T, clientID string, isAdmin bool) string {
	t.Helper()

	token, _, err := tr.Server.auth.Issue(clientID, isAdmin)
	require.NoError(t, err)
	return token
}

func (tr *testRelay) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, tr.HTTP.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tr.HTTP.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}
