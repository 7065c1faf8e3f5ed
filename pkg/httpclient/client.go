package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// ErrNotAuthenticated is returned by calls that need a token before
// Authenticate succeeded.
var ErrNotAuthenticated = errors.New("client not authenticated - call Authenticate() first")

// Client provides HTTP client for the relay API. It is safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	baseURL    *url.URL

	mu    sync.RWMutex
	token string
}

// NewClient validates config and returns a client for the relay at ServerURL.
func NewClient(config Config) (*Client, error) {
	config.SetDefaults()

	if config.ServerURL == "" {
		return nil, fmt.Errorf("ServerURL is required")
	}
	if config.ClientID == "" {
		return nil, fmt.Errorf("ClientID is required")
	}

	baseURL, err := url.Parse(config.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ServerURL: %w", err)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    baseURL,
	}, nil
}

// Authenticate logs in as the configured client and stores the token
func (c *Client) Authenticate(ctx context.Context) error {
	authReq := map[string]string{
		"clientId": c.config.ClientID,
	}

	var authResp AuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", authReq, &authResp, false); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	c.SetToken(authResp.Token)
	return nil
}

// Register asks the relay for a new device token
func (c *Client) Register(ctx context.Context) (*RegistrationResponse, error) {
	var resp RegistrationResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/registrations", nil, &resp, true); err != nil {
		return nil, fmt.Errorf("failed to register device: %w", err)
	}
	return &resp, nil
}

// DeleteRegistration drops a device token and all its subscriptions
func (c *Client) DeleteRegistration(ctx context.Context, deviceToken string) error {
	if err := c.doRequest(ctx, http.MethodDelete, registrationPath(deviceToken), nil, nil, true); err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	return nil
}

// ListTopics returns the topics deviceToken is subscribed to
func (c *Client) ListTopics(ctx context.Context, deviceToken string) (*TopicsResponse, error) {
	var resp TopicsResponse
	if err := c.doRequest(ctx, http.MethodGet, registrationPath(deviceToken)+"/topics", nil, &resp, true); err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return &resp, nil
}

// Subscribe adds deviceToken to topic
func (c *Client) Subscribe(ctx context.Context, deviceToken, topic string) (*TopicOperationResponse, error) {
	var resp TopicOperationResponse
	if err := c.doRequest(ctx, http.MethodPut, topicPath(deviceToken, topic), nil, &resp, true); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return &resp, nil
}

// Unsubscribe removes deviceToken from topic
func (c *Client) Unsubscribe(ctx context.Context, deviceToken, topic string) (*TopicOperationResponse, error) {
	var resp TopicOperationResponse
	if err := c.doRequest(ctx, http.MethodDelete, topicPath(deviceToken, topic), nil, &resp, true); err != nil {
		return nil, fmt.Errorf("failed to unsubscribe from %s: %w", topic, err)
	}
	return &resp, nil
}

// GetHealth needs no token.
func (c *Client) GetHealth(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, &resp, false); err != nil {
		return nil, fmt.Errorf("failed to get health status: %w", err)
	}
	return &resp, nil
}

// AdminListTopics returns every topic with its subscriber count (admin only)
func (c *Client) AdminListTopics(ctx context.Context) (*AdminTopicsResponse, error) {
	var resp AdminTopicsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/admin/topics", nil, &resp, true); err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return &resp, nil
}

// IsAuthenticated reports whether a token is held. It does not check expiry.
func (c *Client) IsAuthenticated() bool {
	return c.GetToken() != ""
}

// GetToken returns the held access token.
func (c *Client) GetToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the held access token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func registrationPath(deviceToken string) string {
	return "/api/v1/registrations/" + url.PathEscape(deviceToken)
}

func topicPath(deviceToken, topic string) string {
	return registrationPath(deviceToken) + "/topics/" + url.PathEscape(topic)
}

// doRequest performs a JSON request, retrying transport failures and
// gateway errors up to MaxRetries times.
func (c *Client) doRequest(ctx context.Context, method, path string, reqBody, respBody interface{}, requireAuth bool) error {
	var token string
	if requireAuth {
		if token = c.GetToken(); token == "" {
			return ErrNotAuthenticated
		}
	}

	var payload []byte
	if reqBody != nil {
		var err error
		if payload, err = json.Marshal(reqBody); err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var err error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.RetryBackoff):
			}
		}

		var retry bool
		retry, err = c.roundTrip(ctx, method, path, payload, respBody, token)
		if !retry {
			return err
		}
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, respBody interface{}, token string) (retry bool, err error) {
	ref, err := url.Parse(path)
	if err != nil {
		return false, fmt.Errorf("invalid path %q: %w", path, err)
	}
	fullURL := c.baseURL.ResolveReference(ref)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL.String(), body)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp ErrorResponse
		if json.Unmarshal(bodyBytes, &errResp) == nil {
			apiErr.Message = errResp.Message
		}
		switch resp.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true, apiErr
		}
		return false, apiErr
	}

	if respBody != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, respBody); err != nil {
			return false, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return false, nil
}
