package httpclient

import (
	"fmt"
	"net/http"
	"time"
)

// Config holds client configuration
type Config struct {
	// ServerURL is the base URL of the relay HTTP API (e.g., "http://localhost:8082")
	ServerURL string

	// ClientID is the identifier this client authenticates as
	ClientID string

	// Timeout for HTTP requests
	Timeout time.Duration

	// MaxRetries for requests that failed in transport or with 502/503/504
	MaxRetries int

	// RetryBackoff is the pause before each retry
	RetryBackoff time.Duration
}

// SetDefaults sets reasonable default values for the config
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 200 * time.Millisecond
	}
}

// AuthResponse represents the response from authentication
type AuthResponse struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"clientId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RegistrationResponse describes a device registration
type RegistrationResponse struct {
	DeviceToken string    `json:"deviceToken"`
	ClientID    string    `json:"clientId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TopicsResponse lists the topics a device is subscribed to
type TopicsResponse struct {
	DeviceToken string   `json:"deviceToken"`
	Topics      []string `json:"topics"`
}

// TopicOperationResponse acknowledges a subscribe or unsubscribe
type TopicOperationResponse struct {
	DeviceToken string `json:"deviceToken"`
	Topic       string `json:"topic"`
	Subscribed  bool   `json:"subscribed"`
}

// AdminTopicsResponse lists every topic with subscribers
type AdminTopicsResponse struct {
	Topics []TopicInfo `json:"topics"`
}

// TopicInfo is one topic and its subscriber count
type TopicInfo struct {
	Topic       string `json:"topic"`
	Subscribers int    `json:"subscribers"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Healthy       bool   `json:"healthy"`
	Registrations int    `json:"registrations"`
	Topics        int    `json:"topics"`
	Message       string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// APIError is returned for responses with a status of 400 or above.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (%d): %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}
