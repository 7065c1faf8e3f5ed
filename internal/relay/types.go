package relay

import "time"

// Request/Response types for the relay HTTP API

// AuthRequest is a login request
type AuthRequest struct {
	ClientID string `json:"clientId"`
}

// AuthResponse carries an access token
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

// AdminTopicsResponse is the admin view of every topic with subscribers
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
