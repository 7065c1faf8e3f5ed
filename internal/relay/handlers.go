package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"sort"

	"go.uber.org/zap"
)

// Handlers serves the relay API over a Registry.
type Handlers struct {
	registry      *Registry
	auth          *Authenticator
	adminClientID string
	logger        *zap.Logger
}

// NewHandlers returns handlers; adminClientID names the client granted admin tokens.
func NewHandlers(registry *Registry, auth *Authenticator, adminClientID string, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		registry:      registry,
		auth:          auth,
		adminClientID: adminClientID,
		logger:        logger,
	}
}

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := validateJSON(r); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.ClientID) < 2 {
		writeError(w, "clientId must be at least 2 characters", http.StatusBadRequest)
		return
	}

	isAdmin := req.ClientID == h.adminClientID
	token, expiresAt, err := h.auth.Issue(req.ClientID, isAdmin)
	if err != nil {
		writeError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	h.logger.Info("client authenticated",
		zap.String("client_id", req.ClientID),
		zap.Bool("admin", isAdmin))

	writeJSON(w, AuthResponse{
		Token:     token,
		ClientID:  req.ClientID,
		ExpiresAt: expiresAt,
	}, http.StatusOK)
}

// CreateRegistration handles POST /api/v1/registrations
func (h *Handlers) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r)
	if claims == nil {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	reg, err := h.registry.Register(claims.ClientID())
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("device registered",
		zap.String("client_id", reg.ClientID),
		zap.String("device_token", reg.DeviceToken))

	writeJSON(w, RegistrationResponse{
		DeviceToken: reg.DeviceToken,
		ClientID:    reg.ClientID,
		CreatedAt:   reg.CreatedAt,
	}, http.StatusCreated)
}

// DeleteRegistration handles DELETE /api/v1/registrations/{token}
func (h *Handlers) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.ownedRegistration(w, r)
	if !ok {
		return
	}

	if err := h.registry.Delete(reg.DeviceToken); err != nil {
		h.writeRegistryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTopics handles GET /api/v1/registrations/{token}/topics
func (h *Handlers) ListTopics(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.ownedRegistration(w, r)
	if !ok {
		return
	}

	writeJSON(w, TopicsResponse{
		DeviceToken: reg.DeviceToken,
		Topics:      reg.Topics,
	}, http.StatusOK)
}

// SubscribeTopic handles PUT /api/v1/registrations/{token}/topics/{topic}
func (h *Handlers) SubscribeTopic(w http.ResponseWriter, r *http.Request) {
	h.changeTopic(w, r, true)
}

// UnsubscribeTopic handles DELETE /api/v1/registrations/{token}/topics/{topic}
func (h *Handlers) UnsubscribeTopic(w http.ResponseWriter, r *http.Request) {
	h.changeTopic(w, r, false)
}

func (h *Handlers) changeTopic(w http.ResponseWriter, r *http.Request, subscribe bool) {
	reg, ok := h.ownedRegistration(w, r)
	if !ok {
		return
	}

	topic := r.PathValue("topic")
	var err error
	if subscribe {
		err = h.registry.Subscribe(reg.DeviceToken, topic)
	} else {
		err = h.registry.Unsubscribe(reg.DeviceToken, topic)
	}
	if err != nil {
		h.writeRegistryError(w, err)
		return
	}

	h.logger.Debug("topic changed",
		zap.String("device_token", reg.DeviceToken),
		zap.String("topic", topic),
		zap.Bool("subscribed", subscribe))

	writeJSON(w, TopicOperationResponse{
		DeviceToken: reg.DeviceToken,
		Topic:       topic,
		Subscribed:  subscribe,
	}, http.StatusOK)
}

// AdminTopics handles GET /api/v1/admin/topics
func (h *Handlers) AdminTopics(w http.ResponseWriter, r *http.Request) {
	counts := h.registry.SubscriberCounts()

	resp := AdminTopicsResponse{Topics: make([]TopicInfo, 0, len(counts))}
	for topic, n := range counts {
		resp.Topics = append(resp.Topics, TopicInfo{Topic: topic, Subscribers: n})
	}
	sort.Slice(resp.Topics, func(i, j int) bool {
		return resp.Topics[i].Topic < resp.Topics[j].Topic
	})

	writeJSON(w, resp, http.StatusOK)
}

// Health handles GET /api/v1/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	registrations, topics := h.registry.Counts()
	writeJSON(w, HealthResponse{
		Healthy:       true,
		Registrations: registrations,
		Topics:        topics,
		Message:       "relay is healthy",
	}, http.StatusOK)
}

// ownedRegistration resolves {token} and checks it belongs to the caller.
// Admins may act on any registration.
func (h *Handlers) ownedRegistration(w http.ResponseWriter, r *http.Request) (Registration, bool) {
	claims := GetClaims(r)
	if claims == nil {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return Registration{}, false
	}

	reg, err := h.registry.Get(r.PathValue("token"))
	if err != nil {
		h.writeRegistryError(w, err)
		return Registration{}, false
	}
	if reg.ClientID != claims.ClientID() && !claims.IsAdmin {
		writeError(w, "Registration belongs to another client", http.StatusForbidden)
		return Registration{}, false
	}
	return reg, true
}

func (h *Handlers) writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownRegistration):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidTopic), errors.Is(err, ErrEmptyClientID):
		writeError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("registry failure", zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// validateJSON rejects bodies not declared as application/json.
func validateJSON(r *http.Request) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("Content-Type must be application/json")
	}
	return nil
}
