package relay

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Defaults for Config
const (
	DefaultPort          = "8082"
	DefaultAdminClientID = "admin"
	defaultSecretKey     = "cnotify-relay-dev-secret-change-me"
)

// Server is the relay HTTP endpoint.
type Server struct {
	registry   *Registry
	auth       *Authenticator
	handlers   *Handlers
	middleware *Middleware
	server     *http.Server
	logger     *zap.Logger
}

// Config configures a Server.
type Config struct {
	Port          string
	SecretKey     string
	TokenTTL      time.Duration
	NoAuth        bool
	AdminClientID string
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.SecretKey == "" {
		c.SecretKey = defaultSecretKey
	}
	if c.AdminClientID == "" {
		c.AdminClientID = DefaultAdminClientID
	}
}

// NewServer creates a new relay server over registry. A nil registry gets an
// empty one.
func NewServer(registry *Registry, config Config, logger *zap.Logger) *Server {
	config.SetDefaults()
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	auth := NewAuthenticator(config.SecretKey, config.TokenTTL)
	s := &Server{
		registry:   registry,
		auth:       auth,
		handlers:   NewHandlers(registry, auth, config.AdminClientID, logger),
		middleware: NewMiddleware(auth, config.NoAuth, logger),
		logger:     logger,
	}

	s.server = &http.Server{
		Addr:           ":" + config.Port,
		Handler:        s.setupRoutes(),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
	return s
}

// Handler returns the routed handler, for embedding or httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Registry returns the registry the server serves.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start serves until Stop is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("relay listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	withMiddleware := func(handler http.HandlerFunc) http.Handler {
		return s.middleware.Recovery(
			s.middleware.Logging(
				s.middleware.CORS(
					s.middleware.ContentType(handler))))
	}
	auth := s.middleware.AuthRequired
	admin := s.middleware.AdminRequired

	mux.Handle("POST /api/v1/auth/login", withMiddleware(s.handlers.Login))

	mux.Handle("POST /api/v1/registrations", withMiddleware(auth(s.handlers.CreateRegistration)))
	mux.Handle("DELETE /api/v1/registrations/{token}", withMiddleware(auth(s.handlers.DeleteRegistration)))
	mux.Handle("GET /api/v1/registrations/{token}/topics", withMiddleware(auth(s.handlers.ListTopics)))
	mux.Handle("PUT /api/v1/registrations/{token}/topics/{topic}", withMiddleware(auth(s.handlers.SubscribeTopic)))
	mux.Handle("DELETE /api/v1/registrations/{token}/topics/{topic}", withMiddleware(auth(s.handlers.UnsubscribeTopic)))

	mux.Handle("GET /api/v1/admin/topics", withMiddleware(admin(s.handlers.AdminTopics)))

	mux.Handle("GET /api/v1/health", withMiddleware(s.handlers.Health))
	mux.Handle("/", withMiddleware(s.handleRoot))

	return mux
}

// handleRoot lists the endpoints for anyone poking at the port.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, "Not found", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]interface{}{
		"service":     "cnotify relay",
		"description": "Topic registry emulating a push provider",
		"endpoints": map[string]string{
			"login":       "POST /api/v1/auth/login",
			"register":    "POST /api/v1/registrations",
			"unregister":  "DELETE /api/v1/registrations/{token}",
			"topics":      "GET /api/v1/registrations/{token}/topics",
			"subscribe":   "PUT /api/v1/registrations/{token}/topics/{topic}",
			"unsubscribe": "DELETE /api/v1/registrations/{token}/topics/{topic}",
			"adminTopics": "GET /api/v1/admin/topics",
			"health":      "GET /api/v1/health",
		},
		"authentication": "Bearer JWT token required for registration endpoints",
	}, http.StatusOK)
}
