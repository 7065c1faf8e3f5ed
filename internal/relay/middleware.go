package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ContextKey namespaces values the relay stores in a request context.
type ContextKey string

// ClaimsKey is the context key for the authenticated token claims
const ClaimsKey ContextKey = "relay_claims"

// devClientID is the client every request runs as when authentication is off.
const devClientID = "dev-client"

// Middleware wraps relay handlers with auth, CORS and request logging.
type Middleware struct {
	auth   *Authenticator
	noAuth bool
	logger *zap.Logger
}

// NewMiddleware returns middleware verifying tokens with auth.
func NewMiddleware(auth *Authenticator, noAuth bool, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{
		auth:   auth,
		noAuth: noAuth,
		logger: logger,
	}
}

// AuthRequired rejects requests without a valid access token. In no-auth
// mode every request runs as the development client.
func (m *Middleware) AuthRequired(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.noAuth {
			claims := &Claims{}
			claims.Subject = devClientID
			next(w, withClaims(r, claims))
			return
		}

		claims, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		next(w, withClaims(r, claims))
	}
}

// AdminRequired requires an admin token. Admin endpoints are never opened
// by no-auth mode.
func (m *Middleware) AdminRequired(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		if !claims.IsAdmin {
			writeError(w, "Admin privileges required", http.StatusForbidden)
			return
		}
		next(w, withClaims(r, claims))
	}
}

// CORS allows any origin and answers preflight requests directly.
func (m *Middleware) CORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

// ContentType marks every response as JSON.
func (m *Middleware) ContentType(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next(w, r)
	}
}

// Logging logs one line per request.
func (m *Middleware) Logging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		m.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	}
}

// Recovery turns a handler panic into a logged 500.
func (m *Middleware) Recovery(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				m.logger.Error("handler panic",
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec))
				writeError(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}

func (m *Middleware) authenticate(w http.ResponseWriter, r *http.Request) (*Claims, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		writeError(w, "Authorization header required", http.StatusUnauthorized)
		return nil, false
	}

	claims, err := m.auth.Verify(header)
	if err != nil {
		writeError(w, err.Error(), http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}

// GetClaims returns the claims AuthRequired attached, or nil.
func GetClaims(r *http.Request) *Claims {
	if claims, ok := r.Context().Value(ClaimsKey).(*Claims); ok {
		return claims
	}
	return nil
}

func withClaims(r *http.Request, claims *Claims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ClaimsKey, claims))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}, statusCode)
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
