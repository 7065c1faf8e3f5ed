package relay

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer is stamped into and required on every relay token.
const tokenIssuer = "cnotify-relay"

// DefaultTokenTTL is how long an access token stays valid.
const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrEmptyToken is returned when no token was presented
	ErrEmptyToken = errors.New("token cannot be empty")
	// ErrInvalidClaims is returned when a token carries unexpected claims
	ErrInvalidClaims = errors.New("invalid token claims")
)

// Claims are the relay access token claims. The subject is the client ID.
type Claims struct {
	IsAdmin bool `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// ClientID returns the authenticated client.
func (c *Claims) ClientID() string {
	return c.Subject
}

// Authenticator issues and verifies HS256 access tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthenticator creates an authenticator. A non-positive ttl means
// DefaultTokenTTL.
func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Authenticator{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue creates a signed token for clientID.
func (a *Authenticator) Issue(clientID string, isAdmin bool) (string, time.Time, error) {
	if clientID == "" {
		return "", time.Time{}, ErrEmptyClientID
	}

	now := a.now()
	expiresAt := now.Add(a.ttl)
	claims := Claims{
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses a token, optionally prefixed with "Bearer ", and returns its
// claims.
func (a *Authenticator) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if raw == "" {
		return nil, ErrEmptyToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(token *jwt.Token) (interface{}, error) {
			return a.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
