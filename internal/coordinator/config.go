package coordinator

import (
	"errors"
	"time"
)

const (
	// DefaultMaxAttempts bounds the token-availability poll.
	DefaultMaxAttempts = 5

	// DefaultRetryDelay spaces token-availability polls.
	DefaultRetryDelay = 2 * time.Second
)

var (
	// ErrInvalidMaxAttempts is returned when MaxAttempts is negative
	ErrInvalidMaxAttempts = errors.New("max attempts cannot be negative")
	// ErrInvalidRetryDelay is returned when RetryDelay is negative
	ErrInvalidRetryDelay = errors.New("retry delay cannot be negative")
)

// Locale holds the generator inputs. Fallbacks are applied by the caller.
type Locale struct {
	Language   string
	Country    string
	AppVersion string
}

// Config holds configuration for a Coordinator
type Config struct {
	// Locale feeds the topic generator
	Locale Locale

	// MaxAttempts is the number of token polls before giving up
	MaxAttempts int

	// RetryDelay is the spacing between token polls
	RetryDelay time.Duration

	// Testing subscribes the debug topic on every reconciliation
	Testing bool
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.MaxAttempts < 0 {
		return ErrInvalidMaxAttempts
	}
	if c.RetryDelay < 0 {
		return ErrInvalidRetryDelay
	}
	return nil
}

// SetDefaults sets sensible default values for unset configuration fields
func (c *Config) SetDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
}
