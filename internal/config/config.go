// Package config loads agent configuration from a YAML file and CNOTIFY_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/rmacdonaldsmith/cnotify-go/internal/coordinator"
	"github.com/rmacdonaldsmith/cnotify-go/internal/locale"
	"github.com/rmacdonaldsmith/cnotify-go/internal/logging"
)

// Provider names
const (
	ProviderRelay    = "relay"
	ProviderFirebase = "firebase"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Defaults
const (
	DefaultRelayURL  = "http://localhost:8082"
	DefaultClientID  = "cnotify-agent"
	defaultStoreFile = "preferences.json"
)

var (
	// ErrConfigUnavailable is returned when an explicitly named file cannot
	// be read
	ErrConfigUnavailable = errors.New("configuration unavailable")
	// ErrRelayURLRequired is returned when the relay provider has no URL
	ErrRelayURLRequired = errors.New("relay_url is required for the relay provider")
	// ErrRedisAddrRequired is returned when the redis store has no address
	ErrRedisAddrRequired = errors.New("redis_addr is required for the redis store")
)

// ProviderConfig selects and configures the push provider.
type ProviderConfig struct {
	Name        string `yaml:"name" validate:"oneof=relay firebase"`
	ConfigFile  string `yaml:"config_file"`
	DeviceToken string `yaml:"device_token"`
	RelayURL    string `yaml:"relay_url" validate:"omitempty,url"`
	ClientID    string `yaml:"client_id"`
}

// StoreConfig selects where subscribed topics are persisted.
type StoreConfig struct {
	Backend       string `yaml:"backend" validate:"oneof=memory file redis"`
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"min=0"`
	// KeyPrefix namespaces the Redis key; empty keeps the bare key
	KeyPrefix     string `yaml:"key_prefix"`
}

// LocaleConfig overrides detected locale values.
type LocaleConfig struct {
	Language   string `yaml:"language"`
	Country    string `yaml:"country"`
	AppVersion string `yaml:"app_version"`
}

// RetryConfig bounds the device token poll.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" validate:"min=0"`
	Delay       time.Duration `yaml:"delay" validate:"min=0"`
}

// Config is the agent configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Store    StoreConfig    `yaml:"store"`
	Locale   LocaleConfig   `yaml:"locale"`
	Retry    RetryConfig    `yaml:"retry"`
	Testing  bool           `yaml:"testing"`
	Logging  logging.Config `yaml:"logging"`
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Provider.Name == "" {
		c.Provider.Name = ProviderRelay
	}
	if c.Provider.Name == ProviderRelay && c.Provider.RelayURL == "" {
		c.Provider.RelayURL = DefaultRelayURL
	}
	if c.Provider.ClientID == "" {
		c.Provider.ClientID = DefaultClientID
	}
	if c.Store.Backend == "" {
		c.Store.Backend = StoreFile
	}
	if c.Store.Backend == StoreFile && c.Store.Path == "" {
		c.Store.Path = DefaultStorePath()
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = coordinator.DefaultMaxAttempts
	}
	if c.Retry.Delay == 0 {
		c.Retry.Delay = coordinator.DefaultRetryDelay
	}
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Provider.Name == ProviderRelay && c.Provider.RelayURL == "" {
		return ErrRelayURLRequired
	}
	if c.Store.Backend == StoreRedis && c.Store.RedisAddr == "" {
		return ErrRedisAddrRequired
	}
	return nil
}

// Coordinator derives the coordinator configuration, resolving the locale
// through lookup (os.Getenv when nil).
func (c *Config) Coordinator(lookup func(string) string) coordinator.Config {
	return coordinator.Config{
		Locale: locale.Resolve(locale.Overrides{
			Language:   c.Locale.Language,
			Country:    c.Locale.Country,
			AppVersion: c.Locale.AppVersion,
		}, lookup),
		MaxAttempts: c.Retry.MaxAttempts,
		RetryDelay:  c.Retry.Delay,
		Testing:     c.Testing,
	}
}

// DefaultStorePath is preferences.json under the user config directory,
// falling back to the working directory.
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return defaultStoreFile
	}
	return filepath.Join(dir, "cnotify", defaultStoreFile)
}

// Load reads path from fs (the OS filesystem when nil), applies environment
// overrides read through lookup (os.Getenv when nil), sets defaults and
// validates. An empty path skips the file.
func Load(fs afero.Fs, path string, lookup func(string) string) (*Config, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if lookup == nil {
		lookup = os.Getenv
	}

	cfg := &Config{}
	if path != "" {
		f, err := fs.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
		}
		defer f.Close()
		if err := DecodeStrict(f, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DecodeStrict decodes YAML and rejects unknown keys. An empty document
// leaves out untouched.
func DecodeStrict(r io.Reader, out interface{}) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadDotEnv loads KEY=value files into the process environment without
// overriding variables already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from CNOTIFY_* variables.
func (c *Config) ApplyEnv(lookup func(string) string) error {
	strs := map[string]*string{
		"CNOTIFY_PROVIDER":         &c.Provider.Name,
		"CNOTIFY_CREDENTIALS_FILE": &c.Provider.ConfigFile,
		"CNOTIFY_DEVICE_TOKEN":     &c.Provider.DeviceToken,
		"CNOTIFY_RELAY_URL":        &c.Provider.RelayURL,
		"CNOTIFY_CLIENT_ID":        &c.Provider.ClientID,
		"CNOTIFY_STORE":            &c.Store.Backend,
		"CNOTIFY_STORE_PATH":       &c.Store.Path,
		"CNOTIFY_REDIS_ADDR":       &c.Store.RedisAddr,
		"CNOTIFY_REDIS_PASSWORD":   &c.Store.RedisPassword,
		"CNOTIFY_REDIS_KEY_PREFIX": &c.Store.KeyPrefix,
		"CNOTIFY_LANGUAGE":         &c.Locale.Language,
		"CNOTIFY_COUNTRY":          &c.Locale.Country,
		"CNOTIFY_APP_VERSION":      &c.Locale.AppVersion,
		"CNOTIFY_LOG_LEVEL":        &c.Logging.Level,
		"CNOTIFY_LOG_FORMAT":       &c.Logging.Format,
	}
	for key, field := range strs {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			*field = v
		}
	}

	if v := lookup("CNOTIFY_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CNOTIFY_REDIS_DB: %w", err)
		}
		c.Store.RedisDB = n
	}
	if v := lookup("CNOTIFY_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CNOTIFY_MAX_ATTEMPTS: %w", err)
		}
		c.Retry.MaxAttempts = n
	}
	if v := lookup("CNOTIFY_RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CNOTIFY_RETRY_DELAY: %w", err)
		}
		c.Retry.Delay = d
	}
	if v := lookup("CNOTIFY_TESTING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CNOTIFY_TESTING: %w", err)
		}
		c.Testing = b
	}
	return nil
}
