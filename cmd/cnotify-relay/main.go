package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rmacdonaldsmith/cnotify-go/internal/logging"
	"github.com/rmacdonaldsmith/cnotify-go/internal/relay"
)

const (
	appName    = "cnotify-relay"
	appVersion = "0.1.0"
)

type options struct {
	port          string
	secretKey     string
	adminClientID string
	tokenTTL      time.Duration
	noAuth        bool
	logLevel      string
	logFormat     string
	showVersion   bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.port, "port", envOr("CNOTIFY_RELAY_PORT", relay.DefaultPort), "HTTP listen port")
	fs.StringVar(&o.secretKey, "secret-key", os.Getenv("CNOTIFY_RELAY_SECRET"), "JWT signing key (development default when empty)")
	fs.StringVar(&o.adminClientID, "admin-client", relay.DefaultAdminClientID, "Client ID granted admin tokens")
	fs.DurationVar(&o.tokenTTL, "token-ttl", relay.DefaultTokenTTL, "Access token lifetime")
	fs.BoolVar(&o.noAuth, "no-auth", false, "Accept unauthenticated registration calls (development only)")
	fs.StringVar(&o.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&o.logFormat, "log-format", "console", "Log format: console or json")
	fs.BoolVar(&o.showVersion, "version", false, "Show version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if opts.showVersion {
		fmt.Printf("%s v%s\n", appName, appVersion)
		return
	}

	root, err := logging.New(logging.Config{Level: opts.logLevel, Format: opts.logFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Invalid logging configuration: %v\n", err)
		os.Exit(2)
	}
	defer root.Sync()
	logger := logging.For(root, logging.ComponentRelay)

	logger.Info("🚀 Starting relay", zap.String("version", appVersion), zap.String("port", opts.port))
	if opts.noAuth {
		logger.Warn("⚠️  Authentication disabled, registration endpoints are open")
	}
	if opts.secretKey == "" {
		logger.Warn("⚠️  Using the development signing key, set --secret-key in production")
	}

	server := newServer(opts, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("❌ Relay server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("🛑 Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			logger.Error("⚠️  Error during graceful stop", zap.Error(err))
		}
	}

	registrations, topics := server.Registry().Counts()
	logger.Info("👋 Relay stopped",
		zap.Int("registrations", registrations),
		zap.Int("topics", topics))
}

func newServer(opts *options, logger *zap.Logger) *relay.Server {
	return relay.NewServer(relay.NewRegistry(), relay.Config{
		Port:          opts.port,
		SecretKey:     opts.secretKey,
		TokenTTL:      opts.tokenTTL,
		NoAuth:        opts.noAuth,
		AdminClientID: opts.adminClientID,
	}, logger)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
