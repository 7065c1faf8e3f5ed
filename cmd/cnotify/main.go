package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rmacdonaldsmith/cnotify-go/internal/config"
	"github.com/rmacdonaldsmith/cnotify-go/internal/logging"
)

const (
	appName    = "cnotify"
	appVersion = "0.1.0"
)

// cli carries global flags and the loaded configuration for subcommands.
type cli struct {
	configPath string
	envFile    string
	logLevel   string
	storeFlag  string

	fs     afero.Fs
	lookup func(string) string
	config *config.Config
}

func main() {
	if err := newRootCommand(&cli{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Locale-driven push topic subscriptions",
		Long: `cnotify keeps a device subscribed to the push topics derived from its
language, country and app version. It reconciles the computed topics with the
last persisted set once per run and talks to a cnotify relay or to Firebase
Cloud Messaging.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
	}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before reading CNOTIFY_* variables")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Override the configured log level")
	rootCmd.PersistentFlags().StringVar(&c.storeFlag, "store", "", "Override the store backend: memory, file or redis")

	rootCmd.AddCommand(newRunCommand(c))
	rootCmd.AddCommand(newTopicsCommand(c))
	rootCmd.AddCommand(newStateCommand(c))
	rootCmd.AddCommand(newResetCommand(c))
	rootCmd.AddCommand(newRelayCommand(c))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// loadConfig reads the dotenv file, the config file and the environment.
func (c *cli) loadConfig(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "version" {
		return nil
	}

	if c.lookup == nil {
		if err := config.LoadDotEnv(c.envFile); err != nil {
			return err
		}
		c.lookup = os.Getenv
	}

	lookup := c.lookup
	if c.storeFlag != "" {
		lookup = func(key string) string {
			if key == "CNOTIFY_STORE" {
				return c.storeFlag
			}
			return c.lookup(key)
		}
	}

	cfg, err := config.Load(c.fs, c.configPath, lookup)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	c.config = cfg
	return nil
}

func (c *cli) logger() (*zap.Logger, error) {
	root, err := logging.New(c.config.Logging)
	if err != nil {
		return nil, err
	}
	return root, nil
}
