package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/cnotify-go/internal/agent"
	"github.com/rmacdonaldsmith/cnotify-go/internal/config"
	"github.com/rmacdonaldsmith/cnotify-go/pkg/topicstore"
)

func newStateCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the persisted topic list",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore := agent.OpenStore(c.config, c.fs)
			defer closeStore()

			saved, err := store.Load(contextOrBackground(cmd))
			if err != nil {
				return fmt.Errorf("failed to load topics: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "📦 Store: %s\n", describeStore(c.config))
			if len(saved) == 0 {
				fmt.Fprintf(out, "📭 No topics persisted\n")
				return nil
			}
			for _, topic := range saved {
				fmt.Fprintf(out, "  %s\n", topic)
			}
			return nil
		},
	}
}

func newResetCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the persisted topic list",
		Long: `Clears the persisted topic list so the next run treats every computed
topic as new. Provider subscriptions are left as they are.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore := agent.OpenStore(c.config, c.fs)
			defer closeStore()

			if err := store.Clear(contextOrBackground(cmd)); err != nil {
				return fmt.Errorf("failed to clear %s: %w", topicstore.SubscribedTopicsKey, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🧹 Cleared persisted topics from %s\n", describeStore(c.config))
			return nil
		},
	}
}

func describeStore(cfg *config.Config) string {
	switch cfg.Store.Backend {
	case config.StoreFile:
		return "file " + cfg.Store.Path
	case config.StoreRedis:
		return "redis " + cfg.Store.RedisAddr
	default:
		return cfg.Store.Backend
	}
}
