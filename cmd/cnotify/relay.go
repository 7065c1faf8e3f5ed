package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/cnotify-go/internal/config"
	"github.com/rmacdonaldsmith/cnotify-go/pkg/httpclient"
)

func newRelayCommand(c *cli) *cobra.Command {
	var (
		clientID string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Inspect a cnotify relay",
	}
	cmd.PersistentFlags().StringVar(&clientID, "client-id", "", "Client ID to authenticate as (defaults to the configured one)")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	newClient := func() (*httpclient.Client, error) {
		if c.config.Provider.Name != config.ProviderRelay {
			return nil, fmt.Errorf("provider is %s, not relay", c.config.Provider.Name)
		}
		id := clientID
		if id == "" {
			id = c.config.Provider.ClientID
		}
		return httpclient.NewClient(httpclient.Config{
			ServerURL: c.config.Provider.RelayURL,
			ClientID:  id,
			Timeout:   timeout,
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Check relay health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(contextOrBackground(cmd), timeout)
			defer cancel()

			health, err := client.GetHealth(ctx)
			if err != nil {
				return fmt.Errorf("failed to check health: %w", err)
			}

			out := cmd.OutOrStdout()
			if health.Healthy {
				fmt.Fprintf(out, "✅ Relay is healthy!\n")
			} else {
				fmt.Fprintf(out, "❌ Relay is not healthy!\n")
			}
			fmt.Fprintf(out, "Registrations: %d\n", health.Registrations)
			fmt.Fprintf(out, "Topics: %d\n", health.Topics)
			if health.Message != "" {
				fmt.Fprintf(out, "Message: %s\n", health.Message)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "topics",
		Short: "List relay topics with subscriber counts (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(contextOrBackground(cmd), timeout)
			defer cancel()

			if err := client.Authenticate(ctx); err != nil {
				return err
			}
			resp, err := client.AdminListTopics(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(resp.Topics) == 0 {
				fmt.Fprintf(out, "📭 No topics have subscribers\n")
				return nil
			}
			fmt.Fprintf(out, "📋 %d topic(s):\n", len(resp.Topics))
			for _, t := range resp.Topics {
				fmt.Fprintf(out, "  %-50s %d\n", t.Topic, t.Subscribers)
			}
			return nil
		},
	})

	return cmd
}
