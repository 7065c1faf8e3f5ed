package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rmacdonaldsmith/cnotify-go/internal/agent"
	"github.com/rmacdonaldsmith/cnotify-go/internal/logging"
)

func newRunCommand(c *cli) *cobra.Command {
	var (
		once    bool
		testing bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Register the device and reconcile its topics",
		Long: `Starts the agent: requests a device registration, waits for the token
and reconciles topics once. Without --once it keeps running until
interrupted so late registration results are still handled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(cmd, c, once, testing)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Exit after the startup work has finished")
	cmd.Flags().BoolVar(&testing, "testing", false, "Also subscribe the debug topic once topics are reconciled")

	return cmd
}

func runAgent(cmd *cobra.Command, c *cli, once, testing bool) error {
	root, err := c.logger()
	if err != nil {
		return err
	}
	defer root.Sync()
	logger := logging.For(root, logging.ComponentCLI)

	if testing {
		c.config.Testing = true
	}

	opts := []agent.Option{agent.WithLogger(root), agent.WithEnv(c.lookup)}
	if c.fs != nil {
		opts = append(opts, agent.WithFs(c.fs))
	}
	a, err := agent.New(c.config, opts...)
	if err != nil {
		if errors.Is(err, agent.ErrConfigUnavailable) {
			logger.Fatal("Provider configuration unavailable", zap.Error(err))
		}
		return err
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		a.Close()
		return err
	}

	if once {
		a.Wait()
	} else {
		logger.Info("Agent running, press Ctrl+C to stop")
		<-ctx.Done()
	}
	if err := a.Close(); err != nil {
		return err
	}

	coord := a.Coordinator()
	stats := coord.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "State: %s\n", coord.State())
	fmt.Fprintf(out, "Attempts: %d  Subscribes: %d  Unsubscribes: %d  Failures: %d\n",
		stats.Attempts, stats.Subscribes, stats.Unsubscribes, stats.Failures)
	if coord.Subscribed() {
		fmt.Fprintf(out, "✅ Topics reconciled\n")
	} else {
		fmt.Fprintf(out, "⏳ Topics not reconciled (no device token)\n")
	}
	return nil
}

// contextOrBackground keeps commands usable when executed without a context.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
