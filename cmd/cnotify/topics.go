package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/cnotify-go/pkg/topics"
)

func newTopicsCommand(c *cli) *cobra.Command {
	var language, country, appVersion string

	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Print the topics computed for this device",
		Long: `Prints the three topics derived from the resolved language, country and
app version. Flags override configuration and locale detection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config
			if language != "" {
				cfg.Locale.Language = language
			}
			if country != "" {
				cfg.Locale.Country = country
			}
			if appVersion != "" {
				cfg.Locale.AppVersion = appVersion
			}

			loc := cfg.Coordinator(c.lookup).Locale
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🌍 Locale: language=%s country=%s version=%s\n", loc.Language, loc.Country, loc.AppVersion)
			for _, topic := range topics.NewGenerator().Compute(loc.Language, loc.Country, loc.AppVersion) {
				fmt.Fprintf(out, "  %s\n", topic)
			}
			if cfg.Testing {
				fmt.Fprintf(out, "  %s (testing)\n", topics.DebugTopic)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Language code")
	cmd.Flags().StringVar(&country, "country", "", "Country code")
	cmd.Flags().StringVar(&appVersion, "app-version", "", "Application version")

	return cmd
}
