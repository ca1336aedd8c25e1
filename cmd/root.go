package main

import (
	"github.com/Shivanand-hulikatti/event-admission/internal/config"
	"github.com/spf13/cobra"
)

// globalFlags override the LOG_* environment variables.
type globalFlags struct {
	logLevel  string
	logFormat string
}

func (g *globalFlags) apply(cfg *config.LoggingConfig) {
	if g.logLevel != "" {
		cfg.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Format = g.logFormat
	}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "event-admission",
		Short: "Event registration API with identity and admission control",
		Long: `event-admission serves the event registration API: accounts and
bearer tokens, role-gated event management, and capacity-safe registration.

Running without a subcommand starts the HTTP server.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format (json, console) (default: json)")

	serve := newServeCommand(flags)
	root.RunE = serve.RunE

	root.AddCommand(serve)
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newVersionCommand())
	return root
}
