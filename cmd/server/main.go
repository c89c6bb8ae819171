package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/arturoeanton/ghost-commit/pkg/config"
	"github.com/arturoeanton/ghost-commit/pkg/logging"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg       *config.Config
		logLevel  string
		logFormat string
	)

	root := &cobra.Command{
		Use:          "ghost-commit",
		Short:        "Ghost Commit analyzes and resurrects abandoned GitHub repositories",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load() // silently ignore if .env doesn't exist
			cfg = config.Load()
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.LogFormat = logFormat
			}
			return logging.Setup(os.Stderr, cfg.LogFormat, cfg.LogLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json (overrides LOG_FORMAT)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), cfg)
			},
		},
		newAnalyzeCmd(func() *config.Config { return cfg }),
		newOpenPRCmd(func() *config.Config { return cfg }),
	)
	return root
}

