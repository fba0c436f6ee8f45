package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/locshare/internal/app"
	"github.com/vovakirdan/locshare/internal/config"
	"github.com/vovakirdan/locshare/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serverOptions holds flag values; only flags set on the command line override the config.
type serverOptions struct {
	configPath string
	overrides  config.Config
}

func (o *serverOptions) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&o.configPath, "config", "c", "", "path to config file (default ./config.yaml)")
	flags.StringVar(&o.overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&o.overrides.LogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&o.overrides.LogFormat, "log-format", "", "log format (console, json)")
	flags.StringVar(&o.overrides.DatabasePath, "db", "", "SQLite database path")
	flags.StringVar(&o.overrides.PublicDir, "public", "", "directory with static assets")
	flags.DurationVar(&o.overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.IntVar(&o.overrides.MaxMessagesPerMinute, "rate-limit", 0, "max location messages per connection per minute (0 = unlimited)")
}

// apply copies explicitly set flags over the loaded config, zero values included.
func (o *serverOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("addr") {
		cfg.Addr = o.overrides.Addr
	}
	if changed("log-level") {
		cfg.LogLevel = o.overrides.LogLevel
	}
	if changed("log-format") {
		cfg.LogFormat = o.overrides.LogFormat
	}
	if changed("db") {
		cfg.DatabasePath = o.overrides.DatabasePath
	}
	if changed("public") {
		cfg.PublicDir = o.overrides.PublicDir
	}
	if changed("shutdown-timeout") {
		cfg.ShutdownTimeout = o.overrides.ShutdownTimeout
	}
	if changed("rate-limit") {
		cfg.MaxMessagesPerMinute = o.overrides.MaxMessagesPerMinute
	}
}

func newRootCmd() *cobra.Command {
	opts := &serverOptions{}

	cmd := &cobra.Command{
		Use:           "locshare-server",
		Short:         "Real-time location sharing server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			bootLogger := log.New("info", log.FormatConsole)
			cfg, path, err := config.Load(bootLogger, opts.configPath)
			if err != nil {
				return err
			}
			opts.apply(cmd, &cfg)

			logger := log.New(cfg.LogLevel, cfg.LogFormat)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting locshare server")

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}
	opts.bind(cmd)

	return cmd
}
