package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/locshare/internal/config"
)

type rootOptions struct {
	configPath string
	origin     string
	noColor    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "locshare",
		Short:         "Headless client for the locshare server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			_ = godotenv.Load()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to client config file")
	flags.StringVar(&opts.origin, "origin", "", "server origin, e.g. http://localhost:8080")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newTrackCmd(opts), newParticipantsCmd(opts), newStatsCmd(opts))
	return cmd
}

// loadConfig applies persistent flags on top of file and env settings.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (config.ClientConfig, error) {
	cfg, err := config.LoadClient(o.configPath)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("origin") {
		cfg.Origin = o.origin
	}
	if cmd.Flags().Changed("no-color") {
		cfg.NoColor = o.noColor
	}
	return cfg, nil
}
