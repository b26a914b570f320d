package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maxgio92/asketch/internal/settings"
	"github.com/maxgio92/asketch/pkg/cmd/options"
	"github.com/maxgio92/asketch/pkg/cmd/replay"
	"github.com/maxgio92/asketch/pkg/cmd/validate"
)

const logLevelInfo = "info"

func NewCommand(opts *options.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   settings.CmdName,
		Short: "asketch estimates syscall behavior fingerprint frequencies with count min sketches",
		Long: `asketch maintains probabilistic frequency estimates of per-event behavior
fingerprints, enabling detection of rare or unusual process behavior.
It runs as a host-driven event pipeline, with tooling to lint
configurations and to replay captured event streams.`,
		DisableAutoGenTag: true,
	}
	cmd.AddCommand(validate.NewCommand(opts))
	cmd.AddCommand(replay.NewCommand(opts))

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", logLevelInfo, "Log level (trace, debug, info, warn, error, fatal, panic)")

	return cmd
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(
		log.ConsoleWriter{Out: os.Stderr},
	).With().Timestamp().Logger()

	opts := options.NewOptions(
		options.WithContext(ctx),
		options.WithLogger(logger),
	)

	if err := NewCommand(opts).Execute(); err != nil {
		os.Exit(1)
	}
}
