package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/txengine/internal/infrastructure/config"
	"github.com/iho/txengine/internal/infrastructure/logger"
)

// app carries what every subcommand needs.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	stdout io.Writer
}

func main() {
	a, err := newApp(os.Stdout)
	if err != nil {
		log := logger.New(logger.Config{})
		log.Fatal().Err(err).Msg("failed to start")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		a.logger.Error().Err(err).Msg("txengine failed")
		stop()
		os.Exit(1)
	}
}

// newApp loads configuration and builds the logger it asks for.
func newApp(stdout io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	return &app{
		cfg: cfg,
		logger: logger.New(logger.Config{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
		}),
		stdout: stdout,
	}, nil
}

func newRootCmd(a *app) *cobra.Command {
	opts := runOptions{
		format: a.cfg.OutputFormat,
		shards: a.cfg.Shards,
	}
	reconcile := a.cfg.Reconcile

	rootCmd := &cobra.Command{
		Use:   "txengine <transactions.csv>",
		Short: "Payments ledger engine",
		Long: `txengine replays a CSV stream of deposits, withdrawals, disputes, resolves and
chargebacks, and writes the final state of every client account.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.reconcile = reconcile
			return a.run(cmd.Context(), args[0], opts)
		},
	}

	rootCmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "Output format: csv or json")
	rootCmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the report to a file instead of stdout")
	rootCmd.PersistentFlags().IntVar(&opts.shards, "shards", opts.shards, "Number of engine shards")
	rootCmd.PersistentFlags().StringSliceVar(&opts.sinks, "sink", nil, "Also publish the report to a sink: redis, postgres or kafka (repeatable)")
	rootCmd.Flags().BoolVar(&reconcile, "reconcile", reconcile, "Fail when final balances do not match accepted movements")

	rootCmd.AddCommand(newServeCmd(a, &opts))
	rootCmd.AddCommand(newMigrateCmd(a))

	return rootCmd
}
