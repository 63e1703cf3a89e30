package main

import (
	"github.com/spf13/cobra"

	"github.com/iho/txengine/internal/infrastructure/postgres"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back the PostgreSQL sink schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "down" {
				return postgres.RunMigrationsDown(a.cfg.DatabaseURL, a.logger)
			}
			return postgres.RunMigrations(a.cfg.DatabaseURL, a.logger)
		},
	}
}
