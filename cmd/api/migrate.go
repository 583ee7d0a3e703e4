package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshliford/amplify-guitar/internal/config"
	"github.com/joshliford/amplify-guitar/internal/observability"
	"github.com/joshliford/amplify-guitar/internal/persistence"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.Postgres.MigrationsDir = dir
			}
			return runMigrate(cmd, cfg)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default from POSTGRES_MIGRATIONS_DIR)")
	return cmd
}

func runMigrate(cmd *cobra.Command, cfg *config.Config) error {
	if cfg.Postgres.DSN == "" {
		return errors.New("POSTGRES_DSN environment variable is required")
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
		return err
	}
	cmd.Println("Migrations completed successfully")
	return nil
}
