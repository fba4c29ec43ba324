package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/bootstrap"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/migrate"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(cmd, func(db *sql.DB) error {
				ctx, cancel := a.withTimeout(cmd)
				defer cancel()
				a.logger.InfoContext(ctx, "running database migrations")
				if err := bootstrap.RunMigrations(ctx, db, a.logger); err != nil {
					return err
				}
				a.logger.InfoContext(ctx, "migrations completed successfully")
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(cmd, func(db *sql.DB) error {
				ctx, cancel := a.withTimeout(cmd)
				defer cancel()
				applied, err := migrate.Applied(ctx, db)
				if err != nil {
					return fmt.Errorf("list applied migrations: %w", err)
				}
				pending, err := migrate.Pending(ctx, db)
				if err != nil {
					return fmt.Errorf("list pending migrations: %w", err)
				}
				return printMigrationStatus(cmd.OutOrStdout(), applied, pending)
			})
		},
	})
	return cmd
}

// withDB loads config, connects to Postgres, and closes the pool after fn.
func (a *app) withDB(cmd *cobra.Command, fn func(*sql.DB) error) error {
	cfg, err := a.load()
	if err != nil {
		return err
	}
	ctx, cancel := a.withTimeout(cmd)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: a.logger})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			a.logger.Warn("db close failed", "error", closeErr)
		}
	}()
	return fn(db)
}
