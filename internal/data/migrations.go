package data

import (
	"context"
	"database/sql"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/migrate"
)

// RunMigrations creates or upgrades the bookings schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}

// AppliedMigrations lists the schema versions recorded as applied, oldest first.
func AppliedMigrations(ctx context.Context, db *sql.DB) ([]string, error) {
	return migrate.Applied(ctx, db)
}
