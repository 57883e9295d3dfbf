package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/kimhsiao/fragmind/internal/logging"
)

// MigrationFS holds the SQL migrations compiled into the binary.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS

func newProvider(conn *sql.DB) (*goose.Provider, error) {
	migrations, err := fs.Sub(MigrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations sub-fs: %w", err)
	}
	return goose.NewProvider(goose.DialectSQLite3, conn, migrations)
}

// Migrate applies all pending migrations. Each migration runs in its own
// transaction.
func Migrate(ctx context.Context, conn *sql.DB) error {
	provider, err := newProvider(conn)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		logging.Debug("migration applied", map[string]interface{}{
			"version":     r.Source.Version,
			"duration_ms": r.Duration.Milliseconds(),
		})
	}
	return nil
}

// SchemaVersion returns the highest applied migration version.
func SchemaVersion(ctx context.Context, conn *sql.DB) (int64, error) {
	provider, err := newProvider(conn)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}
