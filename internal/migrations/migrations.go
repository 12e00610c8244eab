// Package migrations embeds the SQL schema for every supported store and applies it
// with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

//go:embed sqlite/*.sql
var sqliteFS embed.FS

func up(ctx context.Context, db *sql.DB, dialect goose.Dialect, embedded embed.FS, dir string) error {
	fsys, err := fs.Sub(embedded, dir)
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// UpPostgres opens a short-lived database/sql handle through the pgx driver, since
// goose works on *sql.DB rather than on a pgx pool.
func UpPostgres(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("db open error: %w", err)
	}
	defer db.Close()

	return up(ctx, db, goose.DialectPostgres, postgresFS, "postgres")
}

func UpSQLite(ctx context.Context, db *sql.DB) error {
	return up(ctx, db, goose.DialectSQLite3, sqliteFS, "sqlite")
}
