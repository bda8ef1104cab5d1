package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/profilesync/internal/client/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations brings the metadata schema up to date. Already applied
// migrations are skipped.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("metadata migrations: %w", err)
	}
	return nil
}

// InitDatabase opens the local SQLite store at dsn and migrates it. The
// store is only touched by this process, so a single connection is kept to
// avoid SQLITE_BUSY between writers.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
