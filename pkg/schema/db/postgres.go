package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/geetaway-search-api/pkg/schema/config"
)

// OpenPostgres connects to PostgreSQL and verifies connectivity. The caller owns
// the returned handle and closes it on shutdown.
func OpenPostgres(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	if cfg.PostgresURI == "" {
		return nil, fmt.Errorf("POSTGRES_URI is required")
	}

	pgDB, err := sqlx.ConnectContext(ctx, "postgres", cfg.PostgresURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Configure connection pool
	pgDB.SetMaxOpenConns(25)
	pgDB.SetMaxIdleConns(25)
	pgDB.SetConnMaxLifetime(5 * time.Minute)
	pgDB.SetConnMaxIdleTime(1 * time.Minute)

	// Verify connectivity
	if err := pgDB.PingContext(ctx); err != nil {
		pgDB.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return pgDB, nil
}

// Schema creates the verses table used by the pgvector corpus backend.
const Schema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS verses (
	chapter      INT NOT NULL CHECK (chapter >= 1),
	verse        INT NOT NULL CHECK (verse >= 1),
	sanskrit     TEXT NOT NULL,
	english      TEXT NOT NULL,
	themes       TEXT[] NOT NULL DEFAULT '{}',
	is_practical BOOLEAN NOT NULL DEFAULT FALSE,
	embedding    vector(%d) NOT NULL,
	PRIMARY KEY (chapter, verse)
);
`

// EnsureSchema creates the verses table for the given embedding dimensionality.
func EnsureSchema(ctx context.Context, pgDB *sqlx.DB, dimensions int) error {
	if _, err := pgDB.ExecContext(ctx, fmt.Sprintf(Schema, dimensions)); err != nil {
		return fmt.Errorf("create verses schema: %w", err)
	}
	return nil
}
