// Package db owns the Postgres connection pool and schema migration for
// bookbrain. Postgres + pgvector replaces the document-store persistence
// layer a pure job/provider pipeline would otherwise use, because the
// retrieval component needs a single relational store with both full-text
// search and an HNSW-indexed vector column.
package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Open creates a connection pool against url and pings it.
func Open(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Migrate applies schema.sql. It is idempotent: every statement in the
// embedded file is a CREATE ... IF NOT EXISTS, so re-running it against an
// already-migrated database is a no-op. No migration framework is used;
// the schema is small enough that a single idempotent script suffices.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
