package db

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validSchema(schema string) error {
	if !schemaPattern.MatchString(schema) {
		return fmt.Errorf("invalid schema identifier: %q", schema)
	}
	return nil
}

// EnsureSchema creates schema if needed and applies pending migrations from
// migrationsDir. An empty migrationsDir skips migrations.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, schema, migrationsDir string) (int, error) {
	if err := validSchema(schema); err != nil {
		return 0, err
	}

	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return 0, fmt.Errorf("create schema %s: %w", schema, err)
	}

	if migrationsDir == "" {
		return 0, nil
	}
	n, err := NewMigrator(pool, migrationsDir).Up(ctx, schema)
	if err != nil {
		return n, fmt.Errorf("run migrations for %s: %w", schema, err)
	}
	return n, nil
}

// ResetSchema drops schema with everything in it and recreates it empty.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if err := validSchema(schema); err != nil {
		return err
	}

	stmt := fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE; CREATE SCHEMA %s", schema, schema)
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("reset schema %s: %w", schema, err)
	}
	return nil
}
