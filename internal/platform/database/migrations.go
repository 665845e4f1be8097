package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// RunMigrations applies the embedded *.up.sql files in lexical order.
// Applied versions are recorded in schema_migrations; each file runs in its own transaction.
func RunMigrations(ctx context.Context, db DBTX, logger *slog.Logger) error {
	return runMigrations(ctx, db, migrationFiles, logger)
}

func runMigrations(ctx context.Context, db DBTX, files fs.FS, logger *slog.Logger) error {
	if _, err := db.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	names, err := fs.Glob(files, "migrations/*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	applied := 0
	for _, name := range names {
		version := strings.TrimSuffix(path.Base(name), ".up.sql")

		var done bool
		err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&done)
		if err != nil {
			return fmt.Errorf("checking migration %s: %w", version, err)
		}
		if done {
			logger.DebugContext(ctx, "Migration already applied", "version", version)
			continue
		}

		content, err := fs.ReadFile(files, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", version, err)
		}

		logger.InfoContext(ctx, "Running migration", "version", version)
		if err := applyMigration(ctx, db, version, string(content)); err != nil {
			return err
		}
		applied++
	}

	logger.InfoContext(ctx, "Migrations completed", "applied", applied, "total", len(names))
	return nil
}

func applyMigration(ctx context.Context, db DBTX, version, content string) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("migration %s: begin: %w", version, err)
	}
	if _, err := tx.Exec(ctx, content); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("migration %s failed: %w", version, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("migration %s: recording version: %w", version, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("migration %s: commit: %w", version, err)
	}
	return nil
}
