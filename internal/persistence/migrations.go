package persistence

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
        version    TEXT PRIMARY KEY,
        applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`
	selectApplied = `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version=$1)`
	insertApplied = `INSERT INTO schema_migrations (version) VALUES ($1)`
)

// MigrationDB is the part of *pgxpool.Pool the migrator needs.
type MigrationDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RunMigrations applies the .sql files in dir that have not been applied yet,
// in lexical order, and records each in schema_migrations.
func RunMigrations(ctx context.Context, db MigrationDB, dir string, logger *zap.Logger) error {
	_, err := ApplyMigrations(ctx, db, os.DirFS(dir), logger)
	return err
}

// ApplyMigrations runs pending migrations from fsys and returns how many ran.
func ApplyMigrations(ctx context.Context, db MigrationDB, fsys fs.FS, logger *zap.Logger) (int, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return 0, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	if _, err := db.Exec(ctx, createVersionTable); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := 0
	for _, name := range names {
		info, err := fs.Stat(fsys, name)
		if err != nil {
			return applied, fmt.Errorf("stat migration %s: %w", name, err)
		}
		if info.IsDir() {
			continue
		}

		var done bool
		if err := db.QueryRow(ctx, selectApplied, name).Scan(&done); err != nil {
			return applied, fmt.Errorf("check migration %s: %w", name, err)
		}
		if done {
			logger.Debug("migration already applied", zap.String("file", name))
			continue
		}

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", name, err)
		}
		logger.Info("applying migration", zap.String("file", name))
		if _, err := db.Exec(ctx, string(body)); err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := db.Exec(ctx, insertApplied, name); err != nil {
			return applied, fmt.Errorf("record migration %s: %w", name, err)
		}
		applied++
	}

	logger.Info("migrations complete", zap.Int("applied", applied), zap.Int("known", len(names)))
	return applied, nil
}
