package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
)

// ApplyDir applies the *.sql files of dir in lexical order, skipping files
// already recorded in schema_migrations.
func ApplyDir(ctx context.Context, db *sql.DB, dir string) ([]string, error) {
	return ApplyFS(ctx, db, os.DirFS(dir))
}

// ApplyFS is ApplyDir over an fs.FS (e.g. embedded migrations).
func ApplyFS(ctx context.Context, db *sql.DB, fsys fs.FS) ([]string, error) {
	names, err := Pending(fsys)
	if err != nil {
		return nil, err
	}

	if err := ensureSchemaMigrations(ctx, db); err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(names))
	for _, name := range names {
		done, err := isApplied(ctx, db, name)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}

		sqlBytes, err := fs.ReadFile(fsys, name)
		if err != nil {
			return applied, err
		}

		if _, err := db.ExecContext(ctx, string(sqlBytes)); err != nil {
			return applied, fmt.Errorf("migration %s failed: %w", name, err)
		}

		if err := markApplied(ctx, db, name); err != nil {
			return applied, err
		}
		applied = append(applied, name)
	}

	return applied, nil
}

// Pending lists the migration files in fsys, sorted.
func Pending(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}

	sort.Strings(files)
	return files, nil
}

func ensureSchemaMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  name VARCHAR(255) NOT NULL,
  applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (name)
) ENGINE=InnoDB;
`)
	return err
}

func isApplied(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var v string
	err := db.QueryRowContext(ctx, `SELECT name FROM schema_migrations WHERE name = ?`, name).Scan(&v)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func markApplied(ctx context.Context, db *sql.DB, name string) error {
	_, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES (?)`, name)
	return err
}
