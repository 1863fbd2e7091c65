package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/ETAnderson/shopfeed/internal/config"
	"github.com/ETAnderson/shopfeed/internal/db"
	"github.com/ETAnderson/shopfeed/internal/migrate"
	"github.com/ETAnderson/shopfeed/migrations"
)

func newMigrateCmd() *cobra.Command {
	var (
		dsn  string
		dir  string
		list bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply MySQL schema migrations",
		Long:  "Applies the embedded migrations, or those in --dir, skipping files already recorded in schema_migrations.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := migrationsFS(dir)

			if list {
				names, err := migrate.Pending(fsys)
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}

			if dsn == "" {
				dsn = config.Load().MySQLDSN
			}
			if dsn == "" {
				return fmt.Errorf("--dsn or DB_DSN is required")
			}

			sqlDB, err := db.Open(db.Config{DSN: dsn})
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			applied, err := applyMigrations(cmd.Context(), sqlDB, fsys)
			for _, n := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", n)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&dsn, "dsn", "", "MySQL DSN (defaults to DB_DSN)")
	f.StringVar(&dir, "dir", "", "migrations directory (defaults to the embedded set)")
	f.BoolVar(&list, "list", false, "list migration files without connecting")
	return cmd
}

func migrationsFS(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func applyMigrations(ctx context.Context, sqlDB *sql.DB, fsys fs.FS) ([]string, error) {
	if err := db.Ping(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("mysql unreachable: %w", err)
	}
	return migrate.ApplyFS(ctx, sqlDB, fsys)
}
