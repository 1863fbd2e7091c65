package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ETAnderson/shopfeed/internal/db"
	"github.com/ETAnderson/shopfeed/internal/migrate"
)

type FactoryConfig struct {
	Backend  string
	MySQLDSN string

	// MigrationsDir is applied on startup when set (mysql only).
	MigrationsDir string
}

type FactoryResult struct {
	Store Store
	DB    *sql.DB // only set for mysql
}

var ErrUnknownBackend = errors.New("unknown STATE_BACKEND (use memory or mysql)")

func NewStore(ctx context.Context, cfg FactoryConfig) (FactoryResult, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = "memory"
	}

	switch backend {
	case "memory":
		return FactoryResult{Store: NewMemoryStore()}, nil

	case "mysql":
		if strings.TrimSpace(cfg.MySQLDSN) == "" {
			return FactoryResult{}, errors.New("DB_DSN is required when STATE_BACKEND=mysql")
		}

		sqlDB, err := db.Open(db.Config{DSN: cfg.MySQLDSN})
		if err != nil {
			return FactoryResult{}, err
		}

		c, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := sqlDB.PingContext(c); err != nil {
			_ = sqlDB.Close()
			return FactoryResult{}, err
		}

		if cfg.MigrationsDir != "" {
			if _, err := migrate.ApplyDir(ctx, sqlDB, cfg.MigrationsDir); err != nil {
				_ = sqlDB.Close()
				return FactoryResult{}, fmt.Errorf("apply migrations: %w", err)
			}
		}

		return FactoryResult{
			Store: NewMySQLStore(sqlDB),
			DB:    sqlDB,
		}, nil

	default:
		return FactoryResult{}, ErrUnknownBackend
	}
}
