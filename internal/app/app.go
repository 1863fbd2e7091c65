// Package app wires configuration into the long-lived components shared by
// the API server and feedctl.
package app

import (
	"context"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/ETAnderson/shopfeed/internal/api/auth"
	"github.com/ETAnderson/shopfeed/internal/api/middleware"
	"github.com/ETAnderson/shopfeed/internal/catalog"
	"github.com/ETAnderson/shopfeed/internal/channels"
	"github.com/ETAnderson/shopfeed/internal/channels/google"
	"github.com/ETAnderson/shopfeed/internal/config"
	"github.com/ETAnderson/shopfeed/internal/domain"
	"github.com/ETAnderson/shopfeed/internal/execute"
	"github.com/ETAnderson/shopfeed/internal/feed"
	"github.com/ETAnderson/shopfeed/internal/metrics"
	"github.com/ETAnderson/shopfeed/internal/renditions"
	"github.com/ETAnderson/shopfeed/internal/state"
)

const idempotencyTTL = 24 * time.Hour

type App struct {
	Config config.Config
	Logger *logrus.Entry

	Schema     feed.Schema
	Store      state.Store
	Renditions renditions.Index
	Executor   execute.Executor

	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	Idempotency middleware.IdempotencyStore
	PublicKey   *rsa.PublicKey

	closers []func() error
}

func New(ctx context.Context, cfg config.Config, log *logrus.Entry) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{Config: cfg, Logger: log}

	schema := feed.DefaultSchema()
	if cfg.FeedSchemaPath != "" {
		s, err := feed.LoadSchema(cfg.FeedSchemaPath)
		if err != nil {
			return nil, fmt.Errorf("load feed schema: %w", err)
		}
		schema = s
	}
	a.Schema = schema

	fc := state.FactoryConfig{Backend: cfg.StateBackend, MySQLDSN: cfg.MySQLDSN}
	if cfg.RunMigrations {
		fc.MigrationsDir = cfg.MigrationsDir
	}
	res, err := state.NewStore(ctx, fc)
	if err != nil {
		return nil, fmt.Errorf("state store init: %w", err)
	}
	a.Store = res.Store
	if res.DB != nil {
		a.closers = append(a.closers, res.DB.Close)
	}

	if cfg.RedisURL != "" {
		client, err := renditions.Connect(ctx, cfg.RedisURL)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.Renditions = renditions.NewRedisIndex(client)
		a.Idempotency = middleware.RedisIdempotencyStore{Client: client, TTL: idempotencyTTL}
	} else {
		a.Renditions = renditions.NewMemoryIndex()
		a.Idempotency = middleware.NewMemoryIdempotencyStore(idempotencyTTL)
	}

	if cfg.JWTPublicKeyPEM != "" {
		pub, err := auth.ParseRSAPublicKeyPEM(cfg.JWTPublicKeyPEM)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.PublicKey = pub
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	a.Executor = execute.Executor{
		Store:         a.Store,
		Channels:      channels.NewRegistry(google.Channel{Schema: schema}),
		Sizes:         catalog.StockSizes{},
		Prices:        catalog.ListedPrices{},
		Renditions:    a.Renditions,
		DefaultSite:   domain.Site{Domain: cfg.SiteDomain, Scheme: cfg.SiteScheme},
		PublicBaseURL: cfg.PublicBaseURL,
		Logger:        log,
		Metrics:       a.Metrics,
	}

	log.WithFields(logrus.Fields{
		"env":           cfg.Env,
		"state_backend": cfg.StateBackend,
		"renditions":    renditionBackend(cfg),
		"channels":      a.Executor.Channels.Names(),
	}).Info("components ready")

	return a, nil
}

// RequireAuthKey fails when the API would run outside dev without a token
// verification key. feedctl never serves HTTP and skips this.
func (a *App) RequireAuthKey() error {
	if a.PublicKey == nil && !a.Config.IsDev() {
		return fmt.Errorf("JWT_PUBLIC_KEY_PEM is required when ENV=%s", a.Config.Env)
	}
	return nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

func renditionBackend(cfg config.Config) string {
	if cfg.RedisURL != "" {
		return "redis"
	}
	return "memory"
}
