package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ETAnderson/shopfeed/internal/api/handlers"
	"github.com/ETAnderson/shopfeed/internal/api/middleware"
	"github.com/ETAnderson/shopfeed/internal/ingest"
)

// Handler builds the HTTP surface.
//
// Feeds are fetched by channel crawlers that carry no credentials, so they
// sit behind the tenant middleware only. Everything under /v1 requires a
// token outside dev.
func (a *App) Handler() http.Handler {
	env := a.Config.Env

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry}))

	mux.Handle("/feeds/", middleware.TenantMiddleware{
		Env:  env,
		Next: handlers.FeedHandler{Feeds: a.Executor},
	})

	catalog := handlers.CatalogHandler{
		Processor:  ingest.NewProcessor(),
		Store:      a.Store,
		Renditions: a.Renditions,
		Metrics:    a.Metrics,
		Logger:     a.Logger.WithField("component", "catalog"),
	}

	protected := func(next http.Handler) http.Handler {
		return middleware.TenantMiddleware{
			Env: env,
			Next: middleware.AuthMiddleware{
				Env:       env,
				PublicKey: a.PublicKey,
				Next:      next,
			},
		}
	}
	idempotent := func(next http.Handler) http.Handler {
		return middleware.IdempotencyMiddleware{
			Store:  a.Idempotency,
			Logger: a.Logger.WithField("component", "idempotency"),
			Next:   next,
		}
	}

	mux.Handle("/v1/catalog/products:upsert", protected(idempotent(http.HandlerFunc(catalog.UpsertProducts))))
	mux.Handle("/v1/catalog/categories:upsert", protected(idempotent(http.HandlerFunc(catalog.UpsertCategories))))
	mux.Handle("/v1/catalog/site", protected(http.HandlerFunc(catalog.PutSite)))

	runs := protected(handlers.FeedRunsHandler{Store: a.Store})
	mux.Handle("/v1/feed-runs", runs)
	mux.Handle("/v1/feed-runs/", runs)

	return mux
}
