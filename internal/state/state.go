package state

import (
	"context"
	"time"

	"github.com/ETAnderson/shopfeed/internal/domain"
)

// FeedRunRecord is the ledger entry written for every feed generation.
type FeedRunRecord struct {
	RunID    string `json:"run_id"`
	TenantID uint64 `json:"tenant_id"`
	Channel  string `json:"channel"`
	Status   string `json:"status"`

	Items         int    `json:"items"`
	ImagesSkipped int    `json:"images_skipped"`
	Bytes         int    `json:"bytes"`
	ContentHash   string `json:"content_hash,omitempty"`
	Error         string `json:"error,omitempty"`

	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type Store interface {
	// Catalog
	ListLiveProducts(ctx context.Context, tenantID uint64) ([]domain.Product, error)
	GetProductHash(ctx context.Context, tenantID uint64, productKey string) (hash string, ok bool, err error)
	UpsertProduct(ctx context.Context, tenantID uint64, p domain.Product, hash string) error
	UpsertCategory(ctx context.Context, tenantID uint64, c domain.Category) error

	// Site identity
	GetSite(ctx context.Context, tenantID uint64) (domain.Site, bool, error)
	UpsertSite(ctx context.Context, tenantID uint64, site domain.Site) error

	// Feed runs
	InsertFeedRun(ctx context.Context, run FeedRunRecord) error
	ListFeedRuns(ctx context.Context, tenantID uint64, limit int) ([]FeedRunRecord, error)
	GetFeedRun(ctx context.Context, tenantID uint64, runID string) (FeedRunRecord, bool, error)
}
