// Package catalog declares the read-only collaborators the feed pipeline
// consumes, plus the default resolvers backed by product data.
package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ETAnderson/shopfeed/internal/domain"
)

// Source returns the sellable products of a tenant, with brand, categories
// (parents resolved) and gallery already joined.
type Source interface {
	ListLiveProducts(ctx context.Context, tenantID uint64) ([]domain.Product, error)
}

type SiteProvider interface {
	GetSite(ctx context.Context, tenantID uint64) (domain.Site, bool, error)
}

type SizeResolver interface {
	InStockSizes(p domain.Product) []string
}

type PriceResolver interface {
	Prices(p domain.Product) map[string]decimal.Decimal
}

type RenditionResolver interface {
	Resolve(ctx context.Context, img domain.Image, rendition string) Rendition
}

// StockSizes lists size labels with positive stock, in display order.
type StockSizes struct{}

func (StockSizes) InStockSizes(p domain.Product) []string {
	out := make([]string, 0, len(p.Sizes))
	for _, s := range p.Sizes {
		if s.Stock > 0 {
			out = append(out, s.Label)
		}
	}
	return out
}

// ListedPrices reads prices straight off the product record.
type ListedPrices struct{}

func (ListedPrices) Prices(p domain.Product) map[string]decimal.Decimal {
	return p.Prices
}
