package state

import (
	"context"
	"sort"
	"sync"

	"github.com/ETAnderson/shopfeed/internal/domain"
)

type productEntry struct {
	product domain.Product
	hash    string
}

type MemoryStore struct {
	mu sync.RWMutex

	products   map[uint64]map[string]productEntry    // tenant -> product_key -> product
	categories map[uint64]map[string]domain.Category // tenant -> category_key -> category
	sites      map[uint64]domain.Site

	runs map[string]FeedRunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:   make(map[uint64]map[string]productEntry),
		categories: make(map[uint64]map[string]domain.Category),
		sites:      make(map[uint64]domain.Site),
		runs:       make(map[string]FeedRunRecord),
	}
}

func (s *MemoryStore) ListLiveProducts(ctx context.Context, tenantID uint64) ([]domain.Product, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := linkCategories(s.categories[tenantID])

	out := make([]domain.Product, 0, len(s.products[tenantID]))
	for _, e := range s.products[tenantID] {
		if !e.product.Live {
			continue
		}
		p := e.product
		attachCategories(&p, nodes)
		out = append(out, p)
	}

	// stable ordering for predictability
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductKey < out[j].ProductKey
	})
	return out, nil
}

func (s *MemoryStore) GetProductHash(ctx context.Context, tenantID uint64, productKey string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.products[tenantID]
	if !ok {
		return "", false, nil
	}
	e, ok := m[productKey]
	return e.hash, ok, nil
}

func (s *MemoryStore) UpsertProduct(ctx context.Context, tenantID uint64, p domain.Product, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.products[tenantID]
	if !ok {
		m = make(map[string]productEntry)
		s.products[tenantID] = m
	}

	p.Categories = nil
	m[p.ProductKey] = productEntry{product: p, hash: hash}
	return nil
}

func (s *MemoryStore) UpsertCategory(ctx context.Context, tenantID uint64, c domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.categories[tenantID]
	if !ok {
		m = make(map[string]domain.Category)
		s.categories[tenantID] = m
	}

	c.Parent = nil
	m[c.Key] = c
	return nil
}

func (s *MemoryStore) GetSite(ctx context.Context, tenantID uint64) (domain.Site, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	site, ok := s.sites[tenantID]
	return site, ok, nil
}

func (s *MemoryStore) UpsertSite(ctx context.Context, tenantID uint64, site domain.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sites[tenantID] = site
	return nil
}

func (s *MemoryStore) InsertFeedRun(ctx context.Context, run FeedRunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.RunID] = run
	return nil
}

func (s *MemoryStore) ListFeedRuns(ctx context.Context, tenantID uint64, limit int) ([]FeedRunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FeedRunRecord, 0, 64)
	for _, r := range s.runs {
		if r.TenantID != tenantID {
			continue
		}
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit <= 0 || limit > len(out) {
		return out, nil
	}

	return out[:limit], nil
}

func (s *MemoryStore) GetFeedRun(ctx context.Context, tenantID uint64, runID string) (FeedRunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runID]
	if !ok {
		return FeedRunRecord{}, false, nil
	}
	if r.TenantID != tenantID {
		return FeedRunRecord{}, false, nil
	}
	return r, true, nil
}
