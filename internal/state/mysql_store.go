package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ETAnderson/shopfeed/internal/domain"
)

type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) ListLiveProducts(ctx context.Context, tenantID uint64) ([]domain.Product, error) {
	cats, err := s.loadCategories(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	nodes := linkCategories(cats)

	rows, err := s.db.QueryContext(ctx, `
SELECT product_key, product_json
FROM products
WHERE tenant_id = ? AND live = 1
ORDER BY product_key ASC
`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Product, 0, 256)
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}

		var p domain.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode product %s: %w", key, err)
		}
		attachCategories(&p, nodes)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *MySQLStore) loadCategories(ctx context.Context, tenantID uint64) (map[string]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT category_key, title, parent_key, taxonomy_json
FROM categories
WHERE tenant_id = ?
`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.Category, 64)
	for rows.Next() {
		var c domain.Category
		var parent sql.NullString
		var taxonomy []byte
		if err := rows.Scan(&c.Key, &c.Title, &parent, &taxonomy); err != nil {
			return nil, err
		}
		c.ParentKey = parent.String
		if len(taxonomy) > 0 {
			if err := json.Unmarshal(taxonomy, &c.TaxonomyPaths); err != nil {
				return nil, fmt.Errorf("decode category %s taxonomy: %w", c.Key, err)
			}
		}
		out[c.Key] = c
	}
	return out, rows.Err()
}

func (s *MySQLStore) GetProductHash(ctx context.Context, tenantID uint64, productKey string) (string, bool, error) {
	var h string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT normalized_hash FROM products WHERE tenant_id = ? AND product_key = ?`,
		tenantID, productKey,
	).Scan(&h)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return h, true, nil
}

func (s *MySQLStore) UpsertProduct(ctx context.Context, tenantID uint64, p domain.Product, hash string) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO products (tenant_id, product_key, product_json, normalized_hash, live)
		 VALUES (?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE
		   product_json = VALUES(product_json),
		   normalized_hash = VALUES(normalized_hash),
		   live = VALUES(live)`,
		tenantID, p.ProductKey, b, hash, p.Live,
	)
	return err
}

func (s *MySQLStore) UpsertCategory(ctx context.Context, tenantID uint64, c domain.Category) error {
	taxonomy, err := json.Marshal(c.TaxonomyPaths)
	if err != nil {
		return err
	}

	var parent sql.NullString
	if c.ParentKey != "" {
		parent = sql.NullString{String: c.ParentKey, Valid: true}
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO categories (tenant_id, category_key, title, parent_key, taxonomy_json)
		 VALUES (?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE
		   title = VALUES(title),
		   parent_key = VALUES(parent_key),
		   taxonomy_json = VALUES(taxonomy_json)`,
		tenantID, c.Key, c.Title, parent, taxonomy,
	)
	return err
}

func (s *MySQLStore) GetSite(ctx context.Context, tenantID uint64) (domain.Site, bool, error) {
	var site domain.Site
	err := s.db.QueryRowContext(
		ctx,
		`SELECT domain, scheme FROM sites WHERE tenant_id = ?`,
		tenantID,
	).Scan(&site.Domain, &site.Scheme)

	if err == sql.ErrNoRows {
		return domain.Site{}, false, nil
	}
	if err != nil {
		return domain.Site{}, false, err
	}
	return site, true, nil
}

func (s *MySQLStore) UpsertSite(ctx context.Context, tenantID uint64, site domain.Site) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sites (tenant_id, domain, scheme)
		 VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE domain = VALUES(domain), scheme = VALUES(scheme)`,
		tenantID, site.Domain, site.Scheme,
	)
	return err
}

func (s *MySQLStore) InsertFeedRun(ctx context.Context, run FeedRunRecord) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO feed_runs (
			run_id, tenant_id, channel, status,
			items, images_skipped, bytes, content_hash, error_message,
			duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.TenantID, run.Channel, run.Status,
		run.Items, run.ImagesSkipped, run.Bytes, run.ContentHash, run.Error,
		run.DurationMS, run.CreatedAt.UTC(),
	)
	return err
}

const feedRunColumns = `run_id, tenant_id, channel, status, items, images_skipped, bytes, content_hash, error_message, duration_ms, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeedRun(row rowScanner) (FeedRunRecord, error) {
	var r FeedRunRecord
	err := row.Scan(
		&r.RunID, &r.TenantID, &r.Channel, &r.Status,
		&r.Items, &r.ImagesSkipped, &r.Bytes, &r.ContentHash, &r.Error,
		&r.DurationMS, &r.CreatedAt,
	)
	r.CreatedAt = r.CreatedAt.UTC()
	return r, err
}

func (s *MySQLStore) ListFeedRuns(ctx context.Context, tenantID uint64, limit int) ([]FeedRunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT `+feedRunColumns+`
FROM feed_runs
WHERE tenant_id = ?
ORDER BY created_at DESC
LIMIT ?
`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]FeedRunRecord, 0, limit)
	for rows.Next() {
		r, err := scanFeedRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *MySQLStore) GetFeedRun(ctx context.Context, tenantID uint64, runID string) (FeedRunRecord, bool, error) {
	r, err := scanFeedRun(s.db.QueryRowContext(ctx, `
SELECT `+feedRunColumns+`
FROM feed_runs
WHERE tenant_id = ? AND run_id = ?
`, tenantID, runID))

	if err == sql.ErrNoRows {
		return FeedRunRecord{}, false, nil
	}
	if err != nil {
		return FeedRunRecord{}, false, err
	}
	return r, true, nil
}
