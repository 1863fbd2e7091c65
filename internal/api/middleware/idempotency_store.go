package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type IdempotencyRecord struct {
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// IdempotencyStore caches responses by (tenant, endpoint, key hash).
type IdempotencyStore interface {
	Get(ctx context.Context, tenantID uint64, endpoint, keyHash string) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, tenantID uint64, endpoint, keyHash string, rec IdempotencyRecord) error
}

func idempotencyKey(tenantID uint64, endpoint, keyHash string) string {
	return fmt.Sprintf("idem:%d:%s:%s", tenantID, endpoint, keyHash)
}

type MemoryIdempotencyStore struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.Mutex
	records map[string]IdempotencyRecord
}

func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		TTL:     ttl,
		records: make(map[string]IdempotencyRecord),
	}
}

func (s *MemoryIdempotencyStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *MemoryIdempotencyStore) Get(ctx context.Context, tenantID uint64, endpoint, keyHash string) (IdempotencyRecord, bool, error) {
	k := idempotencyKey(tenantID, endpoint, keyHash)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[k]
	if !ok {
		return IdempotencyRecord{}, false, nil
	}
	if s.TTL > 0 && s.now().Sub(rec.CreatedAt) > s.TTL {
		delete(s.records, k)
		return IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *MemoryIdempotencyStore) Put(ctx context.Context, tenantID uint64, endpoint, keyHash string, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[idempotencyKey(tenantID, endpoint, keyHash)] = rec
	return nil
}

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisIdempotencyStore shares cached responses across API replicas; expiry
// is left to redis.
type RedisIdempotencyStore struct {
	Client redisKV
	TTL    time.Duration
}

func (s RedisIdempotencyStore) Get(ctx context.Context, tenantID uint64, endpoint, keyHash string) (IdempotencyRecord, bool, error) {
	raw, err := s.Client.Get(ctx, idempotencyKey(tenantID, endpoint, keyHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	var rec IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return IdempotencyRecord{}, false, fmt.Errorf("decode idempotency record: %w", err)
	}
	return rec, true, nil
}

func (s RedisIdempotencyStore) Put(ctx context.Context, tenantID uint64, endpoint, keyHash string, rec IdempotencyRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, idempotencyKey(tenantID, endpoint, keyHash), b, s.TTL).Err()
}
