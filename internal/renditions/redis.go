package renditions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ETAnderson/shopfeed/internal/catalog"
	"github.com/ETAnderson/shopfeed/internal/domain"
)

const DefaultKeyPrefix = "rendition:"

// redisClient is the subset of *redis.Client the index uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisIndex stores rendition entries as JSON under "<prefix><image>:<name>".
type RedisIndex struct {
	MaxPixels uint64
	Prefix    string
	TTL       time.Duration

	client redisClient
}

func NewRedisIndex(client redisClient) *RedisIndex {
	return &RedisIndex{
		MaxPixels: DefaultMaxPixels,
		Prefix:    DefaultKeyPrefix,
		client:    client,
	}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(c).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (r *RedisIndex) Put(ctx context.Context, imageID string, rendition string, info domain.RenditionInfo) error {
	b, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.Prefix+key(imageID, rendition), b, r.TTL).Err()
}

func (r *RedisIndex) Resolve(ctx context.Context, img domain.Image, rendition string) catalog.Rendition {
	raw, err := r.client.Get(ctx, r.Prefix+key(img.ID, rendition)).Bytes()
	if errors.Is(err, redis.Nil) {
		return catalog.Unavailable(catalog.RenditionMissing, "rendition not generated")
	}
	if err != nil {
		return catalog.Unavailable(catalog.RenditionFailed, err.Error())
	}

	var info domain.RenditionInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return catalog.Unavailable(catalog.RenditionFailed, "corrupt rendition entry")
	}
	return evaluate(info, r.MaxPixels)
}
