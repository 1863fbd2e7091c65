// Package renditions indexes the image variants produced by the thumbnail
// generator so feeds can resolve them without regenerating anything.
package renditions

import (
	"context"
	"fmt"
	"math/bits"
	"sync"

	"github.com/ETAnderson/shopfeed/internal/catalog"
	"github.com/ETAnderson/shopfeed/internal/domain"
)

// DefaultMaxPixels rejects renditions larger than 40 megapixels.
const DefaultMaxPixels uint64 = 40_000_000

// Index resolves renditions and accepts new ones from ingest.
type Index interface {
	catalog.RenditionResolver
	Put(ctx context.Context, imageID string, rendition string, info domain.RenditionInfo) error
}

func key(imageID, rendition string) string {
	return imageID + ":" + rendition
}

// evaluate turns a stored entry into a resolver result. An entry whose pixel
// count overflows or exceeds maxPixels is reported as oversized.
func evaluate(info domain.RenditionInfo, maxPixels uint64) catalog.Rendition {
	if info.Path == "" {
		return catalog.Unavailable(catalog.RenditionMissing, "empty rendition path")
	}

	hi, px := bits.Mul64(info.Width, info.Height)
	if hi != 0 {
		return catalog.Unavailable(catalog.RenditionOversized, "pixel count overflows")
	}
	if maxPixels > 0 && px > maxPixels {
		return catalog.Unavailable(catalog.RenditionOversized, fmt.Sprintf("%d pixels exceeds %d", px, maxPixels))
	}

	return catalog.Available(info.Path)
}

type MemoryIndex struct {
	MaxPixels uint64

	mu      sync.RWMutex
	entries map[string]domain.RenditionInfo
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		MaxPixels: DefaultMaxPixels,
		entries:   make(map[string]domain.RenditionInfo),
	}
}

func (m *MemoryIndex) Put(ctx context.Context, imageID string, rendition string, info domain.RenditionInfo) error {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key(imageID, rendition)] = info
	return nil
}

func (m *MemoryIndex) Resolve(ctx context.Context, img domain.Image, rendition string) catalog.Rendition {
	_ = ctx

	m.mu.RLock()
	info, ok := m.entries[key(img.ID, rendition)]
	m.mu.RUnlock()

	if !ok {
		return catalog.Unavailable(catalog.RenditionMissing, "rendition not generated")
	}
	return evaluate(info, m.MaxPixels)
}
