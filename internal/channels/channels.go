package channels

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/ETAnderson/shopfeed/internal/catalog"
	"github.com/ETAnderson/shopfeed/internal/domain"
)

// GenerateInput is everything one feed generation needs. It is built per
// request and never shared between runs.
type GenerateInput struct {
	Products []domain.Product
	Site     domain.Site

	Sizes      catalog.SizeResolver
	Prices     catalog.PriceResolver
	Renditions catalog.RenditionResolver

	FeedURL   string
	BuildDate time.Time
}

type BuildResult struct {
	Channel       string
	Items         int
	ImagesSkipped int
}

// Channel maps products into one destination format and serializes them.
type Channel interface {
	Name() string
	ContentType() string
	Generate(ctx context.Context, w io.Writer, in GenerateInput) (BuildResult, error)
}

type Registry struct {
	byName map[string]Channel
}

func NewRegistry(chans ...Channel) Registry {
	m := make(map[string]Channel, len(chans))
	for _, c := range chans {
		if c == nil {
			continue
		}
		m[c.Name()] = c
	}
	return Registry{byName: m}
}

func (r Registry) Get(name string) (Channel, bool) {
	if r.byName == nil {
		return nil, false
	}
	c, ok := r.byName[name]
	return c, ok
}

func (r Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
