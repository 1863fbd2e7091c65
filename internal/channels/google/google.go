package google

import (
	"context"
	"fmt"
	"io"

	"github.com/ETAnderson/shopfeed/internal/catalog"
	"github.com/ETAnderson/shopfeed/internal/channels"
	"github.com/ETAnderson/shopfeed/internal/feed"
	"github.com/ETAnderson/shopfeed/internal/feed/rss"
)

type Channel struct {
	Schema feed.Schema
}

func (c Channel) Name() string { return "google" }

func (c Channel) ContentType() string { return "application/rss+xml; charset=utf-8" }

// Generate maps every product and writes the feed. Any mapping or write error
// aborts the whole generation.
func (c Channel) Generate(ctx context.Context, w io.Writer, in channels.GenerateInput) (channels.BuildResult, error) {
	out := channels.BuildResult{Channel: c.Name()}

	sizer := in.Sizes
	if sizer == nil {
		sizer = catalog.StockSizes{}
	}

	// Scratch state for this run only.
	inStock := make([][]string, len(in.Products))
	for i, p := range in.Products {
		inStock[i] = sizer.InStockSizes(p)
	}

	mapper := Mapper{
		Schema:     c.Schema,
		Site:       in.Site,
		Prices:     in.Prices,
		Renditions: in.Renditions,
	}

	items := make([]Item, 0, len(in.Products))
	for i, p := range in.Products {
		it, stats, err := mapper.Map(ctx, p, inStock[i])
		if err != nil {
			return channels.BuildResult{}, fmt.Errorf("map product %s: %w", p.ProductKey, err)
		}
		out.ImagesSkipped += stats.ImagesSkipped
		items = append(items, it)
	}

	meta := rss.Channel{
		Title:         c.Schema.Channel.Title,
		Link:          c.Schema.Channel.Link,
		Description:   c.Schema.Channel.Description,
		FeedURL:       in.FeedURL,
		Language:      c.Schema.Channel.Language,
		LastBuildDate: in.BuildDate,
	}
	if in.Site.Domain != "" {
		meta.Link = in.Site.BaseURL() + "/"
	}

	if err := NewWriter(c.Schema).Write(w, meta, items); err != nil {
		return channels.BuildResult{}, fmt.Errorf("write google feed: %w", err)
	}

	out.Items = len(items)
	return out, nil
}
