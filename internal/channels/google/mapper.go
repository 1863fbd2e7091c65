package google

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ETAnderson/shopfeed/internal/catalog"
	"github.com/ETAnderson/shopfeed/internal/domain"
	"github.com/ETAnderson/shopfeed/internal/feed"
)

var (
	ErrMissingBrand = errors.New("product has no brand")
	ErrMissingPrice = errors.New("product has no selling price")
)

const sizesInStockPrefix = " Sizes in stock: "

// MapStats reports what the mapper degraded while building one item.
type MapStats struct {
	ImagesSkipped int
}

// Mapper derives feed items from products. It holds only immutable
// configuration and may be shared between goroutines.
type Mapper struct {
	Schema feed.Schema
	Site   domain.Site

	Prices     catalog.PriceResolver
	Renditions catalog.RenditionResolver
}

// Map builds the feed item for p. inStock is the ordered list of purchasable
// size labels; the description lists all of them while the size attributes
// carry the trimmed set.
func (m Mapper) Map(ctx context.Context, p domain.Product, inStock []string) (Item, MapStats, error) {
	var stats MapStats

	if p.Brand == nil {
		return Item{}, stats, ErrMissingBrand
	}
	brand := p.Brand.Name

	price, err := m.sellingPrice(p)
	if err != nil {
		return Item{}, stats, err
	}

	link := m.link(p)
	limit := m.Schema.MaxAttrs
	def := m.Schema.Defaults

	it := Item{
		GUID:        link,
		Title:       fmt.Sprintf("%s %s, %s", brand, p.ShortName, p.Colour),
		Link:        link,
		Description: m.description(p, inStock),

		GoogleCategory: m.googleCategory(p),
		Brand:          optional(brand),
		Colors:         append(feed.Head(p.ColourTags, limit-1), p.Colour),
		Condition:      optional(def.Condition),

		Manufacturer: optional(brand),
		MPN:          optional(p.ManufacturerCode),
		OnlineOnly:   optional(def.OnlineOnly),

		PaymentsAccepted: feed.Head(def.PaymentsAccepted, len(def.PaymentsAccepted)),
		PaymentNotes:     optional(def.PaymentNotes),

		Price:    price,
		Currency: m.Schema.Currency,

		ProductTypes: productTypes(p, limit),
		Quantity:     optional(strconv.Itoa(p.Stock)),
		Sizes:        feed.TrimSizes(inStock, limit),
	}

	if p.Gallery != nil {
		it.ImageLinks, stats.ImagesSkipped = m.imageLinks(ctx, p.Gallery)
	}

	return it, stats, nil
}

func (m Mapper) sellingPrice(p domain.Product) (string, error) {
	prices := p.Prices
	if m.Prices != nil {
		prices = m.Prices.Prices(p)
	}

	sel, ok := prices[domain.PriceKindSelling]
	if !ok {
		return "", ErrMissingPrice
	}
	return sel.StringFixed(2), nil
}

func (m Mapper) link(p domain.Product) string {
	link := m.Site.BaseURL() + p.Path
	if m.Schema.LinkQuery != "" {
		link += "?" + m.Schema.LinkQuery
	}
	return link
}

func (m Mapper) description(p domain.Product, inStock []string) string {
	suffix := sizesInStockPrefix + strings.Join(inStock, ",")
	return feed.ComposeWithSuffix(feed.StripMarkup(p.EditorsNotes), suffix, m.Schema.DescriptionLimit)
}

// googleCategory resolves the taxonomy string of the first category's root.
// Missing categories, broken trees and unmapped roots all yield nil.
func (m Mapper) googleCategory(p domain.Product) *string {
	if len(p.Categories) == 0 {
		return nil
	}

	root, err := feed.RootCategory(p.Categories[0])
	if err != nil {
		return nil
	}

	v, ok := m.Schema.RootCategoryTaxonomy.Lookup(root.Title)
	if !ok {
		return nil
	}
	return &v
}

func productTypes(p domain.Product, limit int) []string {
	var all []string
	for _, c := range p.Categories {
		if c == nil {
			continue
		}
		all = append(all, c.TaxonomyPaths...)
	}
	return feed.UniqueCapped(all, limit)
}

// imageLinks resolves up to 1+MaxAttrs gallery images. Images without a
// usable rendition are skipped.
func (m Mapper) imageLinks(ctx context.Context, g *domain.Gallery) ([]string, int) {
	images := g.Images
	if n := m.Schema.MaxAttrs + 1; len(images) > n {
		images = images[:n]
	}

	links := make([]string, 0, len(images))
	skipped := 0
	for _, img := range images {
		if m.Renditions == nil {
			skipped++
			continue
		}

		r := m.Renditions.Resolve(ctx, img, m.Schema.Rendition)
		if !r.OK() {
			skipped++
			continue
		}
		links = append(links, m.Site.BaseURL()+r.Path)
	}

	return links, skipped
}
