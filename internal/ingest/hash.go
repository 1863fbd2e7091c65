package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/ETAnderson/shopfeed/internal/domain"
)

type Hasher struct{}

func (h Hasher) HashNormalized(p domain.Product) (string, error) {
	n := normalizeForHash(p)

	b, err := json.Marshal(n)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// normalizeForHash builds a deterministic representation of the product.
// Ordered lists (category keys, colour tags, sizes, gallery) keep their order
// because feeds depend on it; maps are flattened to sorted pairs and amounts
// are compared by value, so "10" and "10.00" hash the same.
func normalizeForHash(p domain.Product) any {
	brand := ""
	if p.Brand != nil {
		brand = p.Brand.Name
	}

	prices := make([]any, 0, len(p.Prices))
	for _, k := range sortedKeys(p.Prices) {
		prices = append(prices, map[string]any{
			"k": k,
			"v": p.Prices[k].String(),
		})
	}

	sizes := make([]any, 0, len(p.Sizes))
	for _, s := range p.Sizes {
		sizes = append(sizes, map[string]any{"label": s.Label, "stock": s.Stock})
	}

	images := []any{}
	if p.Gallery != nil {
		for _, img := range p.Gallery.Images {
			renditions := make([]any, 0, len(img.Renditions))
			for _, name := range sortedKeys(img.Renditions) {
				r := img.Renditions[name]
				renditions = append(renditions, map[string]any{
					"name":   name,
					"path":   r.Path,
					"width":  r.Width,
					"height": r.Height,
				})
			}
			images = append(images, map[string]any{
				"id":         img.ID,
				"path":       img.Path,
				"renditions": renditions,
			})
		}
	}

	return map[string]any{
		"product_key": p.ProductKey,
		"path":        p.Path,

		"brand":      brand,
		"short_name": p.ShortName,
		"colour":     p.Colour,

		"editors_notes":     p.EditorsNotes,
		"manufacturer_code": p.ManufacturerCode,

		"stock":  p.Stock,
		"prices": prices,

		"category_keys": orEmpty(p.CategoryKeys),
		"colour_tags":   orEmpty(p.ColourTags),
		"sizes":         sizes,
		"images":        images,

		"live": p.Live,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
