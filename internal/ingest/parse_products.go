package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ETAnderson/shopfeed/internal/domain"
)

type UnknownKeyWarning struct {
	UnknownKeys []string `json:"unknown_keys"`
}

type ParseResult struct {
	Products []domain.Product
	Warnings UnknownKeyWarning
}

func ParseProductsAllowUnknown(body []byte) (ParseResult, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	// Expect an array of objects
	var rawItems []map[string]json.RawMessage
	if err := dec.Decode(&rawItems); err != nil {
		return ParseResult{}, err
	}

	unknown := make(map[string]struct{})

	products := make([]domain.Product, 0, len(rawItems))
	for i, item := range rawItems {
		p, itemUnknown, err := parseSingleProduct(item)
		if err != nil {
			return ParseResult{}, fmt.Errorf("product %d: %w", i, err)
		}

		for k := range itemUnknown {
			unknown[k] = struct{}{}
		}

		products = append(products, p)
	}

	return ParseResult{
		Products: products,
		Warnings: UnknownKeyWarning{UnknownKeys: setToSortedSlice(unknown)},
	}, nil
}

func ParseProductObjectAllowUnknown(line []byte) (domain.Product, map[string]struct{}, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(line, &obj); err != nil {
		return domain.Product{}, nil, err
	}

	return parseSingleProduct(obj)
}

func parseSingleProduct(item map[string]json.RawMessage) (domain.Product, map[string]struct{}, error) {
	unknown := make(map[string]struct{})
	for key := range item {
		if _, ok := knownProductKeys[key]; !ok {
			unknown[key] = struct{}{}
		}
	}

	var p domain.Product

	unmarshalIfPresent(item, "product_key", &p.ProductKey)
	unmarshalIfPresent(item, "path", &p.Path)
	unmarshalIfPresent(item, "short_name", &p.ShortName)
	unmarshalIfPresent(item, "colour", &p.Colour)
	unmarshalIfPresent(item, "editors_notes", &p.EditorsNotes)
	unmarshalIfPresent(item, "manufacturer_code", &p.ManufacturerCode)
	unmarshalIfPresent(item, "stock", &p.Stock)
	unmarshalIfPresent(item, "category_keys", &p.CategoryKeys)
	unmarshalIfPresent(item, "colour_tags", &p.ColourTags)
	unmarshalIfPresent(item, "sizes", &p.Sizes)
	unmarshalIfPresent(item, "live", &p.Live)

	if raw, ok := item["brand"]; ok && !isNull(raw) {
		var b domain.Brand
		if err := json.Unmarshal(raw, &b); err != nil {
			return domain.Product{}, nil, fmt.Errorf("brand: %w", err)
		}
		p.Brand = &b
	}

	// A bad amount would silently drop the price, so surface it.
	if raw, ok := item["prices"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &p.Prices); err != nil {
			return domain.Product{}, nil, fmt.Errorf("prices: %w", err)
		}
	}

	if raw, ok := item["gallery"]; ok && !isNull(raw) {
		var g domain.Gallery
		if err := json.Unmarshal(raw, &g); err != nil {
			return domain.Product{}, nil, fmt.Errorf("gallery: %w", err)
		}
		p.Gallery = &g
	}

	// We keep original key spelling for easier customer debugging, but we do trim whitespace.
	normalized := make(map[string]struct{}, len(unknown))
	for k := range unknown {
		kk := strings.TrimSpace(k)
		if kk != "" {
			normalized[kk] = struct{}{}
		}
	}

	return p, normalized, nil
}

var knownProductKeys = map[string]struct{}{
	"product_key":       {},
	"path":              {},
	"brand":             {},
	"short_name":        {},
	"colour":            {},
	"editors_notes":     {},
	"manufacturer_code": {},
	"stock":             {},
	"prices":            {},
	"category_keys":     {},
	"colour_tags":       {},
	"sizes":             {},
	"gallery":           {},
	"live":              {},
}

// ParseCategories decodes a JSON array of categories. Unknown keys are
// rejected; categories are small, hand-maintained documents.
func ParseCategories(body []byte) ([]domain.Category, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	var cats []domain.Category
	if err := dec.Decode(&cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func unmarshalIfPresent[T any](obj map[string]json.RawMessage, key string, dst *T) {
	raw, ok := obj[key]
	if !ok {
		return
	}
	_ = json.Unmarshal(raw, dst) // validation catches missing/invalid required fields later
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func setToSortedSlice(set map[string]struct{}) []string {
	if len(set) == 0 {
		return []string{}
	}

	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func SortedUnknownKeys(set map[string]struct{}) []string {
	return setToSortedSlice(set)
}
