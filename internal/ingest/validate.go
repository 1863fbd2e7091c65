package ingest

import (
	"fmt"
	"strings"

	"github.com/ETAnderson/shopfeed/internal/domain"
)

type ValidationIssue struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationResult struct {
	Issues []ValidationIssue `json:"issues"`
}

func (r ValidationResult) IsValid() bool {
	return len(r.Issues) == 0
}

// ValidateProduct checks the fields every channel depends on. A product that
// passes can always be mapped; it may still be excluded from a feed later
// (no live flag, no stock).
func ValidateProduct(p domain.Product) ValidationResult {
	var res ValidationResult

	requireNonEmpty(&res, "product_key", p.ProductKey)
	requireNonEmpty(&res, "path", p.Path)
	requireNonEmpty(&res, "short_name", p.ShortName)

	if p.Path != "" && !strings.HasPrefix(p.Path, "/") {
		addIssue(&res, "path", "invalid_path", "path must be site-relative and start with \"/\"")
	}

	if p.Brand == nil {
		addIssue(&res, "brand", "required", "field is required")
	} else {
		requireNonEmpty(&res, "brand.name", p.Brand.Name)
	}

	selling, ok := p.Prices[domain.PriceKindSelling]
	if !ok {
		addIssue(&res, "prices."+domain.PriceKindSelling, "required", "a selling price is required")
	}
	for kind, amount := range p.Prices {
		if amount.IsNegative() {
			addIssue(&res, "prices."+kind, "negative_price", "price must not be negative")
		}
	}
	if ok && !selling.Equal(selling.Round(2)) {
		addIssue(&res, "prices."+domain.PriceKindSelling, "invalid_precision", "selling price must have at most 2 decimal places")
	}

	if p.Stock < 0 {
		addIssue(&res, "stock", "negative_stock", "stock must not be negative")
	}

	for i, s := range p.Sizes {
		requireNonEmpty(&res, fmt.Sprintf("sizes[%d].label", i), s.Label)
		if s.Stock < 0 {
			addIssue(&res, fmt.Sprintf("sizes[%d].stock", i), "negative_stock", "stock must not be negative")
		}
	}

	for i, c := range p.CategoryKeys {
		requireNonEmpty(&res, fmt.Sprintf("category_keys[%d]", i), c)
	}

	if p.Gallery != nil {
		for i, img := range p.Gallery.Images {
			requireNonEmpty(&res, fmt.Sprintf("gallery.images[%d].id", i), img.ID)
			for name, r := range img.Renditions {
				path := fmt.Sprintf("gallery.images[%d].renditions.%s", i, name)
				requireNonEmpty(&res, path+".path", r.Path)
				if r.Width == 0 || r.Height == 0 {
					addIssue(&res, path, "invalid_dimensions", "width and height must be positive")
				}
			}
		}
	}

	return res
}

func ValidateCategory(c domain.Category) ValidationResult {
	var res ValidationResult

	requireNonEmpty(&res, "category_key", c.Key)
	requireNonEmpty(&res, "title", c.Title)

	if c.Key != "" && c.ParentKey == c.Key {
		addIssue(&res, "parent_key", "self_parent", "category cannot be its own parent")
	}

	return res
}

func requireNonEmpty(res *ValidationResult, path string, v string) {
	if strings.TrimSpace(v) == "" {
		addIssue(res, path, "required", "field is required")
	}
}

func addIssue(res *ValidationResult, path string, code string, msg string) {
	res.Issues = append(res.Issues, ValidationIssue{
		Path:    path,
		Code:    code,
		Message: msg,
	})
}
