package domain

import "github.com/shopspring/decimal"

// PriceKindSelling is the price entry feeds advertise.
const PriceKindSelling = "selling"

type Brand struct {
	Name string `json:"name"`
}

// Category is a node in the merchant category tree. Parent is resolved by the
// store from ParentKey; a nil Parent marks a root.
type Category struct {
	Key           string   `json:"category_key"`
	Title         string   `json:"title"`
	ParentKey     string   `json:"parent_key,omitempty"`
	TaxonomyPaths []string `json:"taxonomy_paths,omitempty"`

	Parent *Category `json:"-"`
}

type SizeStock struct {
	Label string `json:"label"`
	Stock int    `json:"stock"`
}

// RenditionInfo describes a generated image variant as reported by the
// thumbnail generator.
type RenditionInfo struct {
	Path   string `json:"path"`
	Width  uint64 `json:"width"`
	Height uint64 `json:"height"`
}

type Image struct {
	ID   string `json:"id"`
	Path string `json:"path"`

	// Renditions is only populated on ingest; feeds resolve renditions
	// through the rendition index.
	Renditions map[string]RenditionInfo `json:"renditions,omitempty"`
}

type Gallery struct {
	Images []Image `json:"images"`
}

type Product struct {
	ProductKey string `json:"product_key"`
	Path       string `json:"path"`

	Brand     *Brand `json:"brand"`
	ShortName string `json:"short_name"`
	Colour    string `json:"colour"`

	EditorsNotes     string `json:"editors_notes"`
	ManufacturerCode string `json:"manufacturer_code,omitempty"`

	Stock  int                        `json:"stock"`
	Prices map[string]decimal.Decimal `json:"prices"`

	CategoryKeys []string    `json:"category_keys,omitempty"`
	Categories   []*Category `json:"-"`

	ColourTags []string    `json:"colour_tags,omitempty"`
	Sizes      []SizeStock `json:"sizes,omitempty"`
	Gallery    *Gallery    `json:"gallery,omitempty"`

	Live bool `json:"live"`
}

// Site identifies the storefront that absolute links are built against.
type Site struct {
	Domain string `json:"domain"`
	Scheme string `json:"scheme"`
}

func (s Site) BaseURL() string {
	scheme := s.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + s.Domain
}
