// Package feed holds the destination-neutral pieces of the feed pipeline:
// static schema configuration, enum sets and the trimming rules mappers apply
// before a writer sees an item.
package feed

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// MaxSchemaFileSize bounds schema files read from disk (1MB).
const MaxSchemaFileSize = 1024 * 1024

type ChannelDefaults struct {
	Title       string `yaml:"title" validate:"required"`
	Link        string `yaml:"link" validate:"required"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
}

type Enums struct {
	Conditions   []string `yaml:"conditions" validate:"required,min=1"`
	OnlineOnly   []string `yaml:"online_only" validate:"required,min=1"`
	PaymentTypes []string `yaml:"payment_types" validate:"required,min=1"`
	PriceTypes   []string `yaml:"price_types"`
}

// ItemDefaults are the values every mapped item carries regardless of product.
type ItemDefaults struct {
	Condition        string   `yaml:"condition"`
	OnlineOnly       string   `yaml:"online_only"`
	PaymentsAccepted []string `yaml:"payments_accepted"`
	PaymentNotes     string   `yaml:"payment_notes"`
}

// Schema is the static configuration of one destination feed. It is loaded
// once at startup and never mutated afterwards.
type Schema struct {
	DescriptionLimit int    `yaml:"description_limit" validate:"gt=0"`
	MaxAttrs         int    `yaml:"max_attrs" validate:"gt=0"`
	Currency         string `yaml:"currency" validate:"required,len=3"`
	LinkQuery        string `yaml:"link_query"`

	// Rendition names the image variant used for image links.
	Rendition         string `yaml:"rendition" validate:"required"`
	FreeShippingPrice string `yaml:"free_shipping_price" validate:"required"`

	Channel  ChannelDefaults `yaml:"channel"`
	Enums    Enums           `yaml:"enums"`
	Defaults ItemDefaults    `yaml:"defaults"`

	// RootCategoryTaxonomy maps a merchant root category title to the
	// destination taxonomy string.
	RootCategoryTaxonomy TaxonomyTable `yaml:"root_category_taxonomy"`
}

func DefaultSchema() Schema {
	return Schema{
		DescriptionLimit:  10000,
		MaxAttrs:          10,
		Currency:          "GBP",
		LinkQuery:         "utm_source=google_product_search&utm_medium=organic&utm_campaign=google_product_search",
		Rendition:         "product_fullsize",
		FreeShippingPrice: "0.00",
		Channel: ChannelDefaults{
			Title:       "Products From Your Store",
			Link:        "http://www.yoursite.com/",
			Description: "Google Product Search feed",
		},
		Enums: Enums{
			Conditions:   []string{"new", "used", "refurbished"},
			OnlineOnly:   []string{"y", "n"},
			PaymentTypes: []string{"Cash", "Check", "Visa", "MasterCard", "AmericanExpress", "Discover", "GoogleCheckout", "wiretransfer"},
			PriceTypes:   []string{"negotiable", "starting"},
		},
		Defaults: ItemDefaults{
			Condition:        "new",
			OnlineOnly:       "y",
			PaymentsAccepted: []string{"Visa", "MasterCard", "AmericanExpress"},
			PaymentNotes:     "PayPal",
		},
		RootCategoryTaxonomy: TaxonomyTable{
			"Sneakers": "Clothing & Accessories > Shoes",
			"Clothing": "Clothing & Accessories > Clothing",
		},
	}
}

// LoadSchema reads a YAML schema file. Keys absent from the file keep their
// DefaultSchema values; a taxonomy table in the file replaces the default one.
func LoadSchema(path string) (Schema, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Schema{}, err
	}
	if info.Size() > MaxSchemaFileSize {
		return Schema{}, fmt.Errorf("schema file %s exceeds %d bytes", path, MaxSchemaFileSize)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, err
	}

	return ParseSchema(raw)
}

func ParseSchema(raw []byte) (Schema, error) {
	s := DefaultSchema()
	defaultTable := s.RootCategoryTaxonomy
	s.RootCategoryTaxonomy = nil

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return Schema{}, fmt.Errorf("decode schema: %w", err)
	}

	if s.RootCategoryTaxonomy == nil {
		s.RootCategoryTaxonomy = defaultTable
	}

	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

var schemaValidate = validator.New()

func (s Schema) Validate() error {
	if err := schemaValidate.Struct(s); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	return nil
}
