package ingest

import (
	"github.com/shopspring/decimal"

	"github.com/ETAnderson/shopfeed/internal/domain"
)

func validProduct(key string) domain.Product {
	return domain.Product{
		ProductKey:   key,
		Path:         "/p/" + key,
		Brand:        &domain.Brand{Name: "Acme"},
		ShortName:    "Runner",
		Colour:       "Red",
		EditorsNotes: "<p>Fast</p>",
		Stock:        3,
		Prices: map[string]decimal.Decimal{
			domain.PriceKindSelling: decimal.RequireFromString("89.99"),
		},
		CategoryKeys: []string{"running"},
		ColourTags:   []string{"red", "white"},
		Sizes: []domain.SizeStock{
			{Label: "8", Stock: 1},
			{Label: "8.5", Stock: 0},
		},
		Gallery: &domain.Gallery{Images: []domain.Image{
			{ID: "img1", Path: "/media/img1.jpg", Renditions: map[string]domain.RenditionInfo{
				"large": {Path: "/media/img1_large.jpg", Width: 800, Height: 800},
			}},
		}},
		Live: true,
	}
}
