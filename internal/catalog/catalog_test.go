package catalog

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ETAnderson/shopfeed/internal/domain"
)

func TestStockSizes_KeepsOrderAndSkipsEmpty(t *testing.T) {
	p := domain.Product{Sizes: []domain.SizeStock{
		{Label: "8", Stock: 2},
		{Label: "8.5", Stock: 0},
		{Label: "9", Stock: 1},
		{Label: "10", Stock: -1},
		{Label: "11", Stock: 4},
	}}

	got := StockSizes{}.InStockSizes(p)
	want := []string{"8", "9", "11"}
	if len(got) != len(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v got %v", want, got)
		}
	}
}

func TestListedPrices(t *testing.T) {
	p := domain.Product{Prices: map[string]decimal.Decimal{
		domain.PriceKindSelling: decimal.RequireFromString("49.99"),
	}}

	got := ListedPrices{}.Prices(p)[domain.PriceKindSelling]
	if got.StringFixed(2) != "49.99" {
		t.Fatalf("unexpected price %s", got)
	}
}

func TestRendition_OK(t *testing.T) {
	if !Available("/media/a.jpg").OK() {
		t.Fatalf("expected available rendition to be ok")
	}
	if Available("").OK() {
		t.Fatalf("expected empty path to be unusable")
	}
	if Unavailable(RenditionOversized, "too big").OK() {
		t.Fatalf("expected unavailable rendition not ok")
	}
}
