package google

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ETAnderson/shopfeed/internal/catalog"
	"github.com/ETAnderson/shopfeed/internal/channels"
	"github.com/ETAnderson/shopfeed/internal/domain"
	"github.com/ETAnderson/shopfeed/internal/feed"
	"github.com/ETAnderson/shopfeed/internal/feed/rss"
)

func ptr(s string) *string { return &s }

func minimalItem() Item {
	return Item{
		GUID:        "http://shop.example/p/1",
		Title:       "T",
		Link:        "http://shop.example/p/1",
		Description: "D",
		Price:       "10.00",
		Currency:    "GBP",
	}
}

func writeItems(t *testing.T, items ...Item) string {
	t.Helper()

	var buf bytes.Buffer
	err := NewWriter(feed.DefaultSchema()).Write(&buf, rss.Channel{Title: "Feed", Link: "http://shop.example/"}, items)
	require.NoError(t, err)
	return buf.String()
}

func TestWriter_RootNamespaces(t *testing.T) {
	out := writeItems(t)
	assert.Contains(t, out, `<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom" xmlns:g="http://base.google.com/ns/1.0" xmlns:c="http://base.google.com/cns/1.0">`)
}

func TestWriter_FixedElements(t *testing.T) {
	out := writeItems(t, minimalItem())

	want := `<item>` +
		`<title>T</title><link>http://shop.example/p/1</link><description>D</description><guid>http://shop.example/p/1</guid>` +
		`<g:availability>in stock</g:availability>` +
		`<g:price>10.00 GBP</g:price>` +
		`<g:shipping><g:price>0.00</g:price></g:shipping>` +
		`</item>`
	assert.Contains(t, out, want)
}

func TestWriter_OmitsAbsentOptionalFields(t *testing.T) {
	out := writeItems(t, minimalItem())

	for _, tag := range []string{
		"g:google_product_category", "g:brand", "g:color", "g:condition", "g:ean", "g:feature",
		"g:image_link", "g:additional_image_link", "g:made_in", "g:manufacturer", "g:material",
		"g:model_number", "g:mpn", "g:online_only", "g:payment_accepted", "g:payment_notes",
		"g:price_type", "g:product_type", "g:quantity", "g:size", "g:upc", "g:youtube",
	} {
		assert.NotContains(t, out, "<"+tag+">", tag)
	}
}

func TestWriter_OutOfEnumValuesDropped(t *testing.T) {
	it := minimalItem()
	it.Condition = ptr("pristine")
	it.OnlineOnly = ptr("maybe")
	it.PriceType = ptr("bogus")
	it.PaymentsAccepted = []string{"Visa", "Bitcoin", "Discover"}

	out := writeItems(t, it)

	assert.NotContains(t, out, "g:condition")
	assert.NotContains(t, out, "pristine")
	assert.NotContains(t, out, "g:online_only")
	assert.NotContains(t, out, "g:price_type")
	assert.NotContains(t, out, "Bitcoin")
	assert.Contains(t, out, `<g:payment_accepted>Visa</g:payment_accepted><g:payment_accepted>Discover</g:payment_accepted>`)
}

func TestWriter_InEnumValuesEmitted(t *testing.T) {
	it := minimalItem()
	it.Condition = ptr("refurbished")
	it.OnlineOnly = ptr("n")
	it.PriceType = ptr("starting")

	out := writeItems(t, it)

	assert.Contains(t, out, `<g:condition>refurbished</g:condition>`)
	assert.Contains(t, out, `<g:online_only>n</g:online_only>`)
	assert.Contains(t, out, `<g:price_type>starting</g:price_type>`)
}

func TestWriter_RepeatedListTags(t *testing.T) {
	it := minimalItem()
	it.Colors = []string{"Red", "Blue"}
	it.Features = []string{"Waterproof"}
	it.Materials = []string{"Leather", "Rubber"}
	it.ProductTypes = []string{"Shoes", "Sale"}
	it.Sizes = []string{"8", "9"}
	it.YouTubeVideos = []string{"https://youtu.be/x"}
	it.ImageLinks = []string{"http://shop.example/1.jpg", "http://shop.example/2.jpg", "http://shop.example/3.jpg"}

	out := writeItems(t, it)

	assert.Contains(t, out, `<g:color>Red</g:color><g:color>Blue</g:color>`)
	assert.Contains(t, out, `<g:feature>Waterproof</g:feature>`)
	assert.Contains(t, out, `<g:material>Leather</g:material><g:material>Rubber</g:material>`)
	assert.Contains(t, out, `<g:product_type>Shoes</g:product_type><g:product_type>Sale</g:product_type>`)
	assert.Contains(t, out, `<g:size>8</g:size><g:size>9</g:size>`)
	assert.Contains(t, out, `<g:youtube>https://youtu.be/x</g:youtube>`)
	assert.Contains(t, out,
		`<g:image_link>http://shop.example/1.jpg</g:image_link>`+
			`<g:additional_image_link>http://shop.example/2.jpg</g:additional_image_link>`+
			`<g:additional_image_link>http://shop.example/3.jpg</g:additional_image_link>`)
	assert.Equal(t, 1, strings.Count(out, "<g:image_link>"))
}

func TestWriter_MissingPriceFails(t *testing.T) {
	it := minimalItem()
	it.Price = ""

	var buf bytes.Buffer
	err := NewWriter(feed.DefaultSchema()).Write(&buf, rss.Channel{}, []Item{it})
	assert.ErrorIs(t, err, ErrMissingPrice)
}

func TestWriter_EscapesText(t *testing.T) {
	it := minimalItem()
	it.GoogleCategory = ptr("Clothing & Accessories > Shoes")

	out := writeItems(t, it)
	assert.Contains(t, out, `<g:google_product_category>Clothing &amp; Accessories &gt; Shoes</g:google_product_category>`)
}

func TestChannel_Generate_EndToEnd(t *testing.T) {
	ch := Channel{Schema: feed.DefaultSchema()}

	var buf bytes.Buffer
	res, err := ch.Generate(context.Background(), &buf, channels.GenerateInput{
		Products:   []domain.Product{acmeRunner()},
		Site:       testSite(),
		Sizes:      catalog.StockSizes{},
		Prices:     catalog.ListedPrices{},
		Renditions: stubRenditions{},
		FeedURL:    "http://shop.example/feeds/google.xml",
		BuildDate:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "google", res.Channel)
	assert.Equal(t, 1, res.Items)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, rss.Declaration))
	assert.Contains(t, out, `<link>http://shop.example/</link>`)
	assert.Contains(t, out, `<title>Acme Runner, Red</title>`)
	assert.Contains(t, out, `<g:price>49.99 GBP</g:price>`)
	assert.Contains(t, out, `<g:quantity>5</g:quantity>`)
	assert.Equal(t, 3, strings.Count(out, "<g:size>"))
	assert.NotContains(t, out, "g:image_link")
	assert.Contains(t, out, `<g:availability>in stock</g:availability>`)
	assert.Contains(t, out, `<g:shipping><g:price>0.00</g:price></g:shipping>`)
	assert.Contains(t, out, `<g:payment_notes>PayPal</g:payment_notes>`)
}

func TestChannel_Generate_Idempotent(t *testing.T) {
	ch := Channel{Schema: feed.DefaultSchema()}
	p := acmeRunner()
	p.Gallery = &domain.Gallery{Images: []domain.Image{{ID: "a"}, {ID: "b"}}}

	in := channels.GenerateInput{
		Products:   []domain.Product{p, acmeRunner()},
		Site:       testSite(),
		Renditions: stubRenditions{},
		BuildDate:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	var a, b bytes.Buffer
	_, err := ch.Generate(context.Background(), &a, in)
	require.NoError(t, err)
	_, err = ch.Generate(context.Background(), &b, in)
	require.NoError(t, err)

	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestChannel_Generate_FailsWholeRun(t *testing.T) {
	ch := Channel{Schema: feed.DefaultSchema()}
	bad := acmeRunner()
	bad.ProductKey = "no-brand"
	bad.Brand = nil

	var buf bytes.Buffer
	_, err := ch.Generate(context.Background(), &buf, channels.GenerateInput{
		Products: []domain.Product{acmeRunner(), bad},
		Site:     testSite(),
	})
	require.ErrorIs(t, err, ErrMissingBrand)
	assert.Contains(t, err.Error(), "no-brand")
	assert.Zero(t, buf.Len(), "nothing is written when mapping fails")
}

func TestChannel_Generate_CountsSkippedImages(t *testing.T) {
	ch := Channel{Schema: feed.DefaultSchema()}
	p := acmeRunner()
	p.Gallery = &domain.Gallery{Images: []domain.Image{{ID: "ok"}, {ID: "gone"}}}

	var buf bytes.Buffer
	res, err := ch.Generate(context.Background(), &buf, channels.GenerateInput{
		Products:   []domain.Product{p},
		Site:       testSite(),
		Renditions: stubRenditions{fail: map[string]catalog.RenditionStatus{"gone": catalog.RenditionMissing}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ImagesSkipped)
	assert.Contains(t, buf.String(), `<g:image_link>http://shop.example/media/ok_full.jpg</g:image_link>`)
}

func TestChannel_Generate_SizesFollowEachProduct(t *testing.T) {
	ch := Channel{Schema: feed.DefaultSchema()}

	first := acmeRunner()
	second := acmeRunner()
	second.Sizes = []domain.SizeStock{{Label: "11", Stock: 1}}

	var buf bytes.Buffer
	_, err := ch.Generate(context.Background(), &buf, channels.GenerateInput{
		Products: []domain.Product{first, second},
		Site:     testSite(),
		Sizes:    catalog.StockSizes{},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 4, strings.Count(out, "<g:size>"))
	assert.Equal(t, 1, strings.Count(out, "<g:size>11</g:size>"))
	assert.Equal(t, 1, strings.Count(out, "<g:size>8</g:size>"))
}
