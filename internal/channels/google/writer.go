package google

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/ETAnderson/shopfeed/internal/feed"
	"github.com/ETAnderson/shopfeed/internal/feed/rss"
)

const (
	NamespaceG = "http://base.google.com/ns/1.0"
	NamespaceC = "http://base.google.com/cns/1.0"

	// Only in-stock products are listed.
	availabilityInStock = "in stock"
)

// Writer serializes items as RSS 2.0 with Google Base g: attributes.
type Writer struct {
	freeShippingPrice string

	conditions   feed.EnumSet
	onlineOnly   feed.EnumSet
	paymentTypes feed.EnumSet
	priceTypes   feed.EnumSet
}

func NewWriter(s feed.Schema) Writer {
	return Writer{
		freeShippingPrice: s.FreeShippingPrice,
		conditions:        feed.NewEnumSet(s.Enums.Conditions...),
		onlineOnly:        feed.NewEnumSet(s.Enums.OnlineOnly...),
		paymentTypes:      feed.NewEnumSet(s.Enums.PaymentTypes...),
		priceTypes:        feed.NewEnumSet(s.Enums.PriceTypes...),
	}
}

func (w Writer) Write(out io.Writer, ch rss.Channel, items []Item) error {
	base := make([]rss.Item, len(items))
	for i, it := range items {
		base[i] = rss.Item{
			Title:       it.Title,
			Link:        it.Link,
			Description: it.Description,
			GUID:        it.GUID,
		}
	}

	rw := rss.Writer{
		RootAttrs: []xml.Attr{
			{Name: xml.Name{Local: "xmlns:g"}, Value: NamespaceG},
			{Name: xml.Name{Local: "xmlns:c"}, Value: NamespaceC},
		},
		ItemElements: func(e *rss.ElementWriter, i int) error {
			if err := w.writeItem(e, items[i]); err != nil {
				return fmt.Errorf("item %d (%s): %w", i, items[i].GUID, err)
			}
			return nil
		},
	}

	return rw.Write(out, ch, base)
}

func (w Writer) writeItem(e *rss.ElementWriter, it Item) error {
	if it.Price == "" || it.Currency == "" {
		return ErrMissingPrice
	}

	e.Quick("g:availability", availabilityInStock)

	quickOpt(e, "g:google_product_category", it.GoogleCategory)
	quickOpt(e, "g:brand", it.Brand)
	quickEach(e, "g:color", it.Colors)

	if it.Condition != nil && w.conditions.Contains(*it.Condition) {
		e.Quick("g:condition", *it.Condition)
	}

	quickOpt(e, "g:ean", it.EAN)
	quickEach(e, "g:feature", it.Features)

	tag := "g:image_link"
	for _, link := range it.ImageLinks {
		e.Quick(tag, link)
		tag = "g:additional_image_link"
	}

	quickOpt(e, "g:made_in", it.MadeIn)
	quickOpt(e, "g:manufacturer", it.Manufacturer)
	quickEach(e, "g:material", it.Materials)
	quickOpt(e, "g:model_number", it.ModelNumber)
	quickOpt(e, "g:mpn", it.MPN)

	if it.OnlineOnly != nil && w.onlineOnly.Contains(*it.OnlineOnly) {
		e.Quick("g:online_only", *it.OnlineOnly)
	}

	quickEach(e, "g:payment_accepted", w.paymentTypes.Filter(it.PaymentsAccepted))
	quickOpt(e, "g:payment_notes", it.PaymentNotes)

	e.Quick("g:price", it.Price+" "+it.Currency)

	if it.PriceType != nil && w.priceTypes.Contains(*it.PriceType) {
		e.Quick("g:price_type", *it.PriceType)
	}

	quickEach(e, "g:product_type", it.ProductTypes)
	quickOpt(e, "g:quantity", it.Quantity)
	quickEach(e, "g:size", it.Sizes)
	quickOpt(e, "g:upc", it.UPC)
	quickEach(e, "g:youtube", it.YouTubeVideos)

	e.Start("g:shipping")
	e.Quick("g:price", w.freeShippingPrice)
	e.End("g:shipping")

	return e.Err()
}

func quickOpt(e *rss.ElementWriter, name string, v *string) {
	if v != nil {
		e.Quick(name, *v)
	}
}

func quickEach(e *rss.ElementWriter, name string, vs []string) {
	for _, v := range vs {
		e.Quick(name, v)
	}
}
