package google

// Item is one product mapped onto the Google Shopping attribute set. Nil
// pointers and nil slices are absent attributes and are never written.
type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string

	GoogleCategory *string
	Brand          *string
	Colors         []string
	Condition      *string
	EAN            *string
	Features       []string

	// ImageLinks[0] is the primary image; the rest are additional images.
	ImageLinks []string

	MadeIn       *string
	Manufacturer *string
	Materials    []string
	ModelNumber  *string
	MPN          *string
	OnlineOnly   *string

	PaymentsAccepted []string
	PaymentNotes     *string

	Price     string // decimal amount, e.g. "49.99"
	Currency  string
	PriceType *string

	ProductTypes  []string
	Quantity      *string
	Sizes         []string
	UPC           *string
	YouTubeVideos []string
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
