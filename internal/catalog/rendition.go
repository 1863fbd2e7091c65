package catalog

type RenditionStatus string

const (
	RenditionAvailable RenditionStatus = "available"
	RenditionMissing   RenditionStatus = "missing"
	RenditionOversized RenditionStatus = "oversized"
	RenditionFailed    RenditionStatus = "failed"
)

// Rendition is the outcome of resolving an image variant. Path is only set
// when Status is RenditionAvailable.
type Rendition struct {
	Path   string
	Status RenditionStatus
	Reason string
}

func Available(path string) Rendition {
	return Rendition{Path: path, Status: RenditionAvailable}
}

func Unavailable(status RenditionStatus, reason string) Rendition {
	return Rendition{Status: status, Reason: reason}
}

func (r Rendition) OK() bool {
	return r.Status == RenditionAvailable && r.Path != ""
}
