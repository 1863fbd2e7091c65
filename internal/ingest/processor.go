package ingest

import (
	"github.com/ETAnderson/shopfeed/internal/domain"
)

type PreviousHashLookup func(productKey string) (string, bool, error)

type ProductProcessResult struct {
	ProductKey string `json:"product_key"`
	Hash       string `json:"hash,omitempty"`

	Disposition domain.ProductDisposition `json:"disposition"`
	Reason      string                    `json:"reason,omitempty"`

	Issues []ValidationIssue `json:"issues,omitempty"`
}

type ProcessSummary struct {
	Received  int `json:"received"`
	Valid     int `json:"valid"`
	Rejected  int `json:"rejected"`
	Unchanged int `json:"unchanged"`
	Upserted  int `json:"upserted"`
}

// Add counts one processed product.
func (s *ProcessSummary) Add(res ProductProcessResult) {
	s.Received++
	switch res.Disposition {
	case domain.ProductDispositionRejected:
		s.Rejected++
	case domain.ProductDispositionUnchanged:
		s.Valid++
		s.Unchanged++
	case domain.ProductDispositionUpserted:
		s.Valid++
		s.Upserted++
	}
}

type ProcessOutput struct {
	Summary  ProcessSummary         `json:"summary"`
	Products []ProductProcessResult `json:"products"`
}

type Processor struct {
	Hasher Hasher
}

func NewProcessor() Processor {
	return Processor{
		Hasher: Hasher{},
	}
}

func (p Processor) ProcessProducts(products []domain.Product, lookup PreviousHashLookup) (ProcessOutput, error) {
	out := ProcessOutput{
		Products: make([]ProductProcessResult, 0, len(products)),
	}

	for _, prod := range products {
		res, err := p.ProcessProduct(prod, lookup)
		if err != nil {
			return ProcessOutput{}, err
		}
		out.Products = append(out.Products, res)
		out.Summary.Add(res)
	}

	return out, nil
}

// ProcessProduct validates and hashes one product and decides whether it
// needs to be written.
func (p Processor) ProcessProduct(prod domain.Product, lookup PreviousHashLookup) (ProductProcessResult, error) {
	res := ProductProcessResult{
		ProductKey: prod.ProductKey,
	}

	v := ValidateProduct(prod)
	if !v.IsValid() {
		res.Disposition = domain.ProductDispositionRejected
		res.Reason = "validation_failed"
		res.Issues = v.Issues
		return res, nil
	}

	hash, err := p.Hasher.HashNormalized(prod)
	if err != nil {
		return ProductProcessResult{}, err
	}
	res.Hash = hash

	prev := ""
	if lookup != nil {
		prevHash, ok, err := lookup(prod.ProductKey)
		if err != nil {
			return ProductProcessResult{}, err
		}
		if ok {
			prev = prevHash
		}
	}

	decision := ComputeDisposition(prev, hash)
	res.Disposition = decision.Disposition
	res.Reason = decision.Reason

	return res, nil
}
