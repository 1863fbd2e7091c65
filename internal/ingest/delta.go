package ingest

import "github.com/ETAnderson/shopfeed/internal/domain"

type DeltaDecision struct {
	Disposition domain.ProductDisposition `json:"disposition"`
	Reason      string                    `json:"reason"`
}

func ComputeDisposition(previousHash string, currentHash string) DeltaDecision {
	if previousHash == "" {
		return DeltaDecision{
			Disposition: domain.ProductDispositionUpserted,
			Reason:      "new_product",
		}
	}

	if previousHash == currentHash {
		return DeltaDecision{
			Disposition: domain.ProductDispositionUnchanged,
			Reason:      "no_change_detected",
		}
	}

	return DeltaDecision{
		Disposition: domain.ProductDispositionUpserted,
		Reason:      "content_changed",
	}
}
