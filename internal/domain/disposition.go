package domain

type ProductDisposition string

const (
	ProductDispositionRejected  ProductDisposition = "rejected"
	ProductDispositionUnchanged ProductDisposition = "unchanged"
	ProductDispositionUpserted  ProductDisposition = "upserted"
)
