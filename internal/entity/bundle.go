package entity

import "time"

// StoreBundle is the decoded per-store extraction, produced per analysis run
// and never persisted as-is. StoreName is raw (pre-normalization). Items and
// Prices are parallel ordered lists; only the overlapping prefix is paired.
type StoreBundle struct {
	StoreName     string
	Items         []string
	Prices        []*float64
	PurchaseDate  string // as emitted by the model, may be empty
	TransactionID string // may be empty
}

// PricePoint is one row of the time-series projection of an extraction:
// one item, its price, the shared purchase date, and provenance.
type PricePoint struct {
	Timestamp     *time.Time `json:"timestamp"`
	Store         string     `json:"store"`
	Item          string     `json:"item"`
	Price         float64    `json:"price"`
	TransactionID string     `json:"transaction_id,omitempty"`
}
