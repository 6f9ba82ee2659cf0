package decode

import (
	"log/slog"
	"sort"
	"time"

	"github.com/famcart/receipt-analyzer/internal/entity"
)

// purchaseDateFormats covers the date shapes the model has been seen to emit.
var purchaseDateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
}

// PricePoints is the time-series projection of a model response: one flat
// record per item/price pair, paired by index up to the shorter list. Items
// beyond the shorter list are silently dropped. The shared purchase date is
// attached to every point, nil when absent or unparseable.
func PricePoints(modelResponse string, logger *slog.Logger) []entity.PricePoint {
	bundles := Stores(modelResponse, logger)

	names := make([]string, 0, len(bundles))
	for name := range bundles {
		names = append(names, name)
	}
	sort.Strings(names)

	var points []entity.PricePoint
	for _, name := range names {
		b := bundles[name]
		ts := ParsePurchaseDate(b.PurchaseDate)

		n := len(b.Items)
		if len(b.Prices) < n {
			n = len(b.Prices)
		}
		for i := 0; i < n; i++ {
			if b.Prices[i] == nil {
				continue
			}
			points = append(points, entity.PricePoint{
				Timestamp:     ts,
				Store:         b.StoreName,
				Item:          b.Items[i],
				Price:         *b.Prices[i],
				TransactionID: b.TransactionID,
			})
		}
	}
	return points
}

// ParsePurchaseDate tries the known formats in order, nil when none fit.
func ParsePurchaseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, format := range purchaseDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return &t
		}
	}
	return nil
}
