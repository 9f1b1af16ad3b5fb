// internal/sweep/rank.go
package sweep

import (
	"sort"

	"github.com/rovshanmuradov/solsweep/internal/discovery"
)

// Valuate pairs each holding with its unit price and computed value.
// A symbol missing from the price map values the holding at zero.
func Valuate(holdings []discovery.Holding, prices map[string]float64) []PricedHolding {
	priced := make([]PricedHolding, 0, len(holdings))
	for _, h := range holdings {
		price := prices[h.Symbol]
		priced = append(priced, PricedHolding{
			Holding: h,
			Price:   price,
			Value:   price * h.Balance,
		})
	}
	return priced
}

// Rank filters holdings to those worth more than minValue and sorts them by
// value descending. The sort is stable: equal values keep discovery order.
// The result is the snapshot the transfer loop executes against.
func Rank(holdings []discovery.Holding, prices map[string]float64, minValue float64) []PricedHolding {
	priced := Valuate(holdings, prices)

	filtered := make([]PricedHolding, 0, len(priced))
	for _, p := range priced {
		if p.Value > minValue {
			filtered = append(filtered, p)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Value > filtered[j].Value
	})

	return filtered
}
