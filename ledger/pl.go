package ledger

import (
	"math"

	"github.com/shopspring/decimal"
)

// EntryPrice is where a new position fills: buys lift the ask, sells hit
// the bid.
func EntryPrice(side Side, price, spread float64) float64 {
	if side == Buy {
		return price * (1 + spread)
	}
	return price * (1 - spread)
}

// ExitPrice is where an existing position closes: the opposite side of the
// spread from its entry.
func ExitPrice(side Side, price, spread float64) float64 {
	if side == Buy {
		return price * (1 - spread)
	}
	return price * (1 + spread)
}

// RequiredMargin is the capital reserved for lots at execPrice.
func RequiredMargin(lots, execPrice float64, leverage int) float64 {
	return lots * execPrice / float64(leverage)
}

// UnrealizedPL values an open position at price. Callers pass the raw last
// price; realized settlement uses ExitPrice instead.
func UnrealizedPL(p Position, price float64) float64 {
	if p.Side == Buy {
		return (price - p.OpenPrice) * p.Lots
	}
	return (p.OpenPrice - price) * p.Lots
}

// TruncateLots cuts x down to lot granularity (two decimals). Negative or
// non-finite input yields 0.
func TruncateLots(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x <= 0 {
		return 0
	}
	return decimal.NewFromFloat(x).Truncate(2).InexactFloat64()
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

func validLots(l float64) bool {
	return l > 0 && !math.IsInf(l, 0) && !math.IsNaN(l)
}
