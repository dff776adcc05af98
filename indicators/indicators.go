// Package indicators provides technical analysis indicators over simulated
// candles.
package indicators

import "github.com/rustyeddy/cfdsim/market"

// Indicator computes a single streaming value from candles.
// It is deterministic, so the same candle series always yields the same value.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "ATR(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* candle and updates internal state.
	Update(c market.Candle)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value is the latest reading, 0 before warmup.
	Value() float64
}

var (
	_ Indicator = (*SimpleMA)(nil)
	_ Indicator = (*ExponentialMA)(nil)
	_ Indicator = (*ATR)(nil)
	_ Indicator = (*ADX)(nil)
)

// Run feeds candles through ind in order and returns its final value and
// readiness.
func Run(ind Indicator, candles []market.Candle) (float64, bool) {
	for _, c := range candles {
		ind.Update(c)
	}
	return ind.Value(), ind.Ready()
}
