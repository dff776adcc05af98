package market

import (
	"fmt"
	"math"
	"time"
)

// GeneratorConfig controls the fat-tail behaviour of the random walk.
type GeneratorConfig struct {
	ExtremeProbability float64 // chance per candle of an extreme move
	ExtremeMin         float64 // lower bound of the extreme multiplier
	ExtremeMax         float64 // upper bound (exclusive) of the extreme multiplier
}

// DefaultGeneratorConfig returns a 2% chance of a 3x..7x move.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		ExtremeProbability: 0.02,
		ExtremeMin:         3,
		ExtremeMax:         7,
	}
}

func (c GeneratorConfig) Validate() error {
	if c.ExtremeProbability < 0 || c.ExtremeProbability > 1 {
		return fmt.Errorf("extreme probability must be within [0,1], got %v", c.ExtremeProbability)
	}
	if c.ExtremeMin < 1 || c.ExtremeMax < c.ExtremeMin {
		return fmt.Errorf("extreme multiplier range [%v,%v) is invalid", c.ExtremeMin, c.ExtremeMax)
	}
	return nil
}

// Generator produces candles as a geometric random walk conditioned on a
// Regime. It holds no state besides its configuration and random source.
type Generator struct {
	cfg GeneratorConfig
	rng Rand
}

func NewGenerator(cfg GeneratorConfig, rng Rand) *Generator {
	return &Generator{cfg: cfg, rng: rng}
}

// Next builds the candle that opens at open under regime r.
//
// The close moves by a directional step |bias|*strength + U(0,vol), signed
// by an up/down draw and scaled by an occasional extreme multiplier, plus
// unbiased jitter U(-vol/4, vol/4). Wicks extend beyond the body by up to
// |close-open| * U(0.5,2).
func (g *Generator) Next(r Regime, open float64, tm time.Time) Candle {
	goesUp := g.rng.Float64() < r.UpProbability
	strength := uniform(g.rng, 0.3, 1.0)

	multiplier := 1.0
	if g.rng.Float64() < g.cfg.ExtremeProbability {
		multiplier = uniform(g.rng, g.cfg.ExtremeMin, g.cfg.ExtremeMax)
	}

	change := (math.Abs(r.Bias)*strength + uniform(g.rng, 0, r.Volatility)) * multiplier
	if !goesUp {
		change = -change
	}
	change += uniform(g.rng, -0.25*r.Volatility, 0.25*r.Volatility)

	close := open * (1 + change)

	wick := math.Abs(close-open) * uniform(g.rng, 0.5, 2.0)
	top := math.Max(open, close)
	bottom := math.Min(open, close)
	high := top + wick*g.rng.Float64()
	low := bottom - wick*g.rng.Float64()

	// float rounding must never break low <= body <= high
	if high < top {
		high = top
	}
	if low > bottom {
		low = bottom
	}

	return Candle{
		Open:  open,
		High:  high,
		Low:   low,
		Close: close,
		Time:  tm,
	}
}
