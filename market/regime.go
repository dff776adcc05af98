package market

import "fmt"

// Regime is a named market sentiment. It controls the drift, volatility
// and direction odds of the random walk used by the Generator.
type Regime struct {
	Name          string  `json:"name"`
	Label         string  `json:"label"`
	Bias          float64 `json:"bias"`
	Volatility    float64 `json:"volatility"`
	UpProbability float64 `json:"up_probability"`
}

const (
	VeryBearish = "very_bearish"
	Bearish     = "bearish"
	Neutral     = "neutral"
	Bullish     = "bullish"
	VeryBullish = "very_bullish"
)

var regimes = [...]Regime{
	{Name: VeryBearish, Label: "Very Bearish", Bias: -0.0008, Volatility: 0.0003, UpProbability: 0.25},
	{Name: Bearish, Label: "Bearish", Bias: -0.0004, Volatility: 0.0002, UpProbability: 0.35},
	{Name: Neutral, Label: "Neutral", Bias: 0, Volatility: 0.0004, UpProbability: 0.5},
	{Name: Bullish, Label: "Bullish", Bias: 0.0004, Volatility: 0.0002, UpProbability: 0.65},
	{Name: VeryBullish, Label: "Very Bullish", Bias: 0.0008, Volatility: 0.0003, UpProbability: 0.75},
}

// Regimes returns the canonical regimes ordered from most bearish to most
// bullish.
func Regimes() []Regime {
	out := make([]Regime, len(regimes))
	copy(out, regimes[:])
	return out
}

// LookupRegime returns the canonical regime with the given name.
func LookupRegime(name string) (Regime, error) {
	for _, r := range regimes {
		if r.Name == name {
			return r, nil
		}
	}
	return Regime{}, fmt.Errorf("unknown regime %q", name)
}

// RandomRegime picks one of the canonical regimes uniformly. The previous
// regime may be picked again.
func RandomRegime(rng Rand) Regime {
	return regimes[rng.IntN(len(regimes))]
}
