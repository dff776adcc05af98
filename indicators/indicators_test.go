package indicators

import (
	"testing"
	"time"

	"github.com/rustyeddy/cfdsim/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ladder() []market.Candle {
	return []market.Candle{
		{Open: 100, High: 105, Low: 99, Close: 102},
		{Open: 102, High: 107, Low: 101, Close: 105},
		{Open: 105, High: 108, Low: 104, Close: 106},
		{Open: 106, High: 110, Low: 105, Close: 108},
		{Open: 108, High: 112, Low: 107, Close: 110},
		{Open: 110, High: 113, Low: 109, Close: 111},
		{Open: 111, High: 115, Low: 110, Close: 113},
		{Open: 113, High: 116, Low: 112, Close: 114},
		{Open: 114, High: 118, Low: 113, Close: 116},
		{Open: 116, High: 120, Low: 115, Close: 118},
	}
}

func TestMA(t *testing.T) {
	ma, err := MA(ladder(), 5)
	require.NoError(t, err)
	// Last 5 closes: 111,113,114,116,118 => 572/5 = 114.4
	assert.InDelta(t, 114.4, ma, 0.001)

	_, err = MA(ladder(), 0)
	assert.ErrorContains(t, err, "period must be positive")
	_, err = MA(ladder()[:3], 5)
	assert.ErrorContains(t, err, "not enough candles")
}

func TestEMA(t *testing.T) {
	candles := []market.Candle{{Close: 2}, {Close: 4}, {Close: 8}}
	ema, err := EMA(candles, 2)
	require.NoError(t, err)
	// seed 3, multiplier 2/3: (8-3)*2/3 + 3
	assert.InDelta(t, 3+10.0/3, ema, 1e-9)

	_, err = EMA(candles, 4)
	assert.Error(t, err)
}

func TestATRFunc(t *testing.T) {
	candles := []market.Candle{
		{High: 10, Low: 8, Close: 9},
		{High: 11, Low: 9, Close: 10},
		{High: 12, Low: 10, Close: 11},
		{High: 11, Low: 9, Close: 10},
		{High: 12, Low: 10, Close: 11},
		{High: 13, Low: 11, Close: 12},
	}
	atr, err := ATRFunc(candles, 3)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, atr, 1e-9)

	_, err = ATRFunc(candles, 6)
	assert.ErrorContains(t, err, "need 7")
}

func TestTrueRangeUsesGap(t *testing.T) {
	current := market.Candle{High: 110, Low: 100, Close: 105}
	assert.InDelta(t, 10.0, trueRange(current, market.Candle{Close: 104}), 1e-9)
	assert.InDelta(t, 25.0, trueRange(current, market.Candle{Close: 125}), 1e-9)
}

func TestADXTrendingSeries(t *testing.T) {
	adx := NewADX(3)
	assert.Equal(t, "ADX(3)", adx.Name())
	assert.Equal(t, 7, adx.Warmup())

	v, ready := Run(adx, ladder()[:6])
	assert.False(t, ready)
	assert.Equal(t, 0.0, v)

	adx.Reset()
	v, ready = Run(adx, ladder())
	require.True(t, ready)
	// every bar makes a higher high and a higher low, so -DM is zero and DX is 100
	assert.InDelta(t, 100.0, v, 1e-9)
}

func TestIndicatorsOverSimulatedCandles(t *testing.T) {
	sim, err := market.NewSimulator(market.SimulatorConfig{
		Instrument:    "SYNTH",
		StartPrice:    150,
		SeedCandles:   200,
		TickInterval:  time.Second,
		InitialRegime: market.VeryBullish,
		Generator:     market.DefaultGeneratorConfig(),
	}, market.NewRand(3))
	require.NoError(t, err)
	candles := sim.Candles(0)

	for _, ind := range []Indicator{NewMA(20), NewEMA(20), NewATR(14), NewADX(14)} {
		v, ready := Run(ind, candles)
		assert.True(t, ready, ind.Name())
		assert.Greater(t, v, 0.0, ind.Name())
	}

	atr, err := ATRFunc(candles, 14)
	require.NoError(t, err)
	streaming, _ := Run(NewATR(14), candles)
	assert.InDelta(t, atr, streaming, 1e-9)
}
