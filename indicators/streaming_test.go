package indicators

import (
	"testing"
	"time"

	"github.com/rustyeddy/cfdsim/market"
	"github.com/stretchr/testify/assert"
)

func closes(vals ...float64) []market.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]market.Candle, len(vals))
	for i, v := range vals {
		out[i] = market.Candle{Open: v, High: v + 1, Low: v - 1, Close: v, Time: base.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

func TestSimpleMAWindow(t *testing.T) {
	ma := NewMA(3)
	assert.Equal(t, "MA(3)", ma.Name())
	assert.Equal(t, 3, ma.Warmup())

	c := closes(102, 105, 106, 108)
	ma.Update(c[0])
	ma.Update(c[1])
	assert.False(t, ma.Ready())
	assert.Equal(t, 0.0, ma.Value())

	ma.Update(c[2])
	assert.InDelta(t, (102.0+105+106)/3, ma.Value(), 1e-9)

	ma.Update(c[3])
	assert.InDelta(t, (105.0+106+108)/3, ma.Value(), 1e-9)

	ma.Reset()
	assert.False(t, ma.Ready())
}

func TestExponentialMASeedsWithSMA(t *testing.T) {
	ema := NewEMA(3)
	c := closes(102, 105, 106, 108)
	for _, x := range c[:3] {
		ema.Update(x)
	}
	seed := (102.0 + 105 + 106) / 3
	assert.InDelta(t, seed, ema.Value(), 1e-9)

	// multiplier is 2/(3+1)
	ema.Update(c[3])
	assert.InDelta(t, (108-seed)*0.5+seed, ema.Value(), 1e-9)

	ema.Reset()
	assert.Equal(t, 0.0, ema.Value())
}

func TestATRWarmup(t *testing.T) {
	atr := NewATR(3)
	assert.Equal(t, 4, atr.Warmup())

	c := []market.Candle{
		{High: 10, Low: 8, Close: 9},
		{High: 11, Low: 9, Close: 10},
		{High: 12, Low: 10, Close: 11},
		{High: 11, Low: 9, Close: 10},
	}
	for i, x := range c {
		atr.Update(x)
		assert.Equal(t, i == 3, atr.Ready())
	}
	assert.InDelta(t, 2.0, atr.Value(), 1e-9)
}

func TestStreamingMatchesBatch(t *testing.T) {
	c := closes(102, 105, 106, 108, 110, 111, 113, 114, 116, 118)

	ma, _ := MA(c, 5)
	v, ready := Run(NewMA(5), c)
	assert.True(t, ready)
	assert.InDelta(t, ma, v, 1e-9)

	ema, _ := EMA(c, 5)
	v, _ = Run(NewEMA(5), c)
	assert.InDelta(t, ema, v, 1e-9)

	atr, _ := ATRFunc(c, 5)
	v, _ = Run(NewATR(5), c)
	assert.InDelta(t, atr, v, 1e-9)
}
