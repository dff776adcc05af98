package broker

import (
	"context"

	"github.com/rustyeddy/cfdsim/ledger"
	"github.com/rustyeddy/cfdsim/market"
)

// Broker is the surface a renderer or remote client trades through.
type Broker interface {
	Snapshot(ctx context.Context, candleLimit int) (Snapshot, error)
	RequestOpen(ctx context.Context, req OpenRequest) (ledger.Position, error)
	RequestClose(ctx context.Context, positionID string) (ledger.ClosedTrade, error)
}

type OpenRequest struct {
	Side ledger.Side `json:"side"`
	Lots float64     `json:"lots"`
}

// Snapshot is a read-only copy of the session state taken at one instant.
type Snapshot struct {
	Instrument    string               `json:"instrument"`
	Candles       []market.Candle      `json:"candles"`
	CurrentPrice  float64              `json:"current_price"`
	Quote         market.Quote         `json:"quote"`
	Regime        market.Regime        `json:"regime"`
	Account       ledger.Account       `json:"account"`
	OpenPositions []ledger.Position    `json:"open_positions"`
	ClosedTrades  []ledger.ClosedTrade `json:"closed_trades"`
}

// Valued pairs an open position with its unrealized result at the
// snapshot price.
type Valued struct {
	ledger.Position
	UnrealizedPL float64 `json:"unrealized_pl"`
}

// Valued returns the open positions marked at CurrentPrice.
func (s Snapshot) Valued() []Valued {
	out := make([]Valued, 0, len(s.OpenPositions))
	for _, p := range s.OpenPositions {
		out = append(out, Valued{Position: p, UnrealizedPL: ledger.UnrealizedPL(p, s.CurrentPrice)})
	}
	return out
}
