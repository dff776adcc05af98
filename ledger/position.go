package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/cfdsim/journal"
)

// Side is the direction of a position.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// ParseSide accepts buy/sell in any case, and long/short as aliases.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "LONG":
		return Buy, nil
	case "SELL", "SHORT":
		return Sell, nil
	default:
		return "", fmt.Errorf("invalid side %q", s)
	}
}

// Position is an open trade owned by the Ledger.
type Position struct {
	ID        string    `json:"id"`
	Side      Side      `json:"side"`
	Lots      float64   `json:"lots"`
	OpenPrice float64   `json:"open_price"`
	Margin    float64   `json:"margin"`
	OpenTime  time.Time `json:"open_time"`
}

// ClosedTrade is a settled Position.
type ClosedTrade struct {
	Position
	ClosePrice float64   `json:"close_price"`
	PnL        float64   `json:"pnl"`
	CloseTime  time.Time `json:"close_time"`
}

// Record converts the trade into its journal row.
func (ct ClosedTrade) Record(instrument string) journal.TradeRecord {
	return journal.TradeRecord{
		TradeID:    ct.ID,
		Instrument: instrument,
		Side:       string(ct.Side),
		Lots:       ct.Lots,
		OpenPrice:  ct.OpenPrice,
		ClosePrice: ct.ClosePrice,
		Margin:     ct.Margin,
		OpenTime:   ct.OpenTime,
		CloseTime:  ct.CloseTime,
		RealizedPL: ct.PnL,
	}
}
