// Package journal records closed trades and equity snapshots for later
// review. It is an append-only audit trail; nothing in it is read back into
// a running session.
package journal

import (
	"fmt"
	"time"
)

type TradeRecord struct {
	TradeID    string
	Instrument string
	Side       string
	Lots       float64
	OpenPrice  float64
	ClosePrice float64
	Margin     float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
}

type EquitySnapshot struct {
	Time         time.Time
	Price        float64
	Balance      float64
	Equity       float64
	UsedMargin   float64
	FreeMargin   float64
	UnrealizedPL float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Options selects and configures a Journal implementation.
type Options struct {
	Type       string // "none", "csv" or "sqlite"
	TradesFile string
	EquityFile string
	DBPath     string
}

// Open builds the journal described by opts.
func Open(opts Options) (Journal, error) {
	switch opts.Type {
	case "", "none":
		return Noop{}, nil
	case "csv":
		return NewCSV(opts.TradesFile, opts.EquityFile)
	case "sqlite":
		return NewSQLite(opts.DBPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", opts.Type)
	}
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordTrade(TradeRecord) error     { return nil }
func (Noop) RecordEquity(EquitySnapshot) error { return nil }
func (Noop) Close() error                      { return nil }
