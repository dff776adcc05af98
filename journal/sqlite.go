package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, instrument, side, lots, open_price, close_price, margin, open_time, close_time, realized_pl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Instrument, t.Side, t.Lots, t.OpenPrice,
		t.ClosePrice, t.Margin, t.OpenTime, t.CloseTime, t.RealizedPL,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, price, balance, equity, used_margin, free_margin, unrealized_pl)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Time, e.Price, e.Balance, e.Equity, e.UsedMargin, e.FreeMargin, e.UnrealizedPL,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
