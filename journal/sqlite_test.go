package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func sampleTrade(id string, closeT time.Time, pl float64) TradeRecord {
	return TradeRecord{
		TradeID:    id,
		Instrument: "SYNTH",
		Side:       "SELL",
		Lots:       0.5,
		OpenPrice:  149.25,
		ClosePrice: 148.5,
		Margin:     3.73125,
		OpenTime:   closeT.Add(-time.Hour),
		CloseTime:  closeT,
		RealizedPL: pl,
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','equity')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
}

func TestSQLiteRecordAndGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	closeT := time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC)
	rec := sampleTrade("T1", closeT, 0.375)
	require.NoError(t, j.RecordTrade(rec))

	got, err := j.GetTrade("T1")
	require.NoError(t, err)
	assert.Equal(t, rec.TradeID, got.TradeID)
	assert.Equal(t, "SELL", got.Side)
	assert.InDelta(t, rec.Lots, got.Lots, 1e-12)
	assert.InDelta(t, rec.OpenPrice, got.OpenPrice, 1e-12)
	assert.InDelta(t, rec.ClosePrice, got.ClosePrice, 1e-12)
	assert.InDelta(t, rec.Margin, got.Margin, 1e-12)
	assert.InDelta(t, rec.RealizedPL, got.RealizedPL, 1e-12)
	assert.True(t, rec.CloseTime.Equal(got.CloseTime))

	_, err = j.GetTrade("missing")
	assert.ErrorIs(t, err, ErrTradeNotFound)
}

func TestSQLiteDuplicateTradeRejected(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	rec := sampleTrade("T1", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 1)
	require.NoError(t, j.RecordTrade(rec))
	assert.Error(t, j.RecordTrade(rec))
}

func TestSQLiteListTrades(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("A", day.Add(1*time.Hour), 5)))
	require.NoError(t, j.RecordTrade(sampleTrade("B", day.Add(2*time.Hour), -2)))
	require.NoError(t, j.RecordTrade(sampleTrade("C", day.Add(26*time.Hour), 1)))

	all, err := j.ListTrades()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "C", all[0].TradeID)
	assert.Equal(t, "A", all[2].TradeID)

	first, err := j.ListTradesClosedBetween(day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "A", first[0].TradeID)
	assert.Equal(t, "B", first[1].TradeID)
}

func TestSQLiteEquityRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	snap := EquitySnapshot{
		Time:         ts,
		Price:        150,
		Balance:      10000,
		Equity:       9999.25,
		UsedMargin:   7.5375,
		FreeMargin:   9992.4625,
		UnrealizedPL: -0.75,
	}
	require.NoError(t, j.RecordEquity(snap))

	got, err := j.ListEquityBetween(ts.Add(-time.Minute), ts.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, snap.Equity, got[0].Equity, 1e-9)
	assert.InDelta(t, snap.UnrealizedPL, got[0].UnrealizedPL, 1e-9)
}

func TestSummarize(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := Summarize([]TradeRecord{
		sampleTrade("A", day, 6),
		sampleTrade("B", day, -2),
		sampleTrade("C", day, -1),
		sampleTrade("D", day, 0),
	})

	assert.Equal(t, 4, s.Trades)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 2, s.Losses)
	assert.InDelta(t, 6, s.GrossProfit, 1e-12)
	assert.InDelta(t, 3, s.GrossLoss, 1e-12)
	assert.InDelta(t, 3, s.NetPL, 1e-12)
	assert.InDelta(t, 2, s.ProfitFactor, 1e-12)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestFormatTradeOrg(t *testing.T) {
	closeT := time.Date(2024, 1, 2, 4, 5, 6, 0, time.UTC)
	out := FormatTradeOrg(sampleTrade("01HZXABCDEFG", closeT, 0.375))

	assert.Contains(t, out, "** Trade: SELL SYNTH 0.50 (01HZXABC)")
	assert.Contains(t, out, ":TRADE_ID: 01HZXABCDEFG\n")
	assert.Contains(t, out, ":CLOSE_TIME: 2024-01-02T04:05:06Z\n")
	assert.Contains(t, out, ":REALIZED_PL: 0.38\n")

	two := FormatTradesOrg([]TradeRecord{sampleTrade("A", closeT, 1), sampleTrade("B", closeT, 2)})
	assert.Contains(t, two, "(A)")
	assert.Contains(t, two, "(B)")
}
