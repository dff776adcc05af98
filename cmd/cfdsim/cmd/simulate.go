package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/cfdsim/broker"
	"github.com/rustyeddy/cfdsim/config"
	"github.com/rustyeddy/cfdsim/indicators"
	"github.com/rustyeddy/cfdsim/journal"
	"github.com/rustyeddy/cfdsim/ledger"
	"github.com/rustyeddy/cfdsim/logging"
	"github.com/rustyeddy/cfdsim/market"
	"github.com/rustyeddy/cfdsim/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a headless session for a fixed number of ticks",
	Long: `Drive a session without the schedulers: ticks are generated back to back
on a virtual clock and the regime switches every regime_interval/tick_interval
ticks. With a non-zero seed the run is fully reproducible.

An optional position is opened before the first tick and every open position
is closed after the last one.

Examples:
  cfdsim simulate --ticks 1000 --seed 42
  cfdsim simulate -c session.yaml --open buy:2.5`,
	RunE: runSimulate,
}

var simOpts simulateOptions

type simulateOptions struct {
	Ticks int
	Seed  uint64
	Open  string // side:lots, e.g. "sell:1.25"
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVarP(&simOpts.Ticks, "ticks", "n", 500, "number of live candles to generate")
	simulateCmd.Flags().Uint64Var(&simOpts.Seed, "seed", 0, "random seed (overrides market.seed)")
	simulateCmd.Flags().StringVar(&simOpts.Open, "open", "", "open a position before the first tick, as side:lots")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	rep, err := simulate(cmd.Context(), cfg, simOpts, log)
	if err != nil {
		return err
	}
	rep.Print(os.Stdout)
	return nil
}

// simulationEpoch anchors the virtual clock so seeded runs are reproducible.
var simulationEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type simulationReport struct {
	Instrument string
	Ticks      int
	Switches   int
	Candles    []market.Candle
	Regime     market.Regime
	FinalPrice float64
	Indicators map[string]float64
	Account    ledger.Account
	Trades     []ledger.ClosedTrade
	Summary    journal.Summary
}

func simulate(ctx context.Context, cfg *config.Config, opts simulateOptions, log *zap.Logger) (simulationReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Ticks < 0 {
		return simulationReport{}, fmt.Errorf("ticks must not be negative, got %d", opts.Ticks)
	}
	if opts.Seed != 0 {
		cfg.Market.Seed = opts.Seed
	}
	var openReq *broker.OpenRequest
	if opts.Open != "" {
		req, err := parseOpen(opts.Open)
		if err != nil {
			return simulationReport{}, err
		}
		openReq = &req
	}

	tick, err := cfg.Market.TickDuration()
	if err != nil {
		return simulationReport{}, fmt.Errorf("market.tick_interval: %w", err)
	}
	regime, err := cfg.Market.RegimeDuration()
	if err != nil {
		return simulationReport{}, fmt.Errorf("market.regime_interval: %w", err)
	}
	every := int(regime / tick)
	if every < 1 {
		every = 1
	}

	clock := simulationEpoch
	sess, err := session.Open(cfg,
		session.WithClock(func() time.Time { return clock }),
		session.WithLogger(log.Named("session")))
	if err != nil {
		return simulationReport{}, err
	}
	defer func() { _ = sess.Close(context.Background()) }()

	if openReq != nil {
		if _, err := sess.RequestOpen(ctx, *openReq); err != nil {
			return simulationReport{}, fmt.Errorf("open %s: %w", opts.Open, err)
		}
	}

	rep := simulationReport{Ticks: opts.Ticks}
	for i := 1; i <= opts.Ticks; i++ {
		if err := ctx.Err(); err != nil {
			return simulationReport{}, err
		}
		clock = clock.Add(tick)
		sess.Tick()
		if i%every == 0 {
			sess.SwitchRegime()
			rep.Switches++
		}
	}

	snap, err := sess.Snapshot(ctx, 0)
	if err != nil {
		return simulationReport{}, err
	}
	for _, p := range snap.OpenPositions {
		if _, err := sess.RequestClose(ctx, p.ID); err != nil {
			return simulationReport{}, fmt.Errorf("close %s: %w", p.ID, err)
		}
	}
	if snap, err = sess.Snapshot(ctx, 0); err != nil {
		return simulationReport{}, err
	}

	rep.Instrument = snap.Instrument
	rep.Candles = snap.Candles
	rep.Regime = snap.Regime
	rep.FinalPrice = snap.CurrentPrice
	rep.Account = snap.Account
	rep.Trades = snap.ClosedTrades
	rep.Indicators = make(map[string]float64)
	for _, ind := range []indicators.Indicator{
		indicators.NewMA(20),
		indicators.NewEMA(20),
		indicators.NewATR(14),
		indicators.NewADX(14),
	} {
		if v, ready := indicators.Run(ind, snap.Candles); ready {
			rep.Indicators[ind.Name()] = v
		}
	}
	recs := make([]journal.TradeRecord, 0, len(snap.ClosedTrades))
	for _, ct := range snap.ClosedTrades {
		recs = append(recs, ct.Record(snap.Instrument))
	}
	rep.Summary = journal.Summarize(recs)
	return rep, nil
}

// parseOpen reads side:lots.
func parseOpen(s string) (broker.OpenRequest, error) {
	sideStr, lotsStr, ok := strings.Cut(s, ":")
	if !ok {
		return broker.OpenRequest{}, fmt.Errorf("open %q: want side:lots", s)
	}
	side, err := ledger.ParseSide(sideStr)
	if err != nil {
		return broker.OpenRequest{}, fmt.Errorf("open %q: %w", s, err)
	}
	lots, err := strconv.ParseFloat(strings.TrimSpace(lotsStr), 64)
	if err != nil {
		return broker.OpenRequest{}, fmt.Errorf("open %q: %w", s, ledger.ErrInvalidLotSize)
	}
	return broker.OpenRequest{Side: side, Lots: lots}, nil
}

func (r simulationReport) Print(w io.Writer) {
	fmt.Fprintf(w, "Simulation: %s, %d ticks, %d regime switches\n", r.Instrument, r.Ticks, r.Switches)
	fmt.Fprintf(w, "  Candles: %d\n", len(r.Candles))
	fmt.Fprintf(w, "  Final price: %.4f\n", r.FinalPrice)
	fmt.Fprintf(w, "  Regime: %s\n", r.Regime.Label)
	for _, name := range []string{"MA(20)", "EMA(20)", "ATR(14)", "ADX(14)"} {
		if v, ok := r.Indicators[name]; ok {
			fmt.Fprintf(w, "  %s: %.4f\n", name, v)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Account:\n")
	fmt.Fprintf(w, "  Balance: %.2f\n", r.Account.Balance)
	fmt.Fprintf(w, "  Equity: %.2f\n", r.Account.Equity)
	fmt.Fprintf(w, "  Free margin: %.2f\n", r.Account.FreeMargin)
	for _, t := range r.Trades {
		fmt.Fprintf(w, "  %s %s %.2f @ %.4f -> %.4f  P/L %.2f\n",
			t.ID, t.Side, t.Lots, t.OpenPrice, t.ClosePrice, t.PnL)
	}
	fmt.Fprintf(w, "  Trades: %d  Net P/L: %.2f\n", r.Summary.Trades, r.Summary.NetPL)
}
