// Package session owns one simulator and one ledger behind a single lock.
// Candle ticks, regime switches and trade requests are serialized by that
// lock, so a margin check always sees the price it was quoted.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/cfdsim/broker"
	"github.com/rustyeddy/cfdsim/config"
	"github.com/rustyeddy/cfdsim/journal"
	"github.com/rustyeddy/cfdsim/ledger"
	"github.com/rustyeddy/cfdsim/market"
	"github.com/rustyeddy/cfdsim/metrics"
	"github.com/rustyeddy/cfdsim/scheduler"
	"github.com/rustyeddy/cfdsim/stream"
	"go.uber.org/zap"
)

var _ broker.Broker = (*Session)(nil)

// Intervals of the two periodic jobs.
type Intervals struct {
	Tick   time.Duration
	Regime time.Duration
}

type Session struct {
	mu     sync.Mutex
	sim    *market.Simulator
	ledger *ledger.Ledger

	intervals  Intervals
	sched      *scheduler.Scheduler
	registered bool

	pub     stream.Publisher
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
	journal journal.Journal
}

type Option func(*Session)

func WithPublisher(p stream.Publisher) Option {
	return func(s *Session) {
		if p != nil {
			s.pub = p
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock sets the clock used to stamp opens and closes.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithJournal hands the journal to the session so Close releases it.
func WithJournal(j journal.Journal) Option {
	return func(s *Session) {
		if j != nil {
			s.journal = j
		}
	}
}

// New wraps an existing simulator and ledger. The session takes ownership:
// neither may be used directly afterwards.
func New(sim *market.Simulator, led *ledger.Ledger, iv Intervals, opts ...Option) (*Session, error) {
	if sim == nil || led == nil {
		return nil, errors.New("session: simulator and ledger are required")
	}
	if iv.Tick < time.Second || iv.Regime < time.Second {
		return nil, fmt.Errorf("session: intervals must be at least 1s, got tick %s regime %s", iv.Tick, iv.Regime)
	}
	s := &Session{
		sim:       sim,
		ledger:    led,
		intervals: iv,
		pub:       stream.Discard{},
		metrics:   metrics.NewNoop(),
		log:       zap.NewNop(),
		now:       time.Now,
		journal:   journal.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sched = scheduler.New(s.log.Named("scheduler"))
	return s, nil
}

// Open builds a complete session from configuration: random source,
// simulator, journal and ledger.
func Open(cfg *config.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	probe := &Session{log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(probe)
	}

	simCfg, err := cfg.SimulatorConfig()
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	sim, err := market.NewSimulator(simCfg, market.NewRand(cfg.Market.Seed),
		market.WithClock(probe.now),
		market.WithLogger(probe.log.Named("market")))
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	j, err := journal.Open(cfg.JournalOptions())
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	led, err := ledger.New(cfg.LedgerConfig(),
		ledger.WithJournal(j),
		ledger.WithLogger(probe.log.Named("ledger")))
	if err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("session: %w", err)
	}

	tick, _ := cfg.Market.TickDuration()
	regime, _ := cfg.Market.RegimeDuration()
	s, err := New(sim, led, Intervals{Tick: tick, Regime: regime}, append(opts, WithJournal(j))...)
	if err != nil {
		_ = j.Close()
		return nil, err
	}
	return s, nil
}

// Snapshot copies the current state. limit keeps only the most recent
// candles; zero or less returns them all.
func (s *Session) Snapshot(ctx context.Context, limit int) (broker.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return broker.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	price := s.sim.Price()
	qt := s.now()
	if last, ok := s.sim.Last(); ok {
		qt = last.Time
	}
	return broker.Snapshot{
		Instrument:    s.sim.Instrument(),
		Candles:       s.sim.Candles(limit),
		CurrentPrice:  price,
		Quote:         market.NewQuote(s.sim.Instrument(), price, s.ledger.Config().Spread, qt),
		Regime:        s.sim.Regime(),
		Account:       s.ledger.Account(price),
		OpenPositions: s.ledger.Positions(),
		ClosedTrades:  s.ledger.History(),
	}, nil
}

// Quote is the current bid/ask around the last close.
func (s *Session) Quote() market.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	qt := s.now()
	if last, ok := s.sim.Last(); ok {
		qt = last.Time
	}
	return market.NewQuote(s.sim.Instrument(), s.sim.Price(), s.ledger.Config().Spread, qt)
}

func (s *Session) RequestOpen(ctx context.Context, req broker.OpenRequest) (ledger.Position, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Position{}, err
	}

	s.mu.Lock()
	price := s.sim.Price()
	pos, err := s.ledger.Open(req.Side, req.Lots, price, s.now())
	var acct ledger.Account
	if err == nil {
		acct = s.ledger.Account(price)
	}
	s.mu.Unlock()

	if err != nil {
		s.metrics.OrdersRejected.Inc()
		return ledger.Position{}, err
	}
	s.metrics.PositionsOpened.Inc()
	s.pub.Publish(stream.Event{Type: stream.EventPositionOpened, Data: pos})
	s.publishAccount(acct)
	return pos, nil
}

func (s *Session) RequestClose(ctx context.Context, positionID string) (ledger.ClosedTrade, error) {
	if err := ctx.Err(); err != nil {
		return ledger.ClosedTrade{}, err
	}

	s.mu.Lock()
	price := s.sim.Price()
	ct, err := s.ledger.Close(positionID, price, s.now())
	var acct ledger.Account
	if err == nil {
		acct = s.ledger.Account(price)
	}
	s.mu.Unlock()

	if err != nil {
		s.metrics.OrdersRejected.Inc()
		return ledger.ClosedTrade{}, err
	}
	s.metrics.PositionsClosed.Inc()
	s.pub.Publish(stream.Event{Type: stream.EventPositionClosed, Data: ct})
	s.publishAccount(acct)
	return ct, nil
}

// Tick appends one live candle and revalues the book at its close.
func (s *Session) Tick() market.Candle {
	s.mu.Lock()
	c := s.sim.AdvanceTick()
	acct := s.ledger.Revalue(c.Close, c.Time)
	s.mu.Unlock()

	s.metrics.CandlesGenerated.Inc()
	s.metrics.Price.Set(c.Close)
	s.pub.Publish(stream.Event{Type: stream.EventCandle, Data: c})
	s.publishAccount(acct)
	return c
}

// SwitchRegime draws a new active regime.
func (s *Session) SwitchRegime() market.Regime {
	s.mu.Lock()
	r := s.sim.SwitchRegime()
	s.mu.Unlock()

	s.metrics.RegimeSwitches.Inc()
	s.pub.Publish(stream.Event{Type: stream.EventRegime, Data: r})
	return r
}

func (s *Session) publishAccount(acct ledger.Account) {
	s.metrics.Equity.Set(acct.Equity)
	s.metrics.Balance.Set(acct.Balance)
	s.pub.Publish(stream.Event{Type: stream.EventAccount, Data: acct})
}

// Start launches the tick and regime jobs.
func (s *Session) Start() error {
	s.mu.Lock()
	if !s.registered {
		if err := s.sched.Every("tick", s.intervals.Tick, func() { s.Tick() }); err != nil {
			s.mu.Unlock()
			return err
		}
		if err := s.sched.Every("regime", s.intervals.Regime, func() { s.SwitchRegime() }); err != nil {
			s.mu.Unlock()
			return err
		}
		s.registered = true
	}
	s.mu.Unlock()

	s.sched.Start()
	s.log.Info("session started",
		zap.String("instrument", s.sim.Instrument()),
		zap.Duration("tick", s.intervals.Tick),
		zap.Duration("regime", s.intervals.Regime))
	return nil
}

// Stop halts both jobs and waits for a job already running to finish.
func (s *Session) Stop(ctx context.Context) error {
	return s.sched.Stop(ctx)
}

func (s *Session) Running() bool {
	return s.sched.Running()
}

// Close stops the jobs and releases the journal.
func (s *Session) Close(ctx context.Context) error {
	stopErr := s.Stop(ctx)
	if err := s.journal.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return stopErr
}
