package market

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SimulatorConfig is fixed at construction.
type SimulatorConfig struct {
	Instrument    string
	StartPrice    float64
	SeedCandles   int
	TickInterval  time.Duration
	InitialRegime string
	Generator     GeneratorConfig
}

// Simulator owns the active regime and the append-only candle sequence.
//
// Simulator is not safe for concurrent use; session.Session serializes all
// access to it.
type Simulator struct {
	cfg     SimulatorConfig
	gen     *Generator
	rng     Rand
	regime  Regime
	candles []Candle
	now     func() time.Time
	log     *zap.Logger
}

// SimulatorOption customizes a Simulator.
type SimulatorOption func(*Simulator)

// WithClock overrides the wall clock used to timestamp candles.
func WithClock(now func() time.Time) SimulatorOption {
	return func(s *Simulator) { s.now = now }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) SimulatorOption {
	return func(s *Simulator) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSimulator validates cfg and seeds cfg.SeedCandles candles of history,
// back-dated at TickInterval spacing so the sequence ends at the current
// clock time.
func NewSimulator(cfg SimulatorConfig, rng Rand, opts ...SimulatorOption) (*Simulator, error) {
	if rng == nil {
		return nil, errors.New("simulator: nil random source")
	}
	if cfg.StartPrice <= 0 {
		return nil, fmt.Errorf("simulator: start price must be positive, got %v", cfg.StartPrice)
	}
	if cfg.SeedCandles < 0 {
		return nil, fmt.Errorf("simulator: seed candles must not be negative, got %d", cfg.SeedCandles)
	}
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("simulator: tick interval must be positive, got %s", cfg.TickInterval)
	}
	if err := cfg.Generator.Validate(); err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}
	if cfg.InitialRegime == "" {
		cfg.InitialRegime = Neutral
	}
	regime, err := LookupRegime(cfg.InitialRegime)
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}

	s := &Simulator{
		cfg:    cfg,
		gen:    NewGenerator(cfg.Generator, rng),
		rng:    rng,
		regime: regime,
		now:    time.Now,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.seed()
	return s, nil
}

func (s *Simulator) seed() {
	n := s.cfg.SeedCandles
	s.candles = make([]Candle, 0, n)
	start := s.now().Add(-time.Duration(n-1) * s.cfg.TickInterval)
	price := s.cfg.StartPrice
	for i := 0; i < n; i++ {
		c := s.gen.Next(s.regime, price, start.Add(time.Duration(i)*s.cfg.TickInterval))
		s.candles = append(s.candles, c)
		price = c.Close
	}
	s.log.Debug("seeded candle history",
		zap.Int("candles", n),
		zap.String("regime", s.regime.Name),
		zap.Float64("price", s.Price()))
}

// AdvanceTick appends exactly one candle opening at the previous close.
func (s *Simulator) AdvanceTick() Candle {
	tm := s.now()
	if n := len(s.candles); n > 0 {
		if last := s.candles[n-1].Time; !tm.After(last) {
			tm = last.Add(s.cfg.TickInterval)
		}
	}
	c := s.gen.Next(s.regime, s.Price(), tm)
	s.candles = append(s.candles, c)
	return c
}

// SwitchRegime replaces the active regime with a uniformly random one and
// returns it. Existing candles are untouched.
func (s *Simulator) SwitchRegime() Regime {
	prev := s.regime
	s.regime = RandomRegime(s.rng)
	s.log.Info("regime switched",
		zap.String("from", prev.Name),
		zap.String("to", s.regime.Name))
	return s.regime
}

func (s *Simulator) Regime() Regime { return s.regime }

func (s *Simulator) Instrument() string { return s.cfg.Instrument }

// Price is the close of the latest candle, or the start price before any
// candle exists.
func (s *Simulator) Price() float64 {
	if n := len(s.candles); n > 0 {
		return s.candles[n-1].Close
	}
	return s.cfg.StartPrice
}

// Last returns the latest candle.
func (s *Simulator) Last() (Candle, bool) {
	if n := len(s.candles); n > 0 {
		return s.candles[n-1], true
	}
	return Candle{}, false
}

func (s *Simulator) Len() int { return len(s.candles) }

// Candles returns a copy of the most recent limit candles in time order.
// A limit <= 0 returns the whole sequence.
func (s *Simulator) Candles(limit int) []Candle {
	start := 0
	if limit > 0 && limit < len(s.candles) {
		start = len(s.candles) - limit
	}
	out := make([]Candle, len(s.candles)-start)
	copy(out, s.candles[start:])
	return out
}
