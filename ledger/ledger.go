package ledger

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/cfdsim/journal"
	"github.com/rustyeddy/cfdsim/pkg/id"
	"go.uber.org/zap"
)

var (
	ErrInvalidLotSize     = errors.New("invalid lot size")
	ErrInsufficientMargin = errors.New("insufficient margin")
	ErrPositionNotFound   = errors.New("position not found")
	ErrNoPrice            = errors.New("no valid price")
)

// Config is fixed for the lifetime of a Ledger.
type Config struct {
	Instrument string
	Balance    float64
	Leverage   int
	Spread     float64
}

func (c Config) Validate() error {
	if c.Balance <= 0 || math.IsInf(c.Balance, 0) || math.IsNaN(c.Balance) {
		return fmt.Errorf("balance must be positive, got %v", c.Balance)
	}
	if c.Leverage < 1 {
		return fmt.Errorf("leverage must be at least 1, got %d", c.Leverage)
	}
	if c.Spread < 0 || c.Spread >= 1 || math.IsNaN(c.Spread) {
		return fmt.Errorf("spread must be within [0,1), got %v", c.Spread)
	}
	return nil
}

// Account is a point-in-time view of the ledger valued at one price.
type Account struct {
	Balance       float64 `json:"balance"`
	UsedMargin    float64 `json:"used_margin"`
	FreeMargin    float64 `json:"free_margin"`
	UnrealizedPL  float64 `json:"unrealized_pl"`
	Equity        float64 `json:"equity"`
	Leverage      int     `json:"leverage"`
	Spread        float64 `json:"spread"`
	MaxBuyLots    float64 `json:"max_buy_lots"`
	MaxSellLots   float64 `json:"max_sell_lots"`
	MaxLots       float64 `json:"max_lots"`
	OpenPositions int     `json:"open_positions"`
}

// Ledger holds the account balance, open positions and closed trade
// history. Prices are supplied by the caller on every operation; the ledger
// never stores a price of its own.
type Ledger struct {
	mu        sync.Mutex
	cfg       Config
	balance   float64
	positions map[string]*Position
	history   []ClosedTrade // most recent first
	ids       id.Source
	journal   journal.Journal
	log       *zap.Logger
}

type Option func(*Ledger)

// WithIDs overrides the position id source.
func WithIDs(src id.Source) Option {
	return func(l *Ledger) { l.ids = src }
}

// WithJournal records closed trades and equity snapshots.
func WithJournal(j journal.Journal) Option {
	return func(l *Ledger) {
		if j != nil {
			l.journal = j
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

func New(cfg Config, opts ...Option) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	l := &Ledger{
		cfg:       cfg,
		balance:   cfg.Balance,
		positions: make(map[string]*Position),
		ids:       id.New,
		journal:   journal.Noop{},
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Ledger) Config() Config { return l.cfg }

func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Open creates a position of lots on side, filled at the ask for buys and
// the bid for sells around price. It is a no-op on any error.
func (l *Ledger) Open(side Side, lots, price float64, at time.Time) (Position, error) {
	if !side.Valid() {
		return Position{}, fmt.Errorf("open position: invalid side %q", side)
	}
	if !validLots(lots) {
		return Position{}, fmt.Errorf("open position: %w: %v", ErrInvalidLotSize, lots)
	}
	if !validPrice(price) {
		return Position{}, fmt.Errorf("open position: %w: %v", ErrNoPrice, price)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fill := EntryPrice(side, price, l.cfg.Spread)
	margin := RequiredMargin(lots, fill, l.cfg.Leverage)
	free := l.freeMarginLocked()
	if margin > free {
		l.log.Debug("open rejected",
			zap.String("side", string(side)),
			zap.Float64("lots", lots),
			zap.Float64("margin", margin),
			zap.Float64("free_margin", free))
		return Position{}, fmt.Errorf("open position: %w: need %.4f, free %.4f", ErrInsufficientMargin, margin, free)
	}

	p := &Position{
		ID:        l.ids(),
		Side:      side,
		Lots:      lots,
		OpenPrice: fill,
		Margin:    margin,
		OpenTime:  at,
	}
	l.positions[p.ID] = p

	l.log.Info("position opened",
		zap.String("id", p.ID),
		zap.String("side", string(side)),
		zap.Float64("lots", lots),
		zap.Float64("price", fill),
		zap.Float64("margin", margin))
	return *p, nil
}

// Close settles position id at the exit side of the spread around price,
// credits the realized PnL to the balance and moves the position into the
// history. It is a no-op on any error.
func (l *Ledger) Close(positionID string, price float64, at time.Time) (ClosedTrade, error) {
	if !validPrice(price) {
		return ClosedTrade{}, fmt.Errorf("close position: %w: %v", ErrNoPrice, price)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.positions[positionID]
	if !ok {
		return ClosedTrade{}, fmt.Errorf("close position: %w: %q", ErrPositionNotFound, positionID)
	}

	exit := ExitPrice(p.Side, price, l.cfg.Spread)
	ct := ClosedTrade{
		Position:   *p,
		ClosePrice: exit,
		PnL:        UnrealizedPL(*p, exit),
		CloseTime:  at,
	}

	l.balance += ct.PnL
	delete(l.positions, positionID)
	l.history = append([]ClosedTrade{ct}, l.history...)

	l.log.Info("position closed",
		zap.String("id", ct.ID),
		zap.String("side", string(ct.Side)),
		zap.Float64("close_price", exit),
		zap.Float64("pnl", ct.PnL),
		zap.Float64("balance", l.balance))

	err := l.journal.RecordTrade(ct.Record(l.cfg.Instrument))
	if err != nil {
		l.log.Warn("journal trade failed", zap.String("id", ct.ID), zap.Error(err))
	}
	return ct, nil
}

// MaxAffordableLots is the largest order on side the free margin can
// carry at price, truncated to two decimals. It is 0 when nothing fits or
// price is unusable.
func (l *Ledger) MaxAffordableLots(side Side, price float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxLotsLocked(side, price)
}

// MaxLots is the larger of the buy and sell bounds.
func (l *Ledger) MaxLots(price float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return math.Max(l.maxLotsLocked(Buy, price), l.maxLotsLocked(Sell, price))
}

func (l *Ledger) maxLotsLocked(side Side, price float64) float64 {
	if !validPrice(price) || !side.Valid() {
		return 0
	}
	fill := EntryPrice(side, price, l.cfg.Spread)
	return TruncateLots(l.freeMarginLocked() * float64(l.cfg.Leverage) / fill)
}

// Account values the book at price.
func (l *Ledger) Account(price float64) Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accountLocked(price)
}

func (l *Ledger) accountLocked(price float64) Account {
	used := l.usedMarginLocked()
	var upl float64
	if validPrice(price) {
		for _, p := range l.positions {
			upl += UnrealizedPL(*p, price)
		}
	}
	buy := l.maxLotsLocked(Buy, price)
	sell := l.maxLotsLocked(Sell, price)
	return Account{
		Balance:       l.balance,
		UsedMargin:    used,
		FreeMargin:    l.balance - used,
		UnrealizedPL:  upl,
		Equity:        l.balance + upl,
		Leverage:      l.cfg.Leverage,
		Spread:        l.cfg.Spread,
		MaxBuyLots:    buy,
		MaxSellLots:   sell,
		MaxLots:       math.Max(buy, sell),
		OpenPositions: len(l.positions),
	}
}

// Revalue values the book at price and appends an equity snapshot to the
// journal.
func (l *Ledger) Revalue(price float64, at time.Time) Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct := l.accountLocked(price)
	err := l.journal.RecordEquity(journal.EquitySnapshot{
		Time:         at,
		Price:        price,
		Balance:      acct.Balance,
		Equity:       acct.Equity,
		UsedMargin:   acct.UsedMargin,
		FreeMargin:   acct.FreeMargin,
		UnrealizedPL: acct.UnrealizedPL,
	})
	if err != nil {
		l.log.Warn("journal equity failed", zap.Error(err))
	}
	return acct
}

func (l *Ledger) usedMarginLocked() float64 {
	var used float64
	for _, p := range l.positions {
		used += p.Margin
	}
	return used
}

func (l *Ledger) freeMarginLocked() float64 {
	return l.balance - l.usedMarginLocked()
}

// Position returns the open position with the given id.
func (l *Ledger) Position(positionID string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[positionID]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Positions returns the open positions ordered by open time, then id.
func (l *Ledger) Positions() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OpenTime.Equal(out[j].OpenTime) {
			return out[i].OpenTime.Before(out[j].OpenTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// History returns closed trades, most recent first.
func (l *Ledger) History() []ClosedTrade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ClosedTrade, len(l.history))
	copy(out, l.history)
	return out
}
