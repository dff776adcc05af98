package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rustyeddy/cfdsim/journal"
	"github.com/rustyeddy/cfdsim/ledger"
	"github.com/rustyeddy/cfdsim/market"
	"gopkg.in/yaml.v3"
)

// Config represents the complete session configuration. Every value is
// fixed once a session is built from it.
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Market  MarketConfig  `json:"market" yaml:"market"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Log     LogConfig     `json:"log" yaml:"log"`
	HTTP    HTTPConfig    `json:"http" yaml:"http"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
	Leverage int     `json:"leverage" yaml:"leverage"`
	Spread   float64 `json:"spread" yaml:"spread"`
}

// MarketConfig contains the price generator parameters
type MarketConfig struct {
	Instrument         string  `json:"instrument" yaml:"instrument"`
	StartPrice         float64 `json:"start_price" yaml:"start_price"`
	SeedCandles        int     `json:"seed_candles" yaml:"seed_candles"`
	TickInterval       string  `json:"tick_interval" yaml:"tick_interval"`     // e.g. "2s"
	RegimeInterval     string  `json:"regime_interval" yaml:"regime_interval"` // e.g. "30s"
	ExtremeProbability float64 `json:"extreme_probability" yaml:"extreme_probability"`
	ExtremeMin         float64 `json:"extreme_min" yaml:"extreme_min"`
	ExtremeMax         float64 `json:"extreme_max" yaml:"extreme_max"`
	InitialRegime      string  `json:"initial_regime" yaml:"initial_regime"`
	Seed               uint64  `json:"seed" yaml:"seed"` // 0 seeds from the clock
}

// TickDuration parses TickInterval.
func (m MarketConfig) TickDuration() (time.Duration, error) {
	return time.ParseDuration(m.TickInterval)
}

// RegimeDuration parses RegimeInterval.
func (m MarketConfig) RegimeDuration() (time.Duration, error) {
	return time.ParseDuration(m.RegimeInterval)
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"` // "json" (default) or "console"
}

type HTTPConfig struct {
	Addr   string `json:"addr" yaml:"addr"`
	Origin string `json:"origin" yaml:"origin"`
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
// on top of Default, so omitted keys keep their default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if c.Account.Leverage < 1 {
		return fmt.Errorf("account.leverage must be at least 1")
	}
	if c.Account.Spread < 0 || c.Account.Spread >= 1 {
		return fmt.Errorf("account.spread must be between 0 and 1")
	}

	if c.Market.StartPrice <= 0 {
		return fmt.Errorf("market.start_price must be positive")
	}
	if c.Market.SeedCandles < 0 {
		return fmt.Errorf("market.seed_candles must not be negative")
	}
	tick, err := c.Market.TickDuration()
	if err != nil {
		return fmt.Errorf("market.tick_interval: %w", err)
	}
	if tick < time.Second {
		return fmt.Errorf("market.tick_interval must be at least 1s")
	}
	regime, err := c.Market.RegimeDuration()
	if err != nil {
		return fmt.Errorf("market.regime_interval: %w", err)
	}
	if regime < time.Second {
		return fmt.Errorf("market.regime_interval must be at least 1s")
	}
	if err := c.generatorConfig().Validate(); err != nil {
		return fmt.Errorf("market: %w", err)
	}
	if c.Market.InitialRegime != "" {
		if _, err := market.LookupRegime(c.Market.InitialRegime); err != nil {
			return fmt.Errorf("market.initial_regime: %w", err)
		}
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

func (c *Config) generatorConfig() market.GeneratorConfig {
	return market.GeneratorConfig{
		ExtremeProbability: c.Market.ExtremeProbability,
		ExtremeMin:         c.Market.ExtremeMin,
		ExtremeMax:         c.Market.ExtremeMax,
	}
}

// SimulatorConfig converts the market section for market.NewSimulator.
func (c *Config) SimulatorConfig() (market.SimulatorConfig, error) {
	tick, err := c.Market.TickDuration()
	if err != nil {
		return market.SimulatorConfig{}, fmt.Errorf("market.tick_interval: %w", err)
	}
	return market.SimulatorConfig{
		Instrument:    c.Market.Instrument,
		StartPrice:    c.Market.StartPrice,
		SeedCandles:   c.Market.SeedCandles,
		TickInterval:  tick,
		InitialRegime: c.Market.InitialRegime,
		Generator:     c.generatorConfig(),
	}, nil
}

// LedgerConfig converts the account section for ledger.New.
func (c *Config) LedgerConfig() ledger.Config {
	return ledger.Config{
		Instrument: c.Market.Instrument,
		Balance:    c.Account.Balance,
		Leverage:   c.Account.Leverage,
		Spread:     c.Account.Spread,
	}
}

// JournalOptions converts the journal section for journal.Open.
func (c *Config) JournalOptions() journal.Options {
	return journal.Options{
		Type:       c.Journal.Type,
		TradesFile: c.Journal.TradesFile,
		EquityFile: c.Journal.EquityFile,
		DBPath:     c.Journal.DBPath,
	}
}

// Default returns the reference venue: 10,000 balance, 20:1 leverage, 0.5%
// spread, a synthetic instrument starting at 150 with 200 candles of
// history, ticking every 2s and switching regime every 30s.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "SIM-001",
			Currency: "USD",
			Balance:  10000,
			Leverage: 20,
			Spread:   0.005,
		},
		Market: MarketConfig{
			Instrument:         "SYNTH",
			StartPrice:         150,
			SeedCandles:        200,
			TickInterval:       "2s",
			RegimeInterval:     "30s",
			ExtremeProbability: 0.02,
			ExtremeMin:         3,
			ExtremeMax:         7,
			InitialRegime:      market.Neutral,
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Log: LogConfig{
			Level: "info",
		},
		HTTP: HTTPConfig{
			Addr:   ":8080",
			Origin: "*",
		},
	}
}
