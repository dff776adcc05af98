package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, 10000.0, cfg.Account.Balance)
	assert.Equal(t, 20, cfg.Account.Leverage)
	assert.Equal(t, 0.005, cfg.Account.Spread)
	assert.Equal(t, 150.0, cfg.Market.StartPrice)
	assert.Equal(t, 200, cfg.Market.SeedCandles)
	assert.Equal(t, 0.02, cfg.Market.ExtremeProbability)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid config", func(*Config) {}, ""},
		{"zero balance", func(c *Config) { c.Account.Balance = 0 }, "account.balance must be positive"},
		{"zero leverage", func(c *Config) { c.Account.Leverage = 0 }, "account.leverage must be at least 1"},
		{"spread too wide", func(c *Config) { c.Account.Spread = 1 }, "account.spread must be between 0 and 1"},
		{"negative start price", func(c *Config) { c.Market.StartPrice = -1 }, "market.start_price must be positive"},
		{"negative seed candles", func(c *Config) { c.Market.SeedCandles = -5 }, "market.seed_candles must not be negative"},
		{"bad tick interval", func(c *Config) { c.Market.TickInterval = "often" }, "market.tick_interval"},
		{"sub-second tick", func(c *Config) { c.Market.TickInterval = "500ms" }, "market.tick_interval must be at least 1s"},
		{"sub-second regime", func(c *Config) { c.Market.RegimeInterval = "10ms" }, "market.regime_interval must be at least 1s"},
		{"extreme probability", func(c *Config) { c.Market.ExtremeProbability = 1.2 }, "extreme probability"},
		{"extreme range", func(c *Config) { c.Market.ExtremeMax = 2 }, "extreme multiplier range"},
		{"unknown regime", func(c *Config) { c.Market.InitialRegime = "panic" }, "market.initial_regime"},
		{"csv without files", func(c *Config) { c.Journal.Type = "csv" }, "journal trades_file and equity_file required"},
		{"sqlite without path", func(c *Config) { c.Journal.Type = "sqlite" }, "journal db_path required"},
		{"unknown journal", func(c *Config) { c.Journal.Type = "kafka" }, "journal.type must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	for _, ext := range []string{".json", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			cfg := Default()
			cfg.Market.Seed = 42
			cfg.Journal = JournalConfig{Type: "sqlite", DBPath: "j.db"}
			path := filepath.Join(tmpDir, "test"+ext)

			require.NoError(t, cfg.SaveToFile(path))

			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  balance: 5000\nmarket:\n  tick_interval: 1s\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, cfg.Account.Balance)
	assert.Equal(t, 20, cfg.Account.Leverage)
	assert.Equal(t, "1s", cfg.Market.TickInterval)
	assert.Equal(t, "30s", cfg.Market.RegimeInterval)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  leverage: 0\n"), 0644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "invalid config")
}

func TestConversions(t *testing.T) {
	cfg := Default()

	sc, err := cfg.SimulatorConfig()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, sc.TickInterval)
	assert.Equal(t, 150.0, sc.StartPrice)
	assert.Equal(t, 7.0, sc.Generator.ExtremeMax)

	lc := cfg.LedgerConfig()
	assert.Equal(t, "SYNTH", lc.Instrument)
	assert.Equal(t, 20, lc.Leverage)
	assert.NoError(t, lc.Validate())

	assert.Equal(t, "none", cfg.JournalOptions().Type)

	d, err := cfg.Market.RegimeDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}
