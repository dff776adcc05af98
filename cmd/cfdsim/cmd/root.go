package cmd

import (
	"fmt"

	"github.com/rustyeddy/cfdsim/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cfdsim",
	Short: "A leveraged CFD trading simulator with a synthetic market",
	Long: `cfdsim runs a single-instrument CFD trading session against a synthetic
price feed.

The market is a regime-switching random walk with occasional extreme moves.
Trades are margined at a fixed leverage and filled across a fixed spread.

It provides:
  - serve     a live session over HTTP and a websocket event stream
  - simulate  a headless, seeded run with an indicator report
  - config    default config generation and validation
  - journal   queries over the SQLite trade journal`,
	SilenceUsage: true,
}

var (
	cfgFile  string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); defaults are used when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig reads --config when given, otherwise starts from the defaults.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		cfg, err = config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}
