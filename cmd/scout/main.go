package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/scout/internal/cache"
	"github.com/newthinker/scout/internal/config"
	"github.com/newthinker/scout/internal/logger"
	"github.com/newthinker/scout/internal/metrics"
	"github.com/newthinker/scout/internal/pipeline"
	"github.com/newthinker/scout/internal/scan"
	"github.com/newthinker/scout/internal/setup"
	"github.com/newthinker/scout/internal/storage"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "SCOUT - scan validation and setup scoring engine",
	Long: `SCOUT scores scan candidates against three technical setups
(2m_pullback, 2w_breakout, support_reversal), ranks the passing symbols,
and merges the results back into the scan document.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// loadConfig reads and validates configuration, falling back to
// defaults when no config file is given.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// buildPipeline assembles the scoring pipeline from configuration.
func buildPipeline(cfg *config.Config, log *zap.Logger) (*pipeline.Pipeline, *metrics.Registry, error) {
	cacheStore, err := storage.New(cfg.Cache.Backend)
	if err != nil {
		return nil, nil, fmt.Errorf("creating cache store: %w", err)
	}
	scanStore, err := storage.New(cfg.Scans.Backend)
	if err != nil {
		return nil, nil, fmt.Errorf("creating scans store: %w", err)
	}

	scorers := setup.NewEngine()
	scorers.Register(setup.NewPullback(cfg.Scoring))
	scorers.Register(setup.NewBreakout(cfg.Scoring))
	scorers.Register(setup.NewReversal(cfg.Scoring))

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	reader := cache.NewReader(cacheStore, cfg.Cache.FreshnessHours, logger.Named(log, "cache"))
	p := pipeline.New(cfg, reader, scorers, scan.NewLocator(scanStore), reg, logger.Named(log, "pipeline"))
	return p, reg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
