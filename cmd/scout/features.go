package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newthinker/scout/internal/cache"
	"github.com/newthinker/scout/internal/feature"
	"github.com/newthinker/scout/internal/logger"
	"github.com/newthinker/scout/internal/storage"
)

var featuresUS bool

var featuresCmd = &cobra.Command{
	Use:   "features SYMBOL",
	Short: "Print the computed feature record for one symbol",
	Long: `Load a symbol's cached price history, compute the full technical
feature record, and print it as JSON. Useful for checking why a symbol
scored the way it did.`,
	Args: cobra.ExactArgs(1),
	RunE: runFeatures,
}

func init() {
	featuresCmd.Flags().BoolVar(&featuresUS, "us", false, "Treat symbol as a US stock (no .NS suffix)")

	rootCmd.AddCommand(featuresCmd)
}

func runFeatures(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	cacheStore, err := storage.New(cfg.Cache.Backend)
	if err != nil {
		return fmt.Errorf("creating cache store: %w", err)
	}

	symbol := strings.ToUpper(strings.TrimSpace(args[0]))
	key := symbol
	if !featuresUS && !strings.Contains(key, ".") {
		key += ".NS"
	}

	reader := cache.NewReader(cacheStore, cfg.Cache.FreshnessHours, log)
	hist, err := reader.Load(context.Background(), key)
	if err != nil {
		return fmt.Errorf("loading history for %s: %w", symbol, err)
	}

	rec, err := feature.Compute(hist, cfg.Features)
	if err != nil {
		return fmt.Errorf("computing features for %s: %w", symbol, err)
	}
	rec.Symbol = symbol

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
