package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newthinker/scout/internal/core"
	"github.com/newthinker/scout/internal/logger"
	"github.com/newthinker/scout/internal/pipeline"
)

var (
	scoreTop    int
	scoreOutput string
	scoreUS     bool
)

var scoreCmd = &cobra.Command{
	Use:   "score [scan-file]",
	Short: "Score and rank a scan document's candidates",
	Long: `Score every symbol in a scan document against the three setups,
rank the passing symbols, and write the validation block back.
Pass a scan file path, or "latest" for the newest scan in the scans
directory (the default).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().IntVar(&scoreTop, "top", 0, "Shortlist length per setup (default from config)")
	scoreCmd.Flags().StringVar(&scoreOutput, "output", "", "Write results to this path instead of in place")
	scoreCmd.Flags().BoolVar(&scoreUS, "us", false, "Treat symbols as US stocks (no .NS suffix)")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	p, _, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	scanRef := "latest"
	if len(args) > 0 {
		scanRef = args[0]
	}

	report, err := p.Run(context.Background(), pipeline.Options{
		ScanRef:  scanRef,
		Output:   scoreOutput,
		TopN:     scoreTop,
		USMarket: scoreUS,
	})
	if err != nil {
		return fmt.Errorf("scoring %s: %w", scanRef, err)
	}

	fmt.Printf("Done: validated %s (symbols: %d, no data: %d)\n",
		report.OutputPath, report.Symbols, report.NoData)

	for _, st := range []core.SetupType{core.SetupBreakout, core.SetupPullback, core.SetupReversal} {
		entries := report.Rankings[st]
		if len(entries) == 0 {
			continue
		}
		var symbols []string
		for _, e := range entries {
			if len(symbols) == 5 {
				break
			}
			symbols = append(symbols, e.Symbol)
		}
		fmt.Printf("Top %s: %s\n", st, strings.Join(symbols, ", "))
	}
	return nil
}
