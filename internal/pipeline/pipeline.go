// Package pipeline orchestrates a full scoring run: read the candidate
// pool, score every symbol through the feature engine and setup
// scorers, rank the passing results, and merge everything back into the
// scan document.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newthinker/scout/internal/cache"
	"github.com/newthinker/scout/internal/config"
	"github.com/newthinker/scout/internal/core"
	"github.com/newthinker/scout/internal/feature"
	"github.com/newthinker/scout/internal/metrics"
	"github.com/newthinker/scout/internal/rank"
	"github.com/newthinker/scout/internal/scan"
	"github.com/newthinker/scout/internal/setup"
)

// Pipeline wires the scoring stages together.
type Pipeline struct {
	cfg     *config.Config
	reader  *cache.Reader
	scorers *setup.Engine
	locator *scan.Locator
	reg     *metrics.Registry
	log     *zap.Logger
}

// New creates a Pipeline. reg may be nil when metrics are disabled.
func New(cfg *config.Config, reader *cache.Reader, scorers *setup.Engine,
	locator *scan.Locator, reg *metrics.Registry, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		cfg:     cfg,
		reader:  reader,
		scorers: scorers,
		locator: locator,
		reg:     reg,
		log:     log,
	}
}

// Options select what one run scores and where the result lands.
type Options struct {
	// ScanRef is a scan document path or "latest".
	ScanRef string
	// Output overrides the destination path; empty writes in place.
	Output string
	// TopN overrides the configured shortlist length when positive.
	TopN int
	// USMarket skips the NSE suffix when resolving cache entries.
	USMarket bool
}

// Report summarizes a completed run for callers.
type Report struct {
	RunID      string
	ScanPath   string
	OutputPath string
	Symbols    int
	NoData     int
	Rankings   map[core.SetupType][]core.RankingEntry
	Duration   time.Duration
}

// symbolOutcome is one worker's result for a symbol.
type symbolOutcome struct {
	symbol  string
	results core.SetupResults
	record  feature.Record
	noData  bool
}

// Run executes one scoring pass over the referenced scan document.
// Per-symbol data problems degrade that symbol to the no-data result;
// only document and configuration failures abort the run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()

	report, err := p.run(ctx, opts, start)
	if p.reg != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		p.reg.RecordRun(status, time.Since(start).Seconds())
	}
	return report, err
}

func (p *Pipeline) run(ctx context.Context, opts Options, start time.Time) (*Report, error) {
	scanPath, err := p.locator.Resolve(ctx, opts.ScanRef)
	if err != nil {
		return nil, err
	}

	doc, err := p.locator.Load(ctx, scanPath)
	if err != nil {
		return nil, err
	}

	ex := doc.Extract()
	if len(ex.Symbols) == 0 {
		return nil, core.WrapError(core.ErrDocumentInvalid,
			fmt.Errorf("no symbols in scan %s", scanPath))
	}

	runID := uuid.NewString()
	log := p.log.With(zap.String("run_id", runID), zap.String("scan", scanPath))
	log.Info("scoring run started",
		zap.Int("symbols", len(ex.Symbols)),
		zap.Int("concurrency", p.cfg.Engine.Concurrency))

	outcomes := p.scoreSymbols(ctx, log, ex.Symbols, opts.USMarket)

	topN := p.cfg.Ranking.TopN
	if opts.TopN > 0 {
		topN = opts.TopN
	}
	rankings := p.rankOutcomes(outcomes, ex, topN)

	res := p.buildResult(runID, start, ex, outcomes, rankings)
	if err := doc.Apply(res, ex); err != nil {
		return nil, err
	}

	outPath := opts.Output
	if outPath == "" {
		outPath = scanPath
	}
	if err := p.locator.Save(ctx, outPath, doc); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:      runID,
		ScanPath:   scanPath,
		OutputPath: outPath,
		Symbols:    len(outcomes),
		Rankings:   rankings,
		Duration:   time.Since(start),
	}
	for _, o := range outcomes {
		if o.noData {
			report.NoData++
		}
	}

	log.Info("scoring run finished",
		zap.Int("symbols", report.Symbols),
		zap.Int("no_data", report.NoData),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// scoreSymbols fans symbols out to a bounded worker pool. Each worker
// owns its symbol end to end, so one bad symbol never poisons another.
func (p *Pipeline) scoreSymbols(ctx context.Context, log *zap.Logger, symbols []string, usMarket bool) map[string]symbolOutcome {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		outcomes = make(map[string]symbolOutcome, len(symbols))
	)

	sem := make(chan struct{}, p.cfg.Engine.Concurrency)
	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcome := p.scoreSymbol(ctx, log, symbol, usMarket)
			mu.Lock()
			outcomes[symbol] = outcome
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	return outcomes
}

func (p *Pipeline) scoreSymbol(ctx context.Context, log *zap.Logger, symbol string, usMarket bool) symbolOutcome {
	start := time.Now()

	hist, err := p.reader.Load(ctx, cacheKey(symbol, usMarket))
	if err != nil {
		log.Warn("symbol degraded to no_data",
			zap.String("symbol", symbol), zap.Error(err))
		if p.reg != nil {
			p.reg.RecordSymbolNoData()
		}
		return symbolOutcome{symbol: symbol, results: core.NoDataResults(), noData: true}
	}

	rec, err := feature.Compute(hist, p.cfg.Features)
	if err != nil {
		log.Warn("symbol degraded to no_data",
			zap.String("symbol", symbol), zap.Error(err))
		if p.reg != nil {
			p.reg.RecordSymbolNoData()
		}
		return symbolOutcome{symbol: symbol, results: core.NoDataResults(), noData: true}
	}
	rec.Symbol = symbol

	results := p.scorers.ScoreAll(rec)
	if p.reg != nil {
		p.reg.RecordSymbolScored(time.Since(start).Seconds())
		for st, res := range results {
			if res.Pass {
				p.reg.RecordSetupPassed(string(st))
			}
		}
	}

	return symbolOutcome{symbol: symbol, results: results, record: rec}
}

// cacheKey maps a normalized symbol to its cache entry. NSE symbols are
// cached under their exchange-qualified name.
func cacheKey(symbol string, usMarket bool) string {
	if usMarket {
		return symbol
	}
	return symbol + ".NS"
}

func (p *Pipeline) rankOutcomes(outcomes map[string]symbolOutcome, ex scan.Extraction, topN int) map[core.SetupType][]core.RankingEntry {
	candidates := make([]rank.Candidate, 0, len(outcomes))
	for symbol, o := range outcomes {
		candidates = append(candidates, rank.Candidate{
			Symbol:   symbol,
			Results:  o.results,
			Record:   o.record,
			ScanHits: ex.ScanHits[symbol],
		})
	}

	rankings := rank.New(topN).Rank(candidates)
	if p.reg != nil {
		for st, list := range rankings {
			p.reg.SetRankingSize(string(st), len(list))
		}
	}
	return rankings
}

func (p *Pipeline) buildResult(runID string, start time.Time, ex scan.Extraction,
	outcomes map[string]symbolOutcome, rankings map[core.SetupType][]core.RankingEntry) scan.Result {

	setups := make(map[string]core.SetupResults, len(outcomes))
	var validated []string
	for symbol, o := range outcomes {
		setups[symbol] = o.results
		if !o.noData {
			validated = append(validated, symbol)
		}
	}
	sort.Strings(validated)

	return scan.Result{
		RunID:            runID,
		ValidatedAt:      start.UTC(),
		Rules:            p.cfg.Scoring,
		SymbolsRequested: ex.Symbols,
		SymbolsValidated: validated,
		SetupsBySymbol:   setups,
		Rankings:         rankings,
		PerScanSummary:   p.summarize(ex, outcomes),
	}
}

// summarize aggregates per-scan-type outcomes: how many matches each
// scan produced, how many passed at least one setup, and how many had
// no usable price history.
func (p *Pipeline) summarize(ex scan.Extraction, outcomes map[string]symbolOutcome) map[string]scan.Summary {
	summary := make(map[string]scan.Summary, len(ex.Matches))
	for scanType, matches := range ex.Matches {
		s := scan.Summary{Matches: len(matches)}
		for _, m := range matches {
			o, ok := outcomes[scan.NormalizeSymbol(m.Symbol)]
			if !ok {
				continue
			}
			if o.noData {
				s.MissingOHLCV++
				continue
			}
			for _, res := range o.results {
				if res.Pass {
					s.Validated++
					break
				}
			}
		}
		summary[scanType] = s
	}
	return summary
}
