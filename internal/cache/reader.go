// Package cache reads per-symbol daily OHLCV series from a storage
// backend. It only reads: a symbol that is missing or stale degrades
// the scoring run, it never triggers a fetch.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/scout/internal/core"
	"github.com/newthinker/scout/internal/storage"
)

const (
	seriesExt    = ".json"
	metadataFile = "cache_metadata.json"
	dateLayout   = "2006-01-02"
)

// Metadata records when each symbol's series was last refreshed by the
// external fetcher.
type Metadata struct {
	UpdatedAt map[string]time.Time `json:"updated_at"`
}

// Reader loads validated price histories from the cache store.
type Reader struct {
	store     storage.Store
	freshness time.Duration
	log       *zap.Logger

	metaOnce sync.Once
	meta     Metadata
}

// NewReader creates a cache reader over the given store. freshnessHours
// bounds how old a series may be before a staleness warning is logged.
func NewReader(store storage.Store, freshnessHours int, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{
		store:     store,
		freshness: time.Duration(freshnessHours) * time.Hour,
		log:       log,
	}
}

// cachedBar tolerates both plain dates and full timestamps in cache files.
type cachedBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type cachedSeries struct {
	Symbol string      `json:"symbol"`
	Bars   []cachedBar `json:"bars"`
}

// Load reads and validates the daily series for one symbol.
// Returns ErrCacheMiss if the symbol has no cache file, ErrNoData if the
// file holds no bars, and ErrMalformedBar on any invariant violation.
func (r *Reader) Load(ctx context.Context, symbol string) (core.History, error) {
	path := symbol + seriesExt

	ok, err := r.store.Exists(ctx, path)
	if err != nil {
		return core.History{}, core.WrapError(core.ErrCacheMiss,
			fmt.Errorf("checking cache for %s: %w", symbol, err))
	}
	if !ok {
		return core.History{}, core.WrapError(core.ErrCacheMiss,
			fmt.Errorf("symbol %s", symbol))
	}

	raw, err := r.store.Read(ctx, path)
	if err != nil {
		return core.History{}, core.WrapError(core.ErrCacheMiss,
			fmt.Errorf("reading cache for %s: %w", symbol, err))
	}

	series, err := decodeSeries(raw)
	if err != nil {
		return core.History{}, core.WrapError(core.ErrMalformedBar,
			fmt.Errorf("decoding cache for %s: %w", symbol, err))
	}
	if len(series.Bars) == 0 {
		return core.History{}, core.WrapError(core.ErrNoData,
			fmt.Errorf("symbol %s", symbol))
	}

	hist := core.History{Symbol: symbol, Bars: make([]core.Bar, 0, len(series.Bars))}
	var prev time.Time
	for i, cb := range series.Bars {
		date, err := parseDate(cb.Date)
		if err != nil {
			return core.History{}, core.WrapError(core.ErrMalformedBar,
				fmt.Errorf("%s bar %d: %w", symbol, i, err))
		}
		bar := core.Bar{
			Date: date, Open: cb.Open, High: cb.High,
			Low: cb.Low, Close: cb.Close, Volume: cb.Volume,
		}
		if !bar.IsValid() {
			return core.History{}, core.WrapError(core.ErrMalformedBar,
				fmt.Errorf("%s bar %d (%s): high=%f low=%f close=%f volume=%f",
					symbol, i, cb.Date, bar.High, bar.Low, bar.Close, bar.Volume))
		}
		if i > 0 && !date.After(prev) {
			return core.History{}, core.WrapError(core.ErrMalformedBar,
				fmt.Errorf("%s bar %d (%s): dates must be ascending and unique", symbol, i, cb.Date))
		}
		prev = date
		hist.Bars = append(hist.Bars, bar)
	}

	r.warnIfStale(ctx, symbol)
	return hist, nil
}

// decodeSeries accepts either the {"symbol","bars"} envelope or a bare
// bar array, both of which appear in cache snapshots.
func decodeSeries(raw []byte) (cachedSeries, error) {
	var series cachedSeries
	if err := json.Unmarshal(raw, &series); err == nil && series.Bars != nil {
		return series, nil
	}
	var bars []cachedBar
	if err := json.Unmarshal(raw, &bars); err != nil {
		return cachedSeries{}, err
	}
	return cachedSeries{Bars: bars}, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// warnIfStale checks the metadata file once per Reader and logs symbols
// whose series is older than the freshness threshold. The series is
// still served either way.
func (r *Reader) warnIfStale(ctx context.Context, symbol string) {
	r.metaOnce.Do(func() {
		raw, err := r.store.Read(ctx, metadataFile)
		if err != nil {
			r.log.Debug("no cache metadata", zap.Error(err))
			return
		}
		if err := json.Unmarshal(raw, &r.meta); err != nil {
			r.log.Warn("malformed cache metadata", zap.Error(err))
		}
	})

	updated, ok := r.meta.UpdatedAt[symbol]
	if !ok {
		return
	}
	age := time.Since(updated)
	if age > r.freshness {
		r.log.Warn("stale cache entry",
			zap.String("symbol", symbol),
			zap.Duration("age", age),
			zap.Duration("threshold", r.freshness))
	}
}
