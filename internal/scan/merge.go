package scan

import (
	"encoding/json"
	"time"

	"github.com/newthinker/scout/internal/config"
	"github.com/newthinker/scout/internal/core"
)

// EngineName tags the validation block with its producer.
const EngineName = "scout"

// EngineVersion is the setup-scoring schema version. Bump whenever the
// shape of setups_by_symbol or rankings changes, so downstream readers
// can detect incompatible output.
const EngineVersion = 2

// Summary aggregates validation outcomes for one scan type.
type Summary struct {
	Matches      int `json:"matches"`
	Validated    int `json:"validated"`
	MissingOHLCV int `json:"missing_ohlcv"`
}

// Result is everything a scoring run merges back into the document.
type Result struct {
	RunID            string
	ValidatedAt      time.Time
	Rules            config.ScoringConfig
	SymbolsRequested []string
	SymbolsValidated []string
	SetupsBySymbol   map[string]core.SetupResults
	Rankings         map[core.SetupType][]core.RankingEntry
	PerScanSummary   map[string]Summary
}

// Apply merges the run result into the document. Only validated_at, the
// validation block, and the normalized scans matches are written; every
// other key keeps its existing value.
func (d *Document) Apply(res Result, ex Extraction) error {
	validation := map[string]any{
		"engine":            EngineName,
		"engine_version":    EngineVersion,
		"run_id":            res.RunID,
		"rules":             rulesSnapshot(res.Rules),
		"symbols_requested": res.SymbolsRequested,
		"symbols_validated": res.SymbolsValidated,
	}

	for key, val := range map[string]any{
		"per_scan_summary": res.PerScanSummary,
		"setups_by_symbol": res.SetupsBySymbol,
		"rankings":         res.Rankings,
	} {
		plain, err := toPlain(val)
		if err != nil {
			return core.WrapError(core.ErrDocumentInvalid, err)
		}
		validation[key] = plain
	}

	d.data["validated_at"] = res.ValidatedAt.Format(time.RFC3339)
	d.data["validation"] = validation

	d.writeNormalizedScans(ex)
	return nil
}

// writeNormalizedScans replaces each scan block's matches with their
// normalized form, preserving any other keys the block carries.
func (d *Document) writeNormalizedScans(ex Extraction) {
	scans, ok := d.data["scans"].(map[string]any)
	if !ok {
		return
	}

	for scanType, matches := range ex.Matches {
		plain, err := toPlain(matches)
		if err != nil {
			continue
		}
		if block, ok := scans[scanType].(map[string]any); ok {
			block["matches"] = plain
			if _, has := block["count"]; !has {
				block["count"] = len(matches)
			}
		} else {
			scans[scanType] = map[string]any{
				"count":   len(matches),
				"matches": plain,
			}
		}
	}
}

// rulesSnapshot records the thresholds this run scored with, so a
// reader can reproduce or audit any score in the document.
func rulesSnapshot(r config.ScoringConfig) map[string]any {
	return map[string]any{
		"max_extension_above_sma20_pct": r.MaxExtensionAboveSMA20Pct,
		"near_support_pct":              r.NearSupportPct,
		"near_sma_pct":                  r.NearSMAPct,
		"rsi_ideal_min":                 r.RSIIdealMin,
		"rsi_ideal_max":                 r.RSIIdealMax,
		"rsi_overbought_max":            r.RSIOverboughtMax,
		"min_volume_ratio_bounce":       r.MinVolumeRatioBounce,
		"breakout_min_volume_ratio":     r.BreakoutMinVolumeRatio,
		"breakout_strong_volume_ratio":  r.BreakoutStrongVolumeRatio,
		"max_days_since_breakout":       r.MaxDaysSinceBreakout,
		"recent_breakout_max_days":      r.RecentBreakoutMaxDays,
		"min_bounce_change_pct":         r.MinBounceChangePct,
		"min_bounce_volume_ratio":       r.MinBounceVolumeRatio,
		"pullback_min_score":            r.PullbackMinScore,
		"breakout_min_score":            r.BreakoutMinScore,
		"reversal_min_score":            r.ReversalMinScore,
	}
}

// toPlain round-trips a typed value through JSON so the document map
// holds only plain maps/slices and marshals deterministically.
func toPlain(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
