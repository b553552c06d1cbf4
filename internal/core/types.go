package core

import "time"

// SetupType identifies one of the trade-candidate classifications
type SetupType string

const (
	SetupPullback SetupType = "2m_pullback"
	SetupBreakout SetupType = "2w_breakout"
	SetupReversal SetupType = "support_reversal"
)

// SetupTypes lists all setup types in evaluation order
var SetupTypes = []SetupType{SetupPullback, SetupBreakout, SetupReversal}

// Bar represents one trading day of OHLCV data for a symbol
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// IsValid checks the OHLC ordering invariants for a single bar
func (b Bar) IsValid() bool {
	return b.High >= b.Low &&
		b.High >= b.Close && b.Close >= b.Low &&
		b.Volume >= 0
}

// History is an ordered (date ascending) series of daily bars for one symbol.
// Read-only to everything downstream of the cache reader.
type History struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars
func (h History) Len() int { return len(h.Bars) }

// Closes extracts the close series
func (h History) Closes() []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high series
func (h History) Highs() []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low series
func (h History) Lows() []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts the volume series
func (h History) Volumes() []float64 {
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = b.Volume
	}
	return out
}

// Reason is a stable, closed-vocabulary scoring reason code.
// Downstream consumers filter and aggregate on these, never on free text.
type Reason string

const (
	// Shared rubric reasons
	ReasonTrendOK     Reason = "trend_ok"
	ReasonNearSupport Reason = "near_support"

	// Pullback rubric
	ReasonNearSMA        Reason = "near_sma"
	ReasonRSIReset       Reason = "rsi_reset"
	ReasonVolumeOnBounce Reason = "volume_on_bounce"
	ReasonOverbought     Reason = "overbought"

	// Breakout rubric
	ReasonRecentBreakout Reason = "recent_breakout"
	ReasonBreakoutOK     Reason = "breakout_ok"
	ReasonVolumeOK       Reason = "volume_ok"
	ReasonStrongVolume   Reason = "strong_volume"
	ReasonCloseNearHigh  Reason = "close_near_high"
	ReasonTightRange     Reason = "tight_range"
	ReasonOverextended   Reason = "overextended"
	ReasonTooOverbought  Reason = "too_overbought"

	// Reversal rubric
	ReasonBounceConfirmed Reason = "bounce_confirmed"
	ReasonRSIBullDiv      Reason = "rsi_bull_divergence"
	ReasonReclaimSMA20    Reason = "reclaim_sma20"
	ReasonReclaimSMA50    Reason = "reclaim_sma50"
	ReasonDowntrendRisk   Reason = "downtrend_risk"

	// Gate failures
	ReasonGateBelowSMA200      Reason = "gate_fail_below_sma200"
	ReasonGateBelowSMA50       Reason = "gate_fail_below_sma50"
	ReasonGateOverextended     Reason = "gate_fail_overextended"
	ReasonGateNoRecentBreakout Reason = "gate_fail_no_recent_breakout"
	ReasonGateNoSupport        Reason = "gate_fail_no_support"
	ReasonGateNotNearSupport   Reason = "gate_fail_not_near_support"
	ReasonGateNoBounce         Reason = "gate_fail_no_bounce"

	// Missing or unusable price history
	ReasonNoData Reason = "no_data"
)

// SetupResult is the outcome of scoring one symbol against one setup type
type SetupResult struct {
	Setup   SetupType          `json:"setup"`
	Pass    bool               `json:"pass"`
	Score   int                `json:"score"`
	Why     []Reason           `json:"why"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// HasReason reports whether the result carries the given reason code
func (r SetupResult) HasReason(reason Reason) bool {
	for _, w := range r.Why {
		if w == reason {
			return true
		}
	}
	return false
}

// SetupResults maps setup type to result for one symbol
type SetupResults map[SetupType]SetupResult

// NoDataResults builds the all-fail result set for a symbol whose price
// history is missing or unusable. Every input symbol gets an entry in the
// output document; gaps are explicit, never silent.
func NoDataResults() SetupResults {
	out := make(SetupResults, len(SetupTypes))
	for _, st := range SetupTypes {
		out[st] = SetupResult{
			Setup: st,
			Pass:  false,
			Score: 0,
			Why:   []Reason{ReasonNoData},
		}
	}
	return out
}

// RankingEntry is one row of a ranked shortlist for a setup type
type RankingEntry struct {
	Symbol   string   `json:"symbol"`
	Score    int      `json:"score"`
	Why      string   `json:"why"`
	ScanHits []string `json:"scan_hits"`
}
