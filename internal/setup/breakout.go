package setup

import (
	"github.com/newthinker/scout/internal/config"
	"github.com/newthinker/scout/internal/core"
	"github.com/newthinker/scout/internal/feature"
)

// Breakout scores the 2-week breakout continuation: a fresh close above
// the prior 20-day range, backed by volume and a tight base.
type Breakout struct {
	cfg   config.ScoringConfig
	rules []Rule
}

// NewBreakout creates the breakout scorer with its rubric bound to cfg
func NewBreakout(cfg config.ScoringConfig) *Breakout {
	b := &Breakout{cfg: cfg}
	b.rules = []Rule{
		{core.ReasonTrendOK, 25, trendOK},
		{core.ReasonRecentBreakout, 25, func(r feature.Record) bool {
			return r.DaysSinceBreakout20 != nil && *r.DaysSinceBreakout20 <= cfg.RecentBreakoutMaxDays
		}},
		{core.ReasonBreakoutOK, 15, func(r feature.Record) bool {
			return r.DaysSinceBreakout20 != nil &&
				*r.DaysSinceBreakout20 > cfg.RecentBreakoutMaxDays &&
				*r.DaysSinceBreakout20 <= cfg.MaxDaysSinceBreakout
		}},
		{core.ReasonVolumeOK, 20, func(r feature.Record) bool {
			return r.VolumeRatio != nil && *r.VolumeRatio >= cfg.BreakoutMinVolumeRatio
		}},
		{core.ReasonStrongVolume, 10, func(r feature.Record) bool {
			return r.VolumeRatio != nil && *r.VolumeRatio >= cfg.BreakoutStrongVolumeRatio
		}},
		{core.ReasonCloseNearHigh, 10, func(r feature.Record) bool {
			return r.CloseNearHigh
		}},
		{core.ReasonTightRange, 10, func(r feature.Record) bool {
			return r.TightRange
		}},
		{core.ReasonOverextended, -15, func(r feature.Record) bool {
			return r.PctFromSMA20 != nil && *r.PctFromSMA20 > cfg.MaxExtensionAboveSMA20Pct
		}},
		{core.ReasonTooOverbought, -10, func(r feature.Record) bool {
			return r.RSI14 != nil && *r.RSI14 > cfg.RSIOverboughtMax
		}},
	}
	return b
}

func (b *Breakout) Type() core.SetupType { return core.SetupBreakout }

func (b *Breakout) Description() string {
	return "Breakout continuation, ~2 week hold"
}

func (b *Breakout) Score(rec feature.Record) core.SetupResult {
	var gateFails []core.Reason

	if rec.SMA50 != nil && rec.Close <= *rec.SMA50 {
		gateFails = append(gateFails, core.ReasonGateBelowSMA50)
	}
	if rec.SMA200 != nil {
		if rec.Close <= *rec.SMA200 {
			gateFails = append(gateFails, core.ReasonGateBelowSMA200)
		}
	} else if rec.SMA50 == nil {
		// Without either average there is no trend evidence at all
		gateFails = append(gateFails, core.ReasonGateBelowSMA50)
	}

	if rec.DaysSinceBreakout20 == nil || *rec.DaysSinceBreakout20 > b.cfg.MaxDaysSinceBreakout {
		gateFails = append(gateFails, core.ReasonGateNoRecentBreakout)
	}

	return evaluate(core.SetupBreakout, gateFails, b.rules, b.cfg.BreakoutMinScore, rec, b.metrics(rec))
}

func (b *Breakout) metrics(rec feature.Record) map[string]float64 {
	m := map[string]float64{
		"close": rec.Close,
	}
	putMetric(m, "rsi14", rec.RSI14)
	putMetric(m, "volume_ratio", rec.VolumeRatio)
	putMetric(m, "pct_from_sma20", rec.PctFromSMA20)
	putMetric(m, "donchian_high_20", rec.DonchianHigh20)
	putIntMetric(m, "days_since_breakout_20", rec.DaysSinceBreakout20)
	if rec.TightRange {
		m["tight_range"] = 1
	}
	if rec.CloseNearHigh {
		m["close_near_high"] = 1
	}
	return m
}
