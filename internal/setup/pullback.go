package setup

import (
	"math"

	"github.com/newthinker/scout/internal/config"
	"github.com/newthinker/scout/internal/core"
	"github.com/newthinker/scout/internal/feature"
)

// Pullback scores the 2-month trend-following pullback entry: an uptrend
// stock resting near support or its moving averages with momentum reset.
type Pullback struct {
	cfg   config.ScoringConfig
	rules []Rule
}

// NewPullback creates the pullback scorer with its rubric bound to cfg
func NewPullback(cfg config.ScoringConfig) *Pullback {
	p := &Pullback{cfg: cfg}
	p.rules = []Rule{
		{core.ReasonTrendOK, 25, trendOK},
		{core.ReasonNearSupport, 20, func(r feature.Record) bool {
			return r.PctAboveSupport != nil && *r.PctAboveSupport <= cfg.NearSupportPct
		}},
		{core.ReasonNearSMA, 15, func(r feature.Record) bool {
			if r.PctFromSMA20 != nil && math.Abs(*r.PctFromSMA20) <= cfg.NearSMAPct {
				return true
			}
			return r.PctFromSMA50 != nil && math.Abs(*r.PctFromSMA50) <= cfg.NearSMAPct
		}},
		{core.ReasonRSIReset, 20, func(r feature.Record) bool {
			return r.RSI14 != nil && *r.RSI14 >= cfg.RSIIdealMin && *r.RSI14 <= cfg.RSIIdealMax
		}},
		{core.ReasonVolumeOnBounce, 10, func(r feature.Record) bool {
			return r.PriceChange1D > 0 &&
				r.VolumeRatio != nil && *r.VolumeRatio >= cfg.MinVolumeRatioBounce
		}},
		{core.ReasonOverbought, -15, func(r feature.Record) bool {
			return r.RSI14 != nil && *r.RSI14 >= cfg.RSIOverboughtMax
		}},
	}
	return p
}

func (p *Pullback) Type() core.SetupType { return core.SetupPullback }

func (p *Pullback) Description() string {
	return "Trend-following pullback entry, ~2 month hold"
}

func (p *Pullback) Score(rec feature.Record) core.SetupResult {
	var gateFails []core.Reason

	// Must trade above the long average
	if rec.SMA200 == nil || rec.Close <= *rec.SMA200 {
		gateFails = append(gateFails, core.ReasonGateBelowSMA200)
	}

	// Must not chase an extended move; skipped when sma20 is unavailable
	if rec.PctFromSMA20 != nil && *rec.PctFromSMA20 > p.cfg.MaxExtensionAboveSMA20Pct {
		gateFails = append(gateFails, core.ReasonGateOverextended)
	}

	return evaluate(core.SetupPullback, gateFails, p.rules, p.cfg.PullbackMinScore, rec, p.metrics(rec))
}

func (p *Pullback) metrics(rec feature.Record) map[string]float64 {
	m := map[string]float64{
		"close":           rec.Close,
		"price_change_1d": rec.PriceChange1D,
	}
	putMetric(m, "rsi14", rec.RSI14)
	putMetric(m, "volume_ratio", rec.VolumeRatio)
	putMetric(m, "pct_from_sma20", rec.PctFromSMA20)
	putMetric(m, "pct_above_support", rec.PctAboveSupport)
	putIntMetric(m, "days_since_breakout_20", rec.DaysSinceBreakout20)
	return m
}
