package setup

import (
	"github.com/newthinker/scout/internal/config"
	"github.com/newthinker/scout/internal/core"
	"github.com/newthinker/scout/internal/feature"
)

// Reversal scores the support-bounce reversal: price holding a swing-low
// support level with a confirmed bounce. Higher risk than the other two
// setups; results are meant for manual cross-checking, not automation.
type Reversal struct {
	cfg   config.ScoringConfig
	rules []Rule
}

// NewReversal creates the reversal scorer with its rubric bound to cfg
func NewReversal(cfg config.ScoringConfig) *Reversal {
	r := &Reversal{cfg: cfg}
	r.rules = []Rule{
		{core.ReasonNearSupport, 30, func(rec feature.Record) bool {
			return rec.PctAboveSupport != nil && *rec.PctAboveSupport <= cfg.NearSupportPct
		}},
		{core.ReasonBounceConfirmed, 25, func(rec feature.Record) bool {
			return bounceConfirmed(rec, cfg)
		}},
		{core.ReasonRSIBullDiv, 15, func(rec feature.Record) bool {
			return rec.RSIBullDivergence != nil && *rec.RSIBullDivergence
		}},
		{core.ReasonReclaimSMA20, 15, func(rec feature.Record) bool {
			return rec.SMA20 != nil && rec.Close > *rec.SMA20
		}},
		{core.ReasonReclaimSMA50, 10, func(rec feature.Record) bool {
			return rec.SMA50 != nil && rec.Close > *rec.SMA50
		}},
		{core.ReasonDowntrendRisk, -20, func(rec feature.Record) bool {
			return rec.SMA200 != nil && rec.SMA50 != nil &&
				rec.Close < *rec.SMA200 && *rec.SMA50 < *rec.SMA200
		}},
	}
	return r
}

func bounceConfirmed(rec feature.Record, cfg config.ScoringConfig) bool {
	return rec.PriceChange1D >= cfg.MinBounceChangePct &&
		rec.VolumeRatio != nil && *rec.VolumeRatio >= cfg.MinBounceVolumeRatio
}

func (r *Reversal) Type() core.SetupType { return core.SetupReversal }

func (r *Reversal) Description() string {
	return "Bounce at swing-low support, higher risk, manual cross-check"
}

func (r *Reversal) Score(rec feature.Record) core.SetupResult {
	var gateFails []core.Reason

	if rec.SupportLevel == nil {
		gateFails = append(gateFails, core.ReasonGateNoSupport)
	}
	if rec.PctAboveSupport == nil || *rec.PctAboveSupport > r.cfg.NearSupportPct {
		gateFails = append(gateFails, core.ReasonGateNotNearSupport)
	}
	if !bounceConfirmed(rec, r.cfg) {
		gateFails = append(gateFails, core.ReasonGateNoBounce)
	}

	return evaluate(core.SetupReversal, gateFails, r.rules, r.cfg.ReversalMinScore, rec, r.metrics(rec))
}

func (r *Reversal) metrics(rec feature.Record) map[string]float64 {
	m := map[string]float64{
		"close":           rec.Close,
		"price_change_1d": rec.PriceChange1D,
	}
	putMetric(m, "rsi14", rec.RSI14)
	putMetric(m, "volume_ratio", rec.VolumeRatio)
	putMetric(m, "support_level", rec.SupportLevel)
	putMetric(m, "pct_above_support", rec.PctAboveSupport)
	return m
}
