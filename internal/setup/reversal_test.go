package setup

import (
	"testing"

	"github.com/newthinker/scout/internal/core"
	"github.com/newthinker/scout/internal/feature"
)

// supportBounce sits 2% over support with a confirmed high-volume up day
func supportBounce() feature.Record {
	return feature.Record{
		Symbol:          "BNCE",
		Close:           102,
		PriceChange1D:   1.8,
		SMA20:           feature.Float(101),
		SMA50:           feature.Float(104),
		SMA200:          feature.Float(100),
		VolumeRatio:     feature.Float(1.6),
		SupportLevel:    feature.Float(100),
		PctAboveSupport: feature.Float(2.0),
	}
}

func TestReversal_ConfirmedBounce(t *testing.T) {
	res := NewReversal(scoringCfg()).Score(supportBounce())

	if !res.Pass {
		t.Fatalf("expected pass, got score=%d why=%v", res.Score, res.Why)
	}
	// near_support 30 + bounce_confirmed 25 + reclaim_sma20 15 = 70
	if res.Score != 70 {
		t.Errorf("score = %d, want 70", res.Score)
	}
	for _, want := range []core.Reason{core.ReasonNearSupport, core.ReasonBounceConfirmed, core.ReasonReclaimSMA20} {
		if !res.HasReason(want) {
			t.Errorf("why missing %s: %v", want, res.Why)
		}
	}
}

func TestReversal_GateNoSupport(t *testing.T) {
	rec := supportBounce()
	rec.SupportLevel = nil
	rec.PctAboveSupport = nil

	res := NewReversal(scoringCfg()).Score(rec)

	if res.Pass {
		t.Error("missing support must fail the gate")
	}
	if !res.HasReason(core.ReasonGateNoSupport) || !res.HasReason(core.ReasonGateNotNearSupport) {
		t.Errorf("why missing gate reasons: %v", res.Why)
	}
}

func TestReversal_GateNotNearSupport(t *testing.T) {
	rec := supportBounce()
	rec.PctAboveSupport = feature.Float(7.5)

	res := NewReversal(scoringCfg()).Score(rec)

	if res.Pass {
		t.Error("7.5%% above support must fail the gate")
	}
	if !res.HasReason(core.ReasonGateNotNearSupport) {
		t.Errorf("why missing gate reason: %v", res.Why)
	}
}

func TestReversal_GateNoBounce(t *testing.T) {
	rec := supportBounce()
	rec.PriceChange1D = 0.2 // below the 1% confirmation threshold

	res := NewReversal(scoringCfg()).Score(rec)

	if res.Pass {
		t.Error("weak bounce must fail the gate")
	}
	if !res.HasReason(core.ReasonGateNoBounce) {
		t.Errorf("why missing gate reason: %v", res.Why)
	}
	if res.HasReason(core.ReasonBounceConfirmed) {
		t.Error("bounce_confirmed must not be claimed")
	}

	// Volume leg of the confirmation
	rec = supportBounce()
	rec.VolumeRatio = feature.Float(0.8)
	res = NewReversal(scoringCfg()).Score(rec)
	if !res.HasReason(core.ReasonGateNoBounce) {
		t.Error("low volume must fail the bounce gate")
	}
}

func TestReversal_BullDivergenceBonus(t *testing.T) {
	rec := supportBounce()
	rec.RSIBullDivergence = feature.Bool(true)

	res := NewReversal(scoringCfg()).Score(rec)

	// 70 from the confirmed bounce + 15 divergence
	if res.Score != 85 {
		t.Errorf("score = %d, want 85", res.Score)
	}
	if !res.HasReason(core.ReasonRSIBullDiv) {
		t.Errorf("why missing divergence: %v", res.Why)
	}

	// Absence of two pivots is not-applicable: no points, no penalty
	rec.RSIBullDivergence = nil
	res = NewReversal(scoringCfg()).Score(rec)
	if res.Score != 70 {
		t.Errorf("score = %d, want 70 with divergence not applicable", res.Score)
	}

	rec.RSIBullDivergence = feature.Bool(false)
	res = NewReversal(scoringCfg()).Score(rec)
	if res.Score != 70 {
		t.Errorf("score = %d, want 70 with no divergence", res.Score)
	}
}

func TestReversal_DowntrendRisk(t *testing.T) {
	rec := supportBounce()
	rec.Close = 95
	rec.SMA20 = feature.Float(96) // not reclaimed
	rec.SMA50 = feature.Float(97) // below long average
	rec.SMA200 = feature.Float(100)

	res := NewReversal(scoringCfg()).Score(rec)

	if !res.HasReason(core.ReasonDowntrendRisk) {
		t.Errorf("why missing downtrend_risk: %v", res.Why)
	}
	// near_support 30 + bounce 25 - downtrend 20 = 35
	if res.Score != 35 {
		t.Errorf("score = %d, want 35", res.Score)
	}
	if res.Pass {
		t.Error("35 is below the 60 threshold")
	}
}
