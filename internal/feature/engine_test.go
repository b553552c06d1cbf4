package feature

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/newthinker/scout/internal/config"
	"github.com/newthinker/scout/internal/core"
	"github.com/newthinker/scout/internal/indicator"
)

func featureCfg() config.FeatureConfig {
	return config.Defaults().Features
}

// history builds a daily series where each bar brackets its close by 1%
func history(symbol string, closes []float64) core.History {
	bars := make([]core.Bar, len(closes))
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = core.Bar{
			Date:   day.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return core.History{Symbol: symbol, Bars: bars}
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestCompute_EmptyHistory(t *testing.T) {
	_, err := Compute(core.History{Symbol: "ZZZZ"}, featureCfg())
	if !errors.Is(err, core.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestCompute_ShortHistoryNullsOut(t *testing.T) {
	rec, err := Compute(history("NEW", constant(10, 100)), featureCfg())
	if err != nil {
		t.Fatal(err)
	}

	if rec.SMA20 != nil || rec.SMA50 != nil || rec.SMA200 != nil {
		t.Error("expected all SMAs nil with 10 bars")
	}
	if rec.PctFromSMA20 != nil || rec.PctFromSMA50 != nil || rec.PctFromSMA200 != nil {
		t.Error("expected pct-from-SMA fields nil when SMAs are nil")
	}
	if rec.RSI14 != nil {
		t.Error("expected RSI nil with fewer than 15 bars")
	}
	if rec.DonchianHigh20 != nil || rec.DaysSinceBreakout20 != nil {
		t.Error("expected donchian features nil with 10 bars")
	}
	// Volume ratio only needs one prior bar
	if rec.VolumeRatio == nil {
		t.Error("expected volume ratio with 9 prior bars")
	}
}

func TestCompute_SMAAndPct(t *testing.T) {
	closes := constant(250, 100)
	closes[249] = 110 // as-of close above the flat average
	rec, err := Compute(history("TREND", closes), featureCfg())
	if err != nil {
		t.Fatal(err)
	}

	// SMA20 = (19*100 + 110)/20 = 100.5
	if rec.SMA20 == nil || !almostEqual(*rec.SMA20, 100.5, 1e-9) {
		t.Fatalf("sma20 = %v, want 100.5", rec.SMA20)
	}
	want := (110/100.5 - 1) * 100
	if rec.PctFromSMA20 == nil || !almostEqual(*rec.PctFromSMA20, want, 1e-9) {
		t.Errorf("pct_from_sma20 = %v, want %f", rec.PctFromSMA20, want)
	}
	if rec.SMA200 == nil {
		t.Error("expected sma200 with 250 bars")
	}
}

func TestCompute_PriceChange1D(t *testing.T) {
	rec, err := Compute(history("CHG", []float64{100, 102}), featureCfg())
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(rec.PriceChange1D, 2.0, 1e-9) {
		t.Errorf("price_change_1d = %f, want 2.0", rec.PriceChange1D)
	}

	single, _ := Compute(history("ONE", []float64{100}), featureCfg())
	if single.PriceChange1D != 0 {
		t.Errorf("single bar change = %f, want 0", single.PriceChange1D)
	}
}

func TestCompute_VolumeRatio(t *testing.T) {
	h := history("VOL", constant(30, 100))
	h.Bars[29].Volume = 2500 // prior 20 days average 1000

	rec, err := Compute(h, featureCfg())
	if err != nil {
		t.Fatal(err)
	}
	if rec.VolumeRatio == nil || !almostEqual(*rec.VolumeRatio, 2.5, 1e-9) {
		t.Errorf("volume_ratio = %v, want 2.5", rec.VolumeRatio)
	}
}

func TestCompute_VolumeRatio_ZeroAverage(t *testing.T) {
	h := history("HALT", constant(30, 100))
	for i := range h.Bars {
		h.Bars[i].Volume = 0
	}
	h.Bars[29].Volume = 500

	rec, err := Compute(h, featureCfg())
	if err != nil {
		t.Fatal(err)
	}
	if rec.VolumeRatio != nil {
		t.Errorf("expected nil ratio over zero average, got %v", *rec.VolumeRatio)
	}
}

func TestCompute_BreakoutToday(t *testing.T) {
	closes := constant(40, 100)
	closes[39] = 105 // above the 101 channel of prior highs
	rec, err := Compute(history("BRK", closes), featureCfg())
	if err != nil {
		t.Fatal(err)
	}

	if rec.DonchianHigh20 == nil || !almostEqual(*rec.DonchianHigh20, 101, 1e-9) {
		t.Fatalf("donchian_high_20 = %v, want 101", rec.DonchianHigh20)
	}
	if !rec.BreakoutToday {
		t.Error("expected breakout_today")
	}
	if rec.DaysSinceBreakout20 == nil || *rec.DaysSinceBreakout20 != 0 {
		t.Errorf("days_since_breakout_20 = %v, want 0", rec.DaysSinceBreakout20)
	}
}

func TestCompute_DonchianExcludesToday(t *testing.T) {
	// Today's own high must never raise its channel
	closes := constant(40, 100)
	closes[39] = 100.5 // high 101.505, close below prior 101 channel
	rec, err := Compute(history("EXC", closes), featureCfg())
	if err != nil {
		t.Fatal(err)
	}

	if rec.DonchianHigh20 == nil || !almostEqual(*rec.DonchianHigh20, 101, 1e-9) {
		t.Fatalf("donchian_high_20 = %v, want 101 (prior bars only)", rec.DonchianHigh20)
	}
	if rec.BreakoutToday {
		t.Error("close 100.5 is not above the 101 channel")
	}
}

func TestCompute_SupportFromPivot(t *testing.T) {
	// Dip to 90 mid-series forms a swing low; its low (89.1) is support
	closes := constant(60, 100)
	closes[30] = 90
	rec, err := Compute(history("SUP", closes), featureCfg())
	if err != nil {
		t.Fatal(err)
	}

	if rec.SupportLevel == nil {
		t.Fatal("expected support level")
	}
	if !almostEqual(*rec.SupportLevel, 90*0.99, 1e-9) {
		t.Errorf("support_level = %f, want %f", *rec.SupportLevel, 90*0.99)
	}
	want := (100/(90*0.99) - 1) * 100
	if rec.PctAboveSupport == nil || !almostEqual(*rec.PctAboveSupport, want, 1e-9) {
		t.Errorf("pct_above_support = %v, want %f", rec.PctAboveSupport, want)
	}
}

func TestCompute_SupportPicksNearestBelowPrice(t *testing.T) {
	// Two swing lows below price: 80 and 95; nearest support is the higher
	closes := constant(60, 100)
	closes[20] = 80
	closes[40] = 95
	rec, err := Compute(history("NEAR", closes), featureCfg())
	if err != nil {
		t.Fatal(err)
	}

	if rec.SupportLevel == nil || !almostEqual(*rec.SupportLevel, 95*0.99, 1e-9) {
		t.Errorf("support_level = %v, want %f", rec.SupportLevel, 95*0.99)
	}
}

func TestCompute_SupportFallbackToRollingMin(t *testing.T) {
	// Monotonically rising lows form no swing low; fall back to window min
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rec, err := Compute(history("RISE", closes), featureCfg())
	if err != nil {
		t.Fatal(err)
	}

	if rec.SupportLevel == nil || !almostEqual(*rec.SupportLevel, 100*0.99, 1e-9) {
		t.Errorf("support_level = %v, want %f (rolling min fallback)", rec.SupportLevel, 100*0.99)
	}
}

func TestCompute_RangeAndCloseNearHigh(t *testing.T) {
	rec, err := Compute(history("FLAT", constant(30, 100)), featureCfg())
	if err != nil {
		t.Fatal(err)
	}

	// 10-day range: high 101, low 99 -> 2% of close, under the 4% default
	if rec.RangePct == nil || !almostEqual(*rec.RangePct, 2.0, 1e-9) {
		t.Fatalf("range_pct = %v, want 2.0", rec.RangePct)
	}
	if !rec.TightRange {
		t.Error("expected tight_range at 2% range")
	}

	// close sits 1/1.01 below the bar high: ~0.99%, within the 1% default
	if rec.CloseToHighPct == nil {
		t.Fatal("expected close_to_high_pct")
	}
	if !rec.CloseNearHigh {
		t.Errorf("expected close_near_high at %f%%", *rec.CloseToHighPct)
	}
}

func TestCompute_Determinism(t *testing.T) {
	closes := constant(250, 100)
	for i := range closes {
		closes[i] += float64(i%7) * 0.5
	}
	h := history("DET", closes)

	a, errA := Compute(h, featureCfg())
	b, errB := Compute(h, featureCfg())
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v %v", errA, errB)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs must produce identical records")
	}
}

func TestBullDivergence(t *testing.T) {
	rsi := []float64{math.NaN(), 30, 25, 40, 35, 50}

	tests := []struct {
		name   string
		pivots []indicator.Pivot
		want   *bool
	}{
		{"lower low higher rsi", []indicator.Pivot{{Index: 2, Price: 50}, {Index: 4, Price: 48}}, Bool(true)},
		{"lower low lower rsi", []indicator.Pivot{{Index: 4, Price: 50}, {Index: 2, Price: 48}}, Bool(false)},
		{"higher low", []indicator.Pivot{{Index: 2, Price: 48}, {Index: 4, Price: 50}}, Bool(false)},
		{"single pivot", []indicator.Pivot{{Index: 2, Price: 48}}, nil},
		{"no pivots", nil, nil},
		{"rsi unavailable", []indicator.Pivot{{Index: 0, Price: 50}, {Index: 4, Price: 48}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bullDivergence(tt.pivots, 0, rsi)
			switch {
			case got == nil && tt.want == nil:
			case got == nil || tt.want == nil:
				t.Errorf("bullDivergence = %v, want %v", got, tt.want)
			case *got != *tt.want:
				t.Errorf("bullDivergence = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}
