package feature

import (
	"math"

	"github.com/newthinker/scout/internal/config"
	"github.com/newthinker/scout/internal/core"
	"github.com/newthinker/scout/internal/indicator"
)

// Fixed indicator periods. The feature schema names them (sma20, rsi14,
// donchian_high_20), so they are constants rather than configuration.
const (
	smaShort  = 20
	smaMid    = 50
	smaLong   = 200
	rsiPeriod = 14
)

// Compute derives the feature record for the last bar of a history.
// It is a pure function: identical history and config always produce an
// identical record, and the history is never mutated.
func Compute(h core.History, cfg config.FeatureConfig) (Record, error) {
	if h.Len() == 0 {
		return Record{Symbol: h.Symbol}, core.ErrNoData
	}
	return ComputeAt(h, h.Len()-1, cfg)
}

// ComputeAt derives the feature record as of bar index asOf. Features whose
// window exceeds the available history come back nil, not as an error.
func ComputeAt(h core.History, asOf int, cfg config.FeatureConfig) (Record, error) {
	if asOf < 0 || asOf >= h.Len() {
		return Record{Symbol: h.Symbol}, core.ErrNoData
	}

	closes := h.Closes()
	highs := h.Highs()
	lows := h.Lows()
	volumes := h.Volumes()

	rec := Record{
		Symbol: h.Symbol,
		Close:  closes[asOf],
	}

	if asOf > 0 && closes[asOf-1] > 0 {
		rec.PriceChange1D = (closes[asOf]/closes[asOf-1] - 1) * 100
	}

	rec.SMA20 = smaField(closes, smaShort, asOf)
	rec.SMA50 = smaField(closes, smaMid, asOf)
	rec.SMA200 = smaField(closes, smaLong, asOf)
	rec.PctFromSMA20 = pctFrom(rec.Close, rec.SMA20)
	rec.PctFromSMA50 = pctFrom(rec.Close, rec.SMA50)
	rec.PctFromSMA200 = pctFrom(rec.Close, rec.SMA200)

	rsi := indicator.RSI(closes[:asOf+1], rsiPeriod)
	if v := rsi[asOf]; !math.IsNaN(v) {
		rec.RSI14 = Float(v)
	}

	rec.VolumeRatio = volumeRatio(volumes, asOf, cfg.VolumeAvgDays)

	if high, ok := indicator.DonchianHigh(highs, asOf, cfg.DonchianDays); ok {
		rec.DonchianHigh20 = Float(high)
		rec.BreakoutToday = rec.Close > high
	}
	if days, ok := indicator.DaysSinceBreakout(closes, highs, asOf, cfg.DonchianDays, cfg.BreakoutLookbackDays); ok {
		rec.DaysSinceBreakout20 = Int(days)
	}

	pivotStart := asOf + 1 - cfg.PivotLookbackDays
	if pivotStart < 0 {
		pivotStart = 0
	}
	pivots := qualifyingPivots(lows[pivotStart:asOf+1], cfg.PivotWindow, rec.Close)

	if support, ok := supportLevel(lows, pivotStart, asOf, pivots); ok && support > 0 {
		rec.SupportLevel = Float(support)
		rec.PctAboveSupport = Float((rec.Close/support - 1) * 100)
	}

	rec.RSIBullDivergence = bullDivergence(pivots, pivotStart, rsi)

	rangeStart := asOf + 1 - cfg.RangeDays
	if rangeStart >= 0 && rec.Close > 0 {
		rangeHigh, okH := indicator.Highest(highs, rangeStart, asOf+1)
		rangeLow, okL := indicator.Lowest(lows, rangeStart, asOf+1)
		if okH && okL {
			rec.RangePct = Float((rangeHigh - rangeLow) / rec.Close * 100)
			rec.TightRange = *rec.RangePct <= cfg.TightRangeMaxPct
		}
	}

	if highs[asOf] > 0 {
		rec.CloseToHighPct = Float((highs[asOf] - rec.Close) / highs[asOf] * 100)
		rec.CloseNearHigh = *rec.CloseToHighPct <= cfg.CloseNearHighMaxPct
	}

	return rec, nil
}

func smaField(closes []float64, period, asOf int) *float64 {
	if v, ok := indicator.SMAAt(closes, period, asOf); ok {
		return Float(v)
	}
	return nil
}

func pctFrom(close float64, sma *float64) *float64 {
	if sma == nil || *sma == 0 {
		return nil
	}
	return Float((close / *sma - 1) * 100)
}

// volumeRatio compares today's volume against the average of up to avgDays
// prior days. At least one prior bar is required; a zero average (halted or
// unreported volume) yields nil rather than a division by zero.
func volumeRatio(volumes []float64, asOf, avgDays int) *float64 {
	from := asOf - avgDays
	if from < 0 {
		from = 0
	}
	avg, ok := indicator.Mean(volumes, from, asOf)
	if !ok || avg == 0 {
		return nil
	}
	return Float(volumes[asOf] / avg)
}

// qualifyingPivots finds swing lows in the lookback slice that sit below the
// as-of close. Indices are relative to the slice.
func qualifyingPivots(lows []float64, k int, close float64) []indicator.Pivot {
	var out []indicator.Pivot
	for _, p := range indicator.PivotLows(lows, k) {
		if p.Price < close {
			out = append(out, p)
		}
	}
	return out
}

// supportLevel picks the highest qualifying pivot low (the nearest support
// under price), falling back to the rolling minimum low over the lookback
// window when no pivot qualifies.
func supportLevel(lows []float64, pivotStart, asOf int, pivots []indicator.Pivot) (float64, bool) {
	if len(pivots) > 0 {
		best := pivots[0].Price
		for _, p := range pivots[1:] {
			if p.Price > best {
				best = p.Price
			}
		}
		return best, true
	}
	return indicator.Lowest(lows, pivotStart, asOf+1)
}

// bullDivergence compares the two most recent qualifying pivot lows: price
// making a lower low while RSI makes a higher low. With fewer than two
// pivots, or RSI unavailable at either, the feature is not applicable (nil).
func bullDivergence(pivots []indicator.Pivot, pivotStart int, rsi []float64) *bool {
	if len(pivots) < 2 {
		return nil
	}
	prev := pivots[len(pivots)-2]
	last := pivots[len(pivots)-1]

	prevRSI := rsi[pivotStart+prev.Index]
	lastRSI := rsi[pivotStart+last.Index]
	if math.IsNaN(prevRSI) || math.IsNaN(lastRSI) {
		return nil
	}

	return Bool(last.Price < prev.Price && lastRSI > prevRSI)
}
