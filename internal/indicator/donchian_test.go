package indicator

import "testing"

func TestHighestLowest(t *testing.T) {
	values := []float64{3, 7, 2, 9, 5}

	if max, ok := Highest(values, 0, 5); !ok || max != 9 {
		t.Errorf("Highest = %f ok=%v, want 9 true", max, ok)
	}
	if min, ok := Lowest(values, 1, 4); !ok || min != 2 {
		t.Errorf("Lowest[1:4] = %f ok=%v, want 2 true", min, ok)
	}
	if _, ok := Highest(values, 3, 3); ok {
		t.Error("expected empty window to fail")
	}
}

func TestDonchianHigh_ExcludesToday(t *testing.T) {
	// Day 3's own high (20) must not be part of its channel
	highs := []float64{10, 12, 11, 20}

	high, ok := DonchianHigh(highs, 3, 3)
	if !ok {
		t.Fatal("expected channel to be computable")
	}
	if high != 12 {
		t.Errorf("DonchianHigh = %f, want 12 (today excluded)", high)
	}
}

func TestDonchianHigh_InsufficientHistory(t *testing.T) {
	highs := []float64{10, 12, 11}
	if _, ok := DonchianHigh(highs, 2, 3); ok {
		t.Error("expected failure with fewer than window prior bars")
	}
}

func TestDaysSinceBreakout(t *testing.T) {
	// Build 30 flat days then a breakout close on day 30
	closes := make([]float64, 35)
	highs := make([]float64, 35)
	for i := range closes {
		closes[i] = 100
		highs[i] = 101
	}
	closes[30] = 105 // closes above the 101 channel
	highs[30] = 106

	// From day 30 itself: distance 0
	days, ok := DaysSinceBreakout(closes, highs, 30, 20, 30)
	if !ok || days != 0 {
		t.Errorf("at breakout day: days=%d ok=%v, want 0 true", days, ok)
	}

	// Four days later: distance 4
	days, ok = DaysSinceBreakout(closes, highs, 34, 20, 30)
	if !ok || days != 4 {
		t.Errorf("four days after: days=%d ok=%v, want 4 true", days, ok)
	}
}

func TestDaysSinceBreakout_NoneInLookback(t *testing.T) {
	closes := make([]float64, 60)
	highs := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
		highs[i] = 101
	}

	if _, ok := DaysSinceBreakout(closes, highs, 59, 20, 30); ok {
		t.Error("expected no breakout in flat series")
	}
}

func TestDaysSinceBreakout_ShortHistory(t *testing.T) {
	closes := []float64{100, 101, 102}
	highs := []float64{101, 102, 103}

	if _, ok := DaysSinceBreakout(closes, highs, 2, 20, 30); ok {
		t.Error("expected failure when no day has a full prior window")
	}
}
