package indicator

// Highest returns the maximum of values[from:to] (to exclusive).
// The second return is false for an empty or out-of-bounds window.
func Highest(values []float64, from, to int) (float64, bool) {
	if from < 0 || to > len(values) || from >= to {
		return 0, false
	}
	max := values[from]
	for _, v := range values[from+1 : to] {
		if v > max {
			max = v
		}
	}
	return max, true
}

// Lowest returns the minimum of values[from:to] (to exclusive).
func Lowest(values []float64, from, to int) (float64, bool) {
	if from < 0 || to > len(values) || from >= to {
		return 0, false
	}
	min := values[from]
	for _, v := range values[from+1 : to] {
		if v < min {
			min = v
		}
	}
	return min, true
}

// DonchianHigh returns the highest high over the window bars strictly
// preceding index i. Day i's own high is never included, so a close above
// the channel is a genuine breakout of prior range.
func DonchianHigh(highs []float64, i, window int) (float64, bool) {
	if i < window {
		return 0, false
	}
	return Highest(highs, i-window, i)
}

// DaysSinceBreakout scans backward from asOf (inclusive) up to lookback
// days for the most recent day whose close exceeded its Donchian high.
// Returns the distance in trading days, or false if no breakout occurred
// within the lookback or no day had a full prior window.
func DaysSinceBreakout(closes, highs []float64, asOf, window, lookback int) (int, bool) {
	if asOf >= len(closes) || asOf < 0 {
		return 0, false
	}
	oldest := asOf - lookback
	if oldest < 0 {
		oldest = 0
	}
	for d := asOf; d >= oldest; d-- {
		high, ok := DonchianHigh(highs, d, window)
		if !ok {
			// Earlier days have even less history
			break
		}
		if closes[d] > high {
			return asOf - d, true
		}
	}
	return 0, false
}
