package indicator

// SMAAt returns the simple moving average of the period bars ending at
// index i (inclusive). The second return is false when fewer than period
// bars exist up to i.
func SMAAt(prices []float64, period, i int) (float64, bool) {
	if period < 1 || i < period-1 || i >= len(prices) {
		return 0, false
	}
	var sum float64
	for j := i - period + 1; j <= i; j++ {
		sum += prices[j]
	}
	return sum / float64(period), true
}

// Mean returns the arithmetic mean of values[from:to] (to exclusive).
// The second return is false for an empty or out-of-bounds window.
func Mean(values []float64, from, to int) (float64, bool) {
	if from < 0 || to > len(values) || from >= to {
		return 0, false
	}
	var sum float64
	for _, v := range values[from:to] {
		sum += v
	}
	return sum / float64(to-from), true
}
