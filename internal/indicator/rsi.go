package indicator

import "math"

// RSI calculates the Relative Strength Index with Wilder smoothing
// (exponential, alpha = 1/period). The returned slice is aligned with
// closes; indices before the first computable value hold NaN. The first
// valid value sits at index period (period+1 closes are required).
//
// When the smoothed average loss is zero the RSI is 100 by convention.
func RSI(closes []float64, period int) []float64 {
	result := make([]float64, len(closes))
	for i := range result {
		result[i] = math.NaN()
	}
	if period < 1 || len(closes) < period+1 {
		return result
	}

	// Seed averages with the simple mean of the first period changes
	var sumGain, sumLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			sumGain += change
		} else {
			sumLoss -= change
		}
	}
	avgGain := sumGain / float64(period)
	avgLoss := sumLoss / float64(period)
	result[period] = rsiValue(avgGain, avgLoss)

	// Wilder smoothing for the rest of the series
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		result[i] = rsiValue(avgGain, avgLoss)
	}

	return result
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
