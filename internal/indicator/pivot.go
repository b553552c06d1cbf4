package indicator

// Pivot is a local extreme in a price series
type Pivot struct {
	Index int
	Price float64
}

// PivotLows identifies swing lows: bars whose low is the strict minimum of
// the 2k+1 bar window centered on them. Bars within k of either edge of the
// evaluated range cannot qualify.
func PivotLows(lows []float64, k int) []Pivot {
	var pivots []Pivot
	if k < 1 {
		return pivots
	}

	for i := k; i < len(lows)-k; i++ {
		current := lows[i]
		isPivot := true

		for j := 1; j <= k; j++ {
			if lows[i-j] <= current || lows[i+j] <= current {
				isPivot = false
				break
			}
		}

		if isPivot {
			pivots = append(pivots, Pivot{Index: i, Price: current})
		}
	}

	return pivots
}
