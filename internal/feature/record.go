package feature

// Record is the derived per-symbol technical snapshot all three setup
// scorers consume. Pointer fields are nil when there is not enough history
// to compute them; scorers must treat nil as a failed gate, never as zero.
type Record struct {
	Symbol        string  `json:"symbol"`
	Close         float64 `json:"close"`
	PriceChange1D float64 `json:"price_change_1d"`

	SMA20  *float64 `json:"sma20"`
	SMA50  *float64 `json:"sma50"`
	SMA200 *float64 `json:"sma200"`

	PctFromSMA20  *float64 `json:"pct_from_sma20"`
	PctFromSMA50  *float64 `json:"pct_from_sma50"`
	PctFromSMA200 *float64 `json:"pct_from_sma200"`

	RSI14       *float64 `json:"rsi14"`
	VolumeRatio *float64 `json:"volume_ratio"`

	DonchianHigh20      *float64 `json:"donchian_high_20"`
	BreakoutToday       bool     `json:"breakout_today"`
	DaysSinceBreakout20 *int     `json:"days_since_breakout_20"`

	SupportLevel    *float64 `json:"support_level"`
	PctAboveSupport *float64 `json:"pct_above_support"`

	RangePct       *float64 `json:"range_pct"`
	TightRange     bool     `json:"tight_range"`
	CloseToHighPct *float64 `json:"close_to_high_pct"`
	CloseNearHigh  bool     `json:"close_near_high"`

	// nil when fewer than two qualifying pivot lows exist to compare
	RSIBullDivergence *bool `json:"rsi_bull_divergence"`
}

// Float returns a pointer to v, for building records in tests and literals
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v
func Int(v int) *int { return &v }

// Bool returns a pointer to v
func Bool(v bool) *bool { return &v }
