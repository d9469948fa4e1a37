package analysis

// Per-timeframe classification values
const (
	SignalLong  = "LONG"
	SignalShort = "SHORT"
	SignalHold  = "HOLD"
)

// Rejection candle patterns
const (
	PatternPinBarBullish    = "PIN_BAR_BULLISH"
	PatternPinBarBearish    = "PIN_BAR_BEARISH"
	PatternEngulfingBullish = "ENGULFING_BULLISH"
	PatternEngulfingBearish = "ENGULFING_BEARISH"
)

// TimeframeReading is the classification of a single timeframe.
type TimeframeReading struct {
	Granularity   string
	Signal        string
	EMA20         float64
	EMA50         float64
	RSI14         float64
	TrendStrength float64 // 0-100
	Aligned       bool    // EMAs aligned with the signal
}

// ConfirmedSignal is the result of cross-checking two timeframes.
type ConfirmedSignal struct {
	Instrument string
	Signal     string
	Confidence int
	Confirmed  bool
	Reason     string

	Entry *TimeframeReading // faster timeframe, entry timing
	Trend *TimeframeReading // slower timeframe, trend confirmation
}
