package strategy

import "ForexTradeBot/internal/models"

// Signal is the output of a strategy evaluation. It is produced fresh on
// every call and never mutated afterward.
type Signal struct {
	// Core fields
	Direction  string // LONG, SHORT or WAIT
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Confidence float64 // 0-1
	Reason     string

	// Regime and strategy metadata for the cycle record
	Regime       string
	StrategyUsed string

	// Indicator snapshot at evaluation time
	EMA20  float64
	EMA50  float64
	EMA200 float64
	ADX    float64
	Slope  float64
	ATR    float64
	MACD   float64
}

// Strategy is the capability shared by every signal generator. Evaluation
// is synchronous and side-effect free; insufficient history yields a WAIT
// signal with a reason, never an error.
type Strategy interface {
	ID() string
	GenerateSignal(instrument string, candles []models.Candle) Signal
}

// Market regimes attached to signals
const (
	RegimeTrending      = "trending"
	RegimeRanging       = "ranging"
	RegimeVolatile      = "volatile"
	RegimeQuiet         = "quiet"
	RegimeConsolidation = "consolidation"
)

// Helper for WAIT signals
func waitSignal(reason string) Signal {
	return Signal{
		Direction: models.DirectionWait,
		Reason:    reason,
	}
}
