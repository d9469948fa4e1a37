package backtest

import (
	"time"
)

// Exit reasons recorded on trades
const (
	ExitStopLoss      = "STOP_LOSS"
	ExitTakeProfit    = "TAKE_PROFIT"
	ExitSignalReverse = "SIGNAL_REVERSE"
	ExitEndOfData     = "END_OF_DATA"
)

// Trade is one simulated round trip.
type Trade struct {
	Instrument string
	Direction  string // LONG or SHORT
	EntryTime  time.Time
	EntryPrice float64
	ExitTime   time.Time
	ExitPrice  float64
	StopLoss   float64
	TakeProfit float64
	Confidence float64
	PnLPips    float64
	ExitReason string
	IsOpen     bool
}

// EquityPoint tracks cumulative pips over the run.
type EquityPoint struct {
	Timestamp time.Time
	Pips      float64
}

// Result summarises a simulation.
type Result struct {
	Instrument string
	StrategyID string

	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64

	TotalPips    float64
	AvgWinPips   float64
	AvgLossPips  float64
	ProfitFactor float64 // 0 when there are no losing trades
	MaxDrawdown  float64 // in pips, from the running equity peak

	Trades      []Trade
	EquityCurve []EquityPoint
}

// Config drives one simulation run.
type Config struct {
	Instrument  string
	Granularity string

	WarmupBars    int
	MinConfidence float64
	SpreadPips    float64 // 0 means the standard spread for the pair

	// Optional entry window. Trades only open inside it; exits still run
	// to completion. Zero values disable the restriction.
	EntryStart time.Time
	EntryEnd   time.Time
}

// NewConfig creates a config with the standard defaults.
func NewConfig(instrument, granularity string) Config {
	return Config{
		Instrument:    instrument,
		Granularity:   granularity,
		WarmupBars:    200,
		MinConfidence: 0.5,
	}
}
