package models

import "time"

// TradingCycle is the append-only decision record persisted after every
// evaluate/confirm/gate/execute pass over one instrument. It is written
// once and never mutated.
type TradingCycle struct {
	ID        uint      `gorm:"primaryKey"`
	CycleID   string    `gorm:"index;not null"`
	Timestamp time.Time `gorm:"index;not null"`

	Instrument string `gorm:"index;not null"`
	Trigger    string `gorm:"not null"`
	Price      float64

	// Indicator snapshot at decision time
	EMA20 float64
	EMA50 float64
	ADX   float64
	ATR   float64
	RSI   float64

	SignalDirection  string
	SignalConfidence float64
	SignalReason     string
	Regime           string
	StrategyUsed     string

	MTFConfirmed  bool
	MTFConfidence int

	RiskAllowed bool
	RiskReason  string

	Action  string `gorm:"not null"`
	TradeID string
	PnL     float64
	Error   string

	ExecutionMS int64

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

const (
	CycleActionOpened  = "opened"
	CycleActionClosed  = "closed"
	CycleActionSkipped = "skipped"
	CycleActionBlocked = "blocked"
	CycleActionFailed  = "failed"

	CycleTriggerScheduled = "scheduled"
	CycleTriggerManual    = "manual"
)

// TableName sets the table name for TradingCycle model
func (TradingCycle) TableName() string {
	return "trading_cycles"
}
