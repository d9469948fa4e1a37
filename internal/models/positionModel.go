package models

import "time"

type Position struct {
	ID         uint    `gorm:"primaryKey"`
	TradeID    string  `gorm:"index;not null"`
	Instrument string  `gorm:"index;not null"`
	Direction  string  `gorm:"not null"`
	Units      int     `gorm:"not null"`
	EntryPrice float64 `gorm:"type:decimal(20,8);not null"`

	StopLoss   float64 `gorm:"type:decimal(20,8);not null"`
	TakeProfit float64 `gorm:"type:decimal(20,8);not null"`

	RiskPercent float64 `gorm:"type:decimal(20,8)"`
	PnL         float64 `gorm:"type:decimal(20,8)"`

	OpenTime  time.Time `gorm:"index;not null"`
	CloseTime time.Time `gorm:"index"`
	Status    string    `gorm:"not null"`

	Confidence float64 `gorm:"type:decimal(20,8)"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

const (
	PositionStatusOpen   = "open"
	PositionStatusClosed = "closed"
)
