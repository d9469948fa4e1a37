package models

import (
	"time"
)

// Candle is one completed OHLCV bar for an instrument/granularity pair.
// Candles are immutable once Complete is set.
type Candle struct {
	ID          uint      `gorm:"primaryKey"`
	Instrument  string    `gorm:"index:idx_candle_key;not null"`
	Granularity string    `gorm:"index:idx_candle_key;not null"`
	Time        time.Time `gorm:"index:idx_candle_key;index;not null"`
	Open        float64   `gorm:"type:decimal(20,8)"`
	High        float64   `gorm:"type:decimal(20,8)"`
	Low         float64   `gorm:"type:decimal(20,8)"`
	Close       float64   `gorm:"type:decimal(20,8)"`
	Volume      float64   `gorm:"type:decimal(20,8)"`
	Complete    bool      `gorm:"not null;default:true"`
}

const (
	GranularityM5 = "M5"
	GranularityH1 = "H1"
	GranularityH4 = "H4"
	GranularityD  = "D"
)

// TableName sets the table name for Candle model
func (Candle) TableName() string {
	return "candles"
}

// Closes extracts the close series from a candle slice.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts the high series from a candle slice.
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts the low series from a candle slice.
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}
