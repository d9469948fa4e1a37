package models

import (
	"math"
	"strings"
)

// Trade direction values shared across strategies, trailing stops and the
// backtester.
const (
	DirectionLong  = "LONG"
	DirectionShort = "SHORT"
	DirectionWait  = "WAIT"
)

// IsJPYPair reports whether the instrument is quoted in Japanese yen.
// JPY pairs use a pip of 0.01 instead of 0.0001.
func IsJPYPair(instrument string) bool {
	return strings.Contains(instrument, "JPY")
}

// PipSize returns the price increment of one pip for the instrument.
func PipSize(instrument string) float64 {
	if IsJPYPair(instrument) {
		return 0.01
	}
	return 0.0001
}

// PriceToPips converts a price difference to pips.
func PriceToPips(instrument string, priceDiff float64) float64 {
	return priceDiff / PipSize(instrument)
}

// PipsToPrice converts pips to a price difference.
func PipsToPrice(instrument string, pips float64) float64 {
	return pips * PipSize(instrument)
}

// SpreadPips returns the flat per-trade spread cost used in simulation.
func SpreadPips(instrument string) float64 {
	if IsJPYPair(instrument) {
		return 1.5
	}
	return 1.0
}

// RoundPrice rounds a price to the instrument's quoting precision:
// 5 decimals for most pairs, 3 for JPY pairs.
func RoundPrice(instrument string, price float64) float64 {
	scale := 1e5
	if IsJPYPair(instrument) {
		scale = 1e3
	}
	return math.Round(price*scale) / scale
}
