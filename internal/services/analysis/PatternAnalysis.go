package analysis

import (
	"ForexTradeBot/internal/models"
)

// PatternService detects rejection candles used to confirm pullback
// entries: pin bars and engulfing patterns.
type PatternService struct{}

func NewPatternService() *PatternService {
	return &PatternService{}
}

// DetectRejection checks whether the current candle rejects price in the
// given direction. Returns the matched pattern name when it does.
func (s *PatternService) DetectRejection(current, previous models.Candle, direction string) (bool, string) {
	body := abs(current.Close - current.Open)
	upperWick := current.High - max(current.Close, current.Open)
	lowerWick := min(current.Close, current.Open) - current.Low
	totalRange := current.High - current.Low

	if totalRange == 0 || body == 0 {
		return false, ""
	}

	switch direction {
	case models.DirectionLong:
		// Bullish pin bar: long lower wick, close in the upper half
		isPinBar := lowerWick > body*2 &&
			current.Close > current.Open &&
			current.Close > (current.High+current.Low)/2

		// Bullish engulfing: green candle swallowing the prior red one
		isEngulfing := current.Close > current.Open &&
			previous.Close < previous.Open &&
			current.Close > previous.Open &&
			current.Open < previous.Close

		if isPinBar {
			return true, PatternPinBarBullish
		}
		if isEngulfing {
			return true, PatternEngulfingBullish
		}

	case models.DirectionShort:
		// Bearish pin bar: long upper wick, close in the lower half
		isPinBar := upperWick > body*2 &&
			current.Close < current.Open &&
			current.Close < (current.High+current.Low)/2

		isEngulfing := current.Close < current.Open &&
			previous.Close > previous.Open &&
			current.Close < previous.Open &&
			current.Open > previous.Close

		if isPinBar {
			return true, PatternPinBarBearish
		}
		if isEngulfing {
			return true, PatternEngulfingBearish
		}
	}

	return false, ""
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
