package indicators

import "math"

// EMAService provides Exponential Moving Average calculations
type EMAService struct{}

// CrossSignal represents EMA crossover status
type CrossSignal struct {
	Crossed   bool    // Whether cross occurred
	Direction int     // 1 (bullish), -1 (bearish)
	Strength  float64 // Strength of crossover
}

// NewEMAService creates a new EMA service instance
func NewEMAService() *EMAService {
	return &EMAService{}
}

// Calculate computes EMA for the entire price series.
// The series is seeded with the first price and smoothed with 2/(period+1),
// so every index carries a defined value.
func (s *EMAService) Calculate(prices []float64, period int) []float64 {
	if !s.validateInputs(prices, period) {
		return nil
	}

	ema := make([]float64, len(prices))
	multiplier := s.getMultiplier(period)

	ema[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		ema[i] = s.calculatePoint(prices[i], ema[i-1], multiplier)
	}

	return ema
}

// CalculatePoint advances an EMA by one price sample.
func (s *EMAService) CalculatePoint(price, prevEMA float64, period int) float64 {
	if period <= 0 {
		return prevEMA
	}
	return s.calculatePoint(price, prevEMA, s.getMultiplier(period))
}

// Slope returns the normalized change of the series over lookback samples.
func (s *EMAService) Slope(values []float64, lookback int) float64 {
	if lookback <= 0 || len(values) < lookback+1 {
		return 0
	}
	prev := values[len(values)-1-lookback]
	if prev == 0 {
		return 0
	}
	return (values[len(values)-1] - prev) / prev
}

// CheckCrossover detects and analyzes EMA crossovers
func (s *EMAService) CheckCrossover(fastEMA, slowEMA []float64) *CrossSignal {
	if len(fastEMA) < 2 || len(slowEMA) < 2 {
		return &CrossSignal{Crossed: false}
	}

	currFast := fastEMA[len(fastEMA)-1]
	prevFast := fastEMA[len(fastEMA)-2]
	currSlow := slowEMA[len(slowEMA)-1]
	prevSlow := slowEMA[len(slowEMA)-2]

	bullishCross := prevFast <= prevSlow && currFast > currSlow
	bearishCross := prevFast >= prevSlow && currFast < currSlow

	if !bullishCross && !bearishCross {
		return &CrossSignal{Crossed: false}
	}

	strength := math.Abs((currFast - currSlow) / currSlow)
	direction := 1
	if bearishCross {
		direction = -1
	}

	return &CrossSignal{
		Crossed:   true,
		Direction: direction,
		Strength:  strength,
	}
}

// Private helper methods

func (s *EMAService) validateInputs(prices []float64, period int) bool {
	if len(prices) == 0 || period <= 0 || len(prices) < period {
		return false
	}
	return true
}

func (s *EMAService) getMultiplier(period int) float64 {
	return 2.0 / float64(period+1)
}

func (s *EMAService) calculatePoint(price, prevEMA, multiplier float64) float64 {
	return (price-prevEMA)*multiplier + prevEMA
}
