package indicators

import "math"

// RSIService provides Relative Strength Index calculations
type RSIService struct{}

// NewRSIService creates a new RSI service instance
func NewRSIService() *RSIService {
	return &RSIService{}
}

// Calculate computes RSI aligned with the input series. Values before
// period+1 samples are NaN; callers must check before using them.
// Average gain/loss is a rolling mean over the period window.
func (s *RSIService) Calculate(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period+1 {
		return nil
	}

	rsi := make([]float64, len(prices))
	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))

	for i := range rsi {
		rsi[i] = math.NaN()
	}

	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	// Rolling means start once a full window of deltas exists.
	for i := period; i < len(prices); i++ {
		var gainSum, lossSum float64
		for j := i - period + 1; j <= i; j++ {
			gainSum += gains[j]
			lossSum += losses[j]
		}
		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)

		if avgLoss == 0 {
			if avgGain == 0 {
				continue // flat window, RSI stays NaN
			}
			rsi[i] = 100
			continue
		}

		rs := avgGain / avgLoss
		rsi[i] = 100 - (100 / (1 + rs))
	}

	return rsi
}

// Last returns the most recent RSI value, or NaN if unavailable.
func (s *RSIService) Last(prices []float64, period int) float64 {
	values := s.Calculate(prices, period)
	if values == nil {
		return math.NaN()
	}
	return values[len(values)-1]
}
