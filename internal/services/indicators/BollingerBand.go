package indicators

import "math"

// BBandsService provides Bollinger Band calculations
type BBandsService struct{}

// BBandsResult holds the band series aligned with the input
type BBandsResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
	Width  []float64 // Volatility indicator
}

// NewBBandsService creates a new Bollinger Bands service instance
func NewBBandsService() *BBandsService {
	return &BBandsService{}
}

// Calculate computes rolling mean +/- deviations * sample stddev.
// Values before a full window are NaN.
func (s *BBandsService) Calculate(prices []float64, period int, deviations float64) *BBandsResult {
	if period <= 1 || len(prices) < period {
		return nil
	}

	n := len(prices)
	upper := make([]float64, n)
	middle := make([]float64, n)
	lower := make([]float64, n)
	width := make([]float64, n)

	for i := 0; i < period-1; i++ {
		upper[i] = math.NaN()
		middle[i] = math.NaN()
		lower[i] = math.NaN()
		width[i] = math.NaN()
	}

	for i := period - 1; i < n; i++ {
		window := prices[i-period+1 : i+1]

		sum := 0.0
		for _, price := range window {
			sum += price
		}
		mean := sum / float64(period)

		squareSum := 0.0
		for _, price := range window {
			diff := price - mean
			squareSum += diff * diff
		}
		stdDev := math.Sqrt(squareSum / float64(period-1))

		middle[i] = mean
		upper[i] = mean + deviations*stdDev
		lower[i] = mean - deviations*stdDev
		width[i] = (upper[i] - lower[i]) / mean
	}

	return &BBandsResult{
		Upper:  upper,
		Middle: middle,
		Lower:  lower,
		Width:  width,
	}
}
