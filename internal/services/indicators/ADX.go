package indicators

import "math"

// ADXService provides Average Directional Index calculations
type ADXService struct {
	atr *ATRService
}

// NewADXService creates a new ADX service instance
func NewADXService() *ADXService {
	return &ADXService{atr: NewATRService()}
}

// Calculate computes ADX aligned with the input series. The chain is
// +DM/-DM rolling means over ATR -> +DI/-DI -> DX -> rolling mean.
// A small constant guards the DX denominator against division by zero.
// Values before the double warmup (2*period-1 bars of smoothing) are NaN.
func (s *ADXService) Calculate(highs, lows, closes []float64, period int) []float64 {
	if period <= 0 || len(highs) < 2*period || len(highs) != len(lows) || len(highs) != len(closes) {
		return nil
	}

	n := len(highs)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)

	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]

		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	atr := s.atr.Calculate(highs, lows, closes, period)
	if atr == nil {
		return nil
	}

	dx := make([]float64, n)
	for i := range dx {
		dx[i] = math.NaN()
	}

	for i := period - 1; i < n; i++ {
		if math.IsNaN(atr[i]) || atr[i] == 0 {
			continue
		}
		var plusSum, minusSum float64
		for j := i - period + 1; j <= i; j++ {
			plusSum += plusDM[j]
			minusSum += minusDM[j]
		}
		plusDI := 100 * (plusSum / float64(period)) / atr[i]
		minusDI := 100 * (minusSum / float64(period)) / atr[i]

		dx[i] = 100 * math.Abs(plusDI-minusDI) / (plusDI + minusDI + 0.0001)
	}

	adx := make([]float64, n)
	for i := range adx {
		adx[i] = math.NaN()
	}

	for i := 2*period - 2; i < n; i++ {
		var sum float64
		valid := 0
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(dx[j]) {
				continue
			}
			sum += dx[j]
			valid++
		}
		if valid < period {
			continue
		}
		adx[i] = sum / float64(period)
	}

	return adx
}

// Last returns the most recent ADX value, or NaN if unavailable.
func (s *ADXService) Last(highs, lows, closes []float64, period int) float64 {
	values := s.Calculate(highs, lows, closes, period)
	if values == nil {
		return math.NaN()
	}
	return values[len(values)-1]
}
