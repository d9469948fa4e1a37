package indicators

import "math"

// DonchianService provides Donchian channel calculations
type DonchianService struct{}

// DonchianResult holds the channel bounds aligned with the input series
type DonchianResult struct {
	Upper []float64
	Lower []float64
}

// NewDonchianService creates a new Donchian service instance
func NewDonchianService() *DonchianService {
	return &DonchianService{}
}

// Calculate computes the rolling highest-high / lowest-low channel over
// period bars. The window at index i covers bars [i-period, i), excluding
// the current bar, so a close beyond the channel is a true breakout of the
// prior range. Values before a full window are NaN.
func (s *DonchianService) Calculate(highs, lows []float64, period int) *DonchianResult {
	if period <= 0 || len(highs) <= period || len(highs) != len(lows) {
		return nil
	}

	n := len(highs)
	upper := make([]float64, n)
	lower := make([]float64, n)
	for i := 0; i < n; i++ {
		upper[i] = math.NaN()
		lower[i] = math.NaN()
	}

	for i := period; i < n; i++ {
		hi := highs[i-period]
		lo := lows[i-period]
		for j := i - period + 1; j < i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		upper[i] = hi
		lower[i] = lo
	}

	return &DonchianResult{Upper: upper, Lower: lower}
}

// RangeSize returns the channel width at index i, or NaN before warmup.
func (r *DonchianResult) RangeSize(i int) float64 {
	if i < 0 || i >= len(r.Upper) {
		return math.NaN()
	}
	return r.Upper[i] - r.Lower[i]
}
