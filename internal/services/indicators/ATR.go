package indicators

import "math"

// ATRService provides Average True Range calculations
type ATRService struct{}

// NewATRService creates a new ATR service instance
func NewATRService() *ATRService {
	return &ATRService{}
}

// TrueRange computes the true range series. The first bar has no prior
// close, so its true range is high-low.
func (s *ATRService) TrueRange(highs, lows, closes []float64) []float64 {
	if len(highs) == 0 || len(highs) != len(lows) || len(highs) != len(closes) {
		return nil
	}

	tr := make([]float64, len(highs))
	tr[0] = highs[0] - lows[0]
	for i := 1; i < len(highs); i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// Calculate computes the rolling mean of true range aligned with the input.
// Values before a full window are NaN.
func (s *ATRService) Calculate(highs, lows, closes []float64, period int) []float64 {
	if period <= 0 || len(highs) < period {
		return nil
	}

	tr := s.TrueRange(highs, lows, closes)
	if tr == nil {
		return nil
	}

	atr := make([]float64, len(tr))
	for i := range atr {
		atr[i] = math.NaN()
	}

	var sum float64
	for i, v := range tr {
		sum += v
		if i >= period {
			sum -= tr[i-period]
		}
		if i >= period-1 {
			atr[i] = sum / float64(period)
		}
	}
	return atr
}

// Percentile ranks each ATR value against the trailing lookback window,
// 0-100. Used by regime detection to classify volatility. NaN until a full
// window of defined ATR values exists.
func (s *ATRService) Percentile(atr []float64, lookback int) []float64 {
	if lookback <= 0 || len(atr) < lookback {
		return nil
	}

	pct := make([]float64, len(atr))
	for i := range pct {
		pct[i] = math.NaN()
	}

	for i := lookback - 1; i < len(atr); i++ {
		window := atr[i-lookback+1 : i+1]
		current := atr[i]
		if math.IsNaN(current) {
			continue
		}

		count := 0
		valid := 0
		for _, v := range window {
			if math.IsNaN(v) {
				continue
			}
			valid++
			if v <= current {
				count++
			}
		}
		if valid < lookback {
			continue
		}
		pct[i] = float64(count) / float64(valid) * 100
	}
	return pct
}
