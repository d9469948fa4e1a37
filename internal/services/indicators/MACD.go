package indicators

// MACDService provides MACD calculations built on EMAService
type MACDService struct {
	ema *EMAService
}

// MACDResult holds the full MACD series set
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// NewMACDService creates a new MACD service instance
func NewMACDService() *MACDService {
	return &MACDService{ema: NewEMAService()}
}

// Calculate computes the MACD line (fast EMA - slow EMA), its signal EMA
// and the histogram for the whole series.
func (s *MACDService) Calculate(prices []float64, fast, slow, signal int) *MACDResult {
	if len(prices) == 0 || fast <= 0 || slow <= 0 || signal <= 0 {
		return nil
	}
	if len(prices) < slow {
		return nil
	}

	emaFast := s.ema.Calculate(prices, fast)
	emaSlow := s.ema.Calculate(prices, slow)
	if emaFast == nil || emaSlow == nil {
		return nil
	}

	macd := make([]float64, len(prices))
	for i := range macd {
		macd[i] = emaFast[i] - emaSlow[i]
	}

	signalLine := s.ema.Calculate(macd, signal)
	if signalLine == nil {
		return nil
	}

	histogram := make([]float64, len(prices))
	for i := range histogram {
		histogram[i] = macd[i] - signalLine[i]
	}

	return &MACDResult{
		MACD:      macd,
		Signal:    signalLine,
		Histogram: histogram,
	}
}

// CrossUp reports a bullish MACD/signal cross on the last bar.
func (r *MACDResult) CrossUp() bool {
	n := len(r.MACD)
	if n < 2 {
		return false
	}
	return r.MACD[n-2] <= r.Signal[n-2] && r.MACD[n-1] > r.Signal[n-1]
}

// CrossDown reports a bearish MACD/signal cross on the last bar.
func (r *MACDResult) CrossDown() bool {
	n := len(r.MACD)
	if n < 2 {
		return false
	}
	return r.MACD[n-2] >= r.Signal[n-2] && r.MACD[n-1] < r.Signal[n-1]
}
