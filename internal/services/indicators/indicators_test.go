package indicators

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestEMAConstantSeriesConvergesToConstant(t *testing.T) {
	svc := NewEMAService()

	prices := make([]float64, 100)
	for i := range prices {
		prices[i] = 1.2345
	}

	for _, period := range []int{5, 20, 50} {
		ema := svc.Calculate(prices, period)
		if ema == nil {
			t.Fatalf("period %d: expected values, got nil", period)
		}
		for i, v := range ema {
			if !almostEqual(v, 1.2345, 1e-12) {
				t.Fatalf("period %d: ema[%d] = %v, want 1.2345", period, i, v)
			}
		}
	}
}

func TestEMASeededWithFirstValue(t *testing.T) {
	svc := NewEMAService()

	prices := []float64{2.0, 4.0, 6.0, 8.0}
	ema := svc.Calculate(prices, 3)
	if ema == nil {
		t.Fatal("expected values, got nil")
	}
	if ema[0] != 2.0 {
		t.Fatalf("ema[0] = %v, want first price 2.0", ema[0])
	}

	// multiplier = 2/(3+1) = 0.5, so ema[1] = (4-2)*0.5 + 2 = 3
	if !almostEqual(ema[1], 3.0, 1e-12) {
		t.Fatalf("ema[1] = %v, want 3.0", ema[1])
	}
}

func TestEMAInsufficientData(t *testing.T) {
	svc := NewEMAService()

	if svc.Calculate([]float64{1, 2}, 5) != nil {
		t.Fatal("expected nil for series shorter than period")
	}
	if svc.Calculate(nil, 5) != nil {
		t.Fatal("expected nil for empty series")
	}
	if svc.Calculate([]float64{1, 2, 3}, 0) != nil {
		t.Fatal("expected nil for non-positive period")
	}
}

func TestRSIBounds(t *testing.T) {
	svc := NewRSIService()

	prices := make([]float64, 200)
	prices[0] = 100
	for i := 1; i < len(prices); i++ {
		// deterministic zigzag with drift
		if i%3 == 0 {
			prices[i] = prices[i-1] - 0.4
		} else {
			prices[i] = prices[i-1] + 0.3
		}
	}

	rsi := svc.Calculate(prices, 14)
	if rsi == nil {
		t.Fatal("expected values, got nil")
	}
	for i, v := range rsi {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Fatalf("rsi[%d] = %v out of [0,100]", i, v)
		}
	}
}

func TestRSIWarmup(t *testing.T) {
	svc := NewRSIService()

	short := make([]float64, 14)
	for i := range short {
		short[i] = float64(i)
	}
	if svc.Calculate(short, 14) != nil {
		t.Fatal("expected nil for fewer than period+1 samples")
	}

	long := make([]float64, 30)
	for i := range long {
		long[i] = float64(i)
	}
	rsi := svc.Calculate(long, 14)
	for i := 0; i < 14; i++ {
		if !math.IsNaN(rsi[i]) {
			t.Fatalf("rsi[%d] = %v, want NaN before warmup", i, rsi[i])
		}
	}
	// strictly rising series has zero losses
	if rsi[len(rsi)-1] != 100 {
		t.Fatalf("rsi of strictly rising series = %v, want 100", rsi[len(rsi)-1])
	}
}

func TestMACDHistogramIdentity(t *testing.T) {
	svc := NewMACDService()

	prices := make([]float64, 120)
	for i := range prices {
		prices[i] = 100 + math.Sin(float64(i)/7)*2 + float64(i)*0.05
	}

	res := svc.Calculate(prices, 12, 26, 9)
	if res == nil {
		t.Fatal("expected result, got nil")
	}
	for i := range res.MACD {
		want := res.MACD[i] - res.Signal[i]
		if !almostEqual(res.Histogram[i], want, 1e-12) {
			t.Fatalf("histogram[%d] = %v, want %v", i, res.Histogram[i], want)
		}
	}
}

func TestATRKnownSeries(t *testing.T) {
	svc := NewATRService()

	highs := []float64{11, 12, 13, 12}
	lows := []float64{9, 10, 11, 10}
	closes := []float64{10, 11, 12, 11}

	atr := svc.Calculate(highs, lows, closes, 2)
	if atr == nil {
		t.Fatal("expected values, got nil")
	}
	if !math.IsNaN(atr[0]) {
		t.Fatalf("atr[0] = %v, want NaN before warmup", atr[0])
	}
	// tr = [2, 2, 2, 2] for this series, so every full window averages 2
	for i := 1; i < len(atr); i++ {
		if !almostEqual(atr[i], 2.0, 1e-12) {
			t.Fatalf("atr[%d] = %v, want 2.0", i, atr[i])
		}
	}
}

func TestATRPercentileBounds(t *testing.T) {
	svc := NewATRService()

	atr := make([]float64, 100)
	for i := range atr {
		atr[i] = 1 + math.Abs(math.Sin(float64(i)/5))
	}

	pct := svc.Percentile(atr, 60)
	if pct == nil {
		t.Fatal("expected values, got nil")
	}
	for i, v := range pct {
		if math.IsNaN(v) {
			if i >= 59 {
				t.Fatalf("percentile[%d] NaN after warmup", i)
			}
			continue
		}
		if v < 0 || v > 100 {
			t.Fatalf("percentile[%d] = %v out of [0,100]", i, v)
		}
	}

	// a value that equals the window maximum ranks at 100
	flat := make([]float64, 70)
	for i := range flat {
		flat[i] = 1.0
	}
	flat[69] = 5.0
	fp := NewATRService().Percentile(flat, 60)
	if got := fp[69]; !almostEqual(got, 100, 1e-9) {
		t.Fatalf("max-of-window percentile = %v, want 100", got)
	}
}

func TestADXBoundsAndWarmup(t *testing.T) {
	svc := NewADXService()

	n := 120
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 100 + float64(i)*0.3
		highs[i] = base + 0.5
		lows[i] = base - 0.5
		closes[i] = base
	}

	adx := svc.Calculate(highs, lows, closes, 14)
	if adx == nil {
		t.Fatal("expected values, got nil")
	}
	for i := 0; i < 2*14-2; i++ {
		if !math.IsNaN(adx[i]) {
			t.Fatalf("adx[%d] = %v, want NaN before warmup", i, adx[i])
		}
	}
	last := adx[len(adx)-1]
	if math.IsNaN(last) {
		t.Fatal("adx last value NaN after warmup")
	}
	if last < 0 || last > 100 {
		t.Fatalf("adx = %v out of [0,100]", last)
	}
	// a steady one-sided trend should read as strong
	if last < 50 {
		t.Fatalf("adx of steady uptrend = %v, want strong trend reading", last)
	}
}

func TestDonchianExcludesCurrentBar(t *testing.T) {
	svc := NewDonchianService()

	n := 40
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 1.1010
		lows[i] = 1.0990
	}
	// final bar spikes above the whole prior range
	highs[n-1] = 1.1100
	lows[n-1] = 1.1000

	res := svc.Calculate(highs, lows, 30)
	if res == nil {
		t.Fatal("expected result, got nil")
	}

	upper := res.Upper[n-1]
	if !almostEqual(upper, 1.1010, 1e-12) {
		t.Fatalf("upper = %v, want prior-range high 1.1010 (current bar excluded)", upper)
	}
	if highs[n-1] <= upper {
		t.Fatal("spike bar should break the prior channel")
	}
}

func TestBollingerBandsSymmetry(t *testing.T) {
	svc := NewBBandsService()

	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 50 + math.Sin(float64(i))*3
	}

	res := svc.Calculate(prices, 20, 2.0)
	if res == nil {
		t.Fatal("expected result, got nil")
	}
	for i := 19; i < len(prices); i++ {
		up := res.Upper[i] - res.Middle[i]
		down := res.Middle[i] - res.Lower[i]
		if !almostEqual(up, down, 1e-9) {
			t.Fatalf("bands not symmetric at %d: up=%v down=%v", i, up, down)
		}
		if up < 0 {
			t.Fatalf("negative band width at %d", i)
		}
	}
}
