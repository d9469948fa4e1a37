package strategy

import (
	"strings"
	"testing"
	"time"

	"ForexTradeBot/internal/models"
)

func testCandle(open, high, low, close float64) models.Candle {
	return models.Candle{
		Time:     time.Now(),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    close,
		Complete: true,
	}
}

// flatSeries produces identical candles: zero directional movement, ADX 0.
func flatSeries(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		out[i] = testCandle(1.1000, 1.1002, 1.0998, 1.1000)
	}
	return out
}

// rampSeries climbs a fixed step per bar: a clean trend with high ADX.
func rampSeries(n int, step float64) []models.Candle {
	out := make([]models.Candle, n)
	price := 1.1000
	for i := 0; i < n; i++ {
		open := price
		price += step
		out[i] = testCandle(open, price+0.0002, open-0.0002, price)
	}
	return out
}

// spikeBreakoutSeries oscillates one pip inside a tight range, then closes
// the final bar far above it. Highs and lows stay constant until the spike,
// so ADX remains near zero and the close clears the prior channel.
func spikeBreakoutSeries(n int) []models.Candle {
	out := make([]models.Candle, n)
	price := 1.1000
	for i := 0; i < n-1; i++ {
		open := price
		if i%2 == 0 {
			price = 1.1001
		} else {
			price = 1.1000
		}
		out[i] = testCandle(open, 1.1003, 1.0998, price)
	}
	out[n-1] = testCandle(price, 1.1052, price-0.0002, 1.1050)
	return out
}

func TestStrategiesWaitOnInsufficientHistory(t *testing.T) {
	strategies := []Strategy{
		NewTrendPullbackStrategy(DefaultTrendPullbackConfig()),
		NewHybridStrategy(DefaultHybridConfig()),
		NewAdaptiveStrategy(DefaultAdaptiveConfig()),
		NewTrendMACDStrategy(DefaultTrendMACDConfig()),
	}

	short := flatSeries(10)
	for _, s := range strategies {
		sig := s.GenerateSignal("EUR_USD", short)
		if sig.Direction != models.DirectionWait {
			t.Fatalf("%s: direction = %q, want WAIT", s.ID(), sig.Direction)
		}
		if !strings.Contains(sig.Reason, "insufficient history") {
			t.Fatalf("%s: reason = %q", s.ID(), sig.Reason)
		}
	}
}

func TestTrendPullbackSidewaysFilter(t *testing.T) {
	s := NewTrendPullbackStrategy(DefaultTrendPullbackConfig())

	sig := s.GenerateSignal("EUR_USD", flatSeries(260))
	if sig.Direction != models.DirectionWait {
		t.Fatalf("direction = %q, want WAIT", sig.Direction)
	}
	if !strings.Contains(sig.Reason, "sideways") {
		t.Fatalf("reason = %q, want sideways-market filter", sig.Reason)
	}
}

func TestTrendPullbackWaitsForPullback(t *testing.T) {
	s := NewTrendPullbackStrategy(DefaultTrendPullbackConfig())

	// A steady climb leaves price well above the medium EMA, so the
	// strategy must hold for a pullback. Full EMA stacking bumps the
	// wait confidence to 0.3.
	sig := s.GenerateSignal("EUR_USD", rampSeries(260, 0.0002))
	if sig.Direction != models.DirectionWait {
		t.Fatalf("direction = %q, want WAIT", sig.Direction)
	}
	if !strings.Contains(sig.Reason, "pullback") {
		t.Fatalf("reason = %q, want pullback wait", sig.Reason)
	}
	if sig.Confidence != 0.3 {
		t.Fatalf("confidence = %v, want 0.3 with perfect order", sig.Confidence)
	}
	if !(sig.EMA20 > sig.EMA50 && sig.EMA50 > sig.EMA200) {
		t.Fatalf("expected stacked EMAs, got 20=%v 50=%v 200=%v", sig.EMA20, sig.EMA50, sig.EMA200)
	}
}

func TestHybridRoutesToBreakoutInConsolidation(t *testing.T) {
	s := NewHybridStrategy(DefaultHybridConfig())

	sig := s.GenerateSignal("EUR_USD", flatSeries(260))
	if sig.StrategyUsed != "breakout" {
		t.Fatalf("strategy used = %q, want breakout", sig.StrategyUsed)
	}
	if sig.Regime != RegimeConsolidation {
		t.Fatalf("regime = %q, want %q", sig.Regime, RegimeConsolidation)
	}
	if sig.Direction != models.DirectionWait {
		t.Fatalf("direction = %q, want WAIT inside the range", sig.Direction)
	}
}

func TestHybridBreakoutLong(t *testing.T) {
	s := NewHybridStrategy(DefaultHybridConfig())

	sig := s.GenerateSignal("EUR_USD", spikeBreakoutSeries(260))
	if sig.StrategyUsed != "breakout" {
		t.Fatalf("strategy used = %q, want breakout", sig.StrategyUsed)
	}
	if sig.Direction != models.DirectionLong {
		t.Fatalf("direction = %q, want LONG (reason %q)", sig.Direction, sig.Reason)
	}
	if sig.Confidence != 0.6 {
		t.Fatalf("confidence = %v, want 0.6", sig.Confidence)
	}
	if !(sig.StopLoss < sig.EntryPrice && sig.EntryPrice < sig.TakeProfit) {
		t.Fatalf("levels out of order: sl=%v entry=%v tp=%v", sig.StopLoss, sig.EntryPrice, sig.TakeProfit)
	}
}

func TestHybridRoutesToMACDInTrend(t *testing.T) {
	s := NewHybridStrategy(DefaultHybridConfig())

	// Steady trend: high ADX selects the MACD side; the converged MACD has
	// no fresh crossover, so the strategy waits.
	sig := s.GenerateSignal("EUR_USD", rampSeries(260, 0.0002))
	if sig.StrategyUsed != "macd" {
		t.Fatalf("strategy used = %q, want macd", sig.StrategyUsed)
	}
	if sig.Regime != RegimeTrending {
		t.Fatalf("regime = %q, want %q", sig.Regime, RegimeTrending)
	}
	if sig.Direction != models.DirectionWait {
		t.Fatalf("direction = %q, want WAIT without a crossover", sig.Direction)
	}
	if sig.ADX < 30 {
		t.Fatalf("ADX = %v, want >= 30 on a steady trend", sig.ADX)
	}
}

func TestAdaptiveDetectsTrendingRegime(t *testing.T) {
	s := NewAdaptiveStrategy(DefaultAdaptiveConfig())

	sig := s.GenerateSignal("EUR_USD", rampSeries(260, 0.0002))
	if sig.Regime != RegimeTrending {
		t.Fatalf("regime = %q, want %q (reason %q)", sig.Regime, RegimeTrending, sig.Reason)
	}
	if sig.StrategyUsed != "trend_macd" {
		t.Fatalf("strategy used = %q, want trend_macd", sig.StrategyUsed)
	}
}

func TestAdaptiveVolatileRegimeDoesNotTrade(t *testing.T) {
	s := NewAdaptiveStrategy(DefaultAdaptiveConfig())

	// Flat candles rank every ATR value at the top of its window while ADX
	// stays at zero: high volatility rank without trend.
	sig := s.GenerateSignal("EUR_USD", flatSeries(260))
	if sig.Regime != RegimeVolatile {
		t.Fatalf("regime = %q, want %q (reason %q)", sig.Regime, RegimeVolatile, sig.Reason)
	}
	if sig.Direction != models.DirectionWait {
		t.Fatalf("direction = %q, want WAIT", sig.Direction)
	}
}

func TestTrendMACDBelowThresholdWaits(t *testing.T) {
	s := NewTrendMACDStrategy(DefaultTrendMACDConfig())

	sig := s.GenerateSignal("EUR_USD", flatSeries(260))
	if sig.Direction != models.DirectionWait {
		t.Fatalf("direction = %q, want WAIT", sig.Direction)
	}
	if !strings.Contains(sig.Reason, "below threshold") {
		t.Fatalf("reason = %q, want ADX threshold rejection", sig.Reason)
	}
}

func TestTrendMACDTrendWithoutCrossoverWaits(t *testing.T) {
	s := NewTrendMACDStrategy(DefaultTrendMACDConfig())

	sig := s.GenerateSignal("EUR_USD", rampSeries(260, 0.0002))
	if sig.Direction != models.DirectionWait {
		t.Fatalf("direction = %q, want WAIT (reason %q)", sig.Direction, sig.Reason)
	}
	if sig.ADX < DefaultTrendMACDConfig().ADXThreshold {
		t.Fatalf("ADX = %v, want above threshold on a steady trend", sig.ADX)
	}
	if !strings.Contains(sig.Reason, "crossover") {
		t.Fatalf("reason = %q", sig.Reason)
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	ids := r.IDs()
	want := []string{"adaptive", "hybrid", "trend_macd", "trend_pullback"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}

	if _, err := r.Get("trend_pullback"); err != nil {
		t.Fatalf("Get(trend_pullback) = %v", err)
	}
	if _, err := r.Get("martingale"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}
