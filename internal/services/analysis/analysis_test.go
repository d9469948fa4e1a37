package analysis

import (
	"testing"
	"time"

	"ForexTradeBot/internal/models"

	"go.uber.org/zap"
)

func candle(open, high, low, close float64) models.Candle {
	return models.Candle{
		Time:     time.Now(),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    close,
		Complete: true,
	}
}

func TestDetectRejection(t *testing.T) {
	svc := NewPatternService()

	tests := []struct {
		name      string
		current   models.Candle
		previous  models.Candle
		direction string
		want      bool
		pattern   string
	}{
		{
			name:      "bullish pin bar",
			current:   candle(1.1000, 1.1012, 1.0960, 1.1010),
			previous:  candle(1.1010, 1.1020, 1.0990, 1.1000),
			direction: models.DirectionLong,
			want:      true,
			pattern:   PatternPinBarBullish,
		},
		{
			name:      "bullish engulfing",
			current:   candle(1.0985, 1.1030, 1.0980, 1.1025),
			previous:  candle(1.1010, 1.1015, 1.0985, 1.0990),
			direction: models.DirectionLong,
			want:      true,
			pattern:   PatternEngulfingBullish,
		},
		{
			name:      "bearish pin bar",
			current:   candle(1.1000, 1.1040, 1.0988, 1.0990),
			previous:  candle(1.0990, 1.1010, 1.0980, 1.1000),
			direction: models.DirectionShort,
			want:      true,
			pattern:   PatternPinBarBearish,
		},
		{
			name:      "bearish engulfing",
			current:   candle(1.1015, 1.1020, 1.0970, 1.0975),
			previous:  candle(1.0990, 1.1015, 1.0985, 1.1010),
			direction: models.DirectionShort,
			want:      true,
			pattern:   PatternEngulfingBearish,
		},
		{
			name:      "plain candle is not a rejection",
			current:   candle(1.1000, 1.1011, 1.0999, 1.1010),
			previous:  candle(1.0990, 1.1001, 1.0989, 1.1000),
			direction: models.DirectionLong,
			want:      false,
		},
		{
			name:      "doji with zero body is ignored",
			current:   candle(1.1000, 1.1010, 1.0990, 1.1000),
			previous:  candle(1.0990, 1.1001, 1.0989, 1.1000),
			direction: models.DirectionLong,
			want:      false,
		},
		{
			name:      "bullish pin bar does not confirm shorts",
			current:   candle(1.1000, 1.1012, 1.0960, 1.1010),
			previous:  candle(1.1010, 1.1020, 1.0990, 1.1000),
			direction: models.DirectionShort,
			want:      false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, pattern := svc.DetectRejection(tc.current, tc.previous, tc.direction)
			if got != tc.want {
				t.Fatalf("DetectRejection = %v, want %v", got, tc.want)
			}
			if tc.want && pattern != tc.pattern {
				t.Fatalf("pattern = %q, want %q", pattern, tc.pattern)
			}
		})
	}
}

// risingCandles trends up while keeping RSI moderate: gains of 15 pips
// alternate with losses of 10 pips, so RSI settles near 60.
func risingCandles(n int) []models.Candle {
	out := make([]models.Candle, n)
	price := 1.1000
	for i := 0; i < n; i++ {
		open := price
		if i%2 == 0 {
			price += 0.0015
		} else {
			price -= 0.0010
		}
		out[i] = candle(open, maxf(open, price)+0.0002, minf(open, price)-0.0002, price)
	}
	return out
}

// fallingCandles mirrors risingCandles downward, RSI near 40.
func fallingCandles(n int) []models.Candle {
	out := make([]models.Candle, n)
	price := 1.1000
	for i := 0; i < n; i++ {
		open := price
		if i%2 == 0 {
			price -= 0.0015
		} else {
			price += 0.0010
		}
		out[i] = candle(open, maxf(open, price)+0.0002, minf(open, price)-0.0002, price)
	}
	return out
}

func flatCandles(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		out[i] = candle(1.1000, 1.1002, 1.0998, 1.1000)
	}
	return out
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func TestConfirmAlignedTimeframes(t *testing.T) {
	svc := NewMultiTimeframeService(zap.NewNop())

	entry := risingCandles(120)
	trend := risingCandles(120)

	result := svc.Confirm("EUR_USD", entry, trend)
	if !result.Confirmed {
		t.Fatalf("expected confirmation, got %q", result.Reason)
	}
	if result.Signal != SignalLong {
		t.Fatalf("signal = %q, want LONG", result.Signal)
	}
	if result.Confidence < 60 || result.Confidence > 95 {
		t.Fatalf("confidence = %d, want within [60,95]", result.Confidence)
	}
}

func TestConfirmTrendOnlyHolds(t *testing.T) {
	svc := NewMultiTimeframeService(zap.NewNop())

	entry := flatCandles(120) // flat EMAs classify as HOLD
	trend := risingCandles(120)

	result := svc.Confirm("EUR_USD", entry, trend)
	if result.Confirmed {
		t.Fatal("one-sided signal must not confirm")
	}
	if result.Signal != SignalHold {
		t.Fatalf("signal = %q, want HOLD", result.Signal)
	}
	if result.Confidence != 30 {
		t.Fatalf("confidence = %d, want 30", result.Confidence)
	}
}

func TestConfirmConflictingTimeframes(t *testing.T) {
	svc := NewMultiTimeframeService(zap.NewNop())

	result := svc.Confirm("EUR_USD", risingCandles(120), fallingCandles(120))
	if result.Confirmed {
		t.Fatal("conflicting signals must not confirm")
	}
	if result.Signal != SignalHold {
		t.Fatalf("signal = %q, want HOLD", result.Signal)
	}
	if result.Confidence != 20 {
		t.Fatalf("confidence = %d, want 20", result.Confidence)
	}
}

func TestConfirmInsufficientData(t *testing.T) {
	svc := NewMultiTimeframeService(zap.NewNop())

	result := svc.Confirm("EUR_USD", risingCandles(10), risingCandles(120))
	if result.Confirmed || result.Signal != SignalHold {
		t.Fatalf("expected HOLD on insufficient data, got %+v", result)
	}
	if result.Confidence != 0 {
		t.Fatalf("confidence = %d, want 0", result.Confidence)
	}
}

func TestDailyTrend(t *testing.T) {
	svc := NewMultiTimeframeService(zap.NewNop())

	if got := svc.DailyTrend(risingCandles(120)); got != "BULLISH" {
		t.Fatalf("daily trend = %q, want BULLISH", got)
	}
	if got := svc.DailyTrend(fallingCandles(120)); got != "BEARISH" {
		t.Fatalf("daily trend = %q, want BEARISH", got)
	}
	if got := svc.DailyTrend(flatCandles(10)); got != "NEUTRAL" {
		t.Fatalf("daily trend = %q, want NEUTRAL", got)
	}
}
