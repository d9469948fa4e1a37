package strategy

import (
	"fmt"
	"math"

	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/services/analysis"
	"ForexTradeBot/internal/services/indicators"
)

// TrendPullbackConfig holds the tunables of the triple-EMA pullback
// strategy.
type TrendPullbackConfig struct {
	EMAFast   int
	EMAMedium int
	EMASlow   int

	RRRatio            float64
	EMA50TolerancePips float64
	SLBufferPips       float64 // only used when UseATRSL is false
	ATRSLMultiplier    float64
	UseATRSL           bool

	MinEMASlope    float64
	MinADX         float64
	UseADXFilter   bool
	UseSlopeFilter bool
	SlopeLookback  int

	ATRPeriod int
	ADXPeriod int
}

func DefaultTrendPullbackConfig() TrendPullbackConfig {
	return TrendPullbackConfig{
		EMAFast:            20,
		EMAMedium:          50,
		EMASlow:            200,
		RRRatio:            3.0,
		EMA50TolerancePips: 15.0,
		SLBufferPips:       5.0,
		ATRSLMultiplier:    1.5,
		UseATRSL:           true,
		MinEMASlope:        0.0001,
		MinADX:             25.0,
		UseADXFilter:       true,
		UseSlopeFilter:     true,
		SlopeLookback:      10,
		ATRPeriod:          14,
		ADXPeriod:          14,
	}
}

// TrendPullbackStrategy trades pullbacks to the medium EMA in the
// direction of the slow-EMA bias, confirmed by a rejection candle.
// Anti-chop gates (ADX and EMA slope) keep it out of sideways markets.
type TrendPullbackStrategy struct {
	cfg      TrendPullbackConfig
	ema      *indicators.EMAService
	adx      *indicators.ADXService
	atr      *indicators.ATRService
	patterns *analysis.PatternService
}

func NewTrendPullbackStrategy(cfg TrendPullbackConfig) *TrendPullbackStrategy {
	return &TrendPullbackStrategy{
		cfg:      cfg,
		ema:      indicators.NewEMAService(),
		adx:      indicators.NewADXService(),
		atr:      indicators.NewATRService(),
		patterns: analysis.NewPatternService(),
	}
}

func (s *TrendPullbackStrategy) ID() string {
	return "trend_pullback"
}

func (s *TrendPullbackStrategy) GenerateSignal(instrument string, candles []models.Candle) Signal {
	required := s.cfg.EMASlow + 1
	if len(candles) < required {
		return waitSignal(fmt.Sprintf("insufficient history (%d < %d)", len(candles), required))
	}

	closes := models.Closes(candles)
	highs := models.Highs(candles)
	lows := models.Lows(candles)

	ema20 := s.ema.Calculate(closes, s.cfg.EMAFast)
	ema50 := s.ema.Calculate(closes, s.cfg.EMAMedium)
	ema200 := s.ema.Calculate(closes, s.cfg.EMASlow)
	if ema20 == nil || ema50 == nil || ema200 == nil {
		return waitSignal("indicators not ready")
	}

	current := candles[len(candles)-1]
	previous := candles[len(candles)-2]

	meta := Signal{
		EMA20:  ema20[len(ema20)-1],
		EMA50:  ema50[len(ema50)-1],
		EMA200: ema200[len(ema200)-1],
	}

	// Anti-chop gates
	trending, trendReason, adxValue, slope := s.isTrending(highs, lows, closes, ema50)
	meta.ADX = adxValue
	meta.Slope = slope

	if !trending {
		sig := waitSignal(trendReason)
		s.attachMeta(&sig, meta)
		return sig
	}

	// Bias from the slow EMA with a 0.1% buffer around it
	bias := s.trendBias(current.Close, meta.EMA200)
	if bias == "" {
		sig := waitSignal("price inside EMA 200 zone - no clear bias")
		s.attachMeta(&sig, meta)
		return sig
	}

	direction := models.DirectionLong
	if bias == "BEARISH" {
		direction = models.DirectionShort
	}

	perfectOrder := s.isPerfectOrder(meta.EMA20, meta.EMA50, meta.EMA200, direction)

	// Pullback: price must sit within pip tolerance of the medium EMA
	distancePips := models.PriceToPips(instrument, math.Abs(current.Close-meta.EMA50))
	if distancePips > s.cfg.EMA50TolerancePips {
		confidence := 0.1
		if perfectOrder {
			confidence = 0.3
		}
		sig := waitSignal(fmt.Sprintf("waiting for pullback to EMA 50, bias %s", bias))
		sig.Confidence = confidence
		s.attachMeta(&sig, meta)
		return sig
	}

	// Rejection candle in the bias direction
	hasRejection, pattern := s.patterns.DetectRejection(current, previous, direction)
	if !hasRejection {
		sig := waitSignal(fmt.Sprintf("at EMA 50 but no rejection candle, bias %s", bias))
		sig.Confidence = 0.4
		s.attachMeta(&sig, meta)
		return sig
	}

	atrValues := s.atr.Calculate(highs, lows, closes, s.cfg.ATRPeriod)
	atrValue := 0.0
	if atrValues != nil && !math.IsNaN(atrValues[len(atrValues)-1]) {
		atrValue = atrValues[len(atrValues)-1]
	}
	meta.ATR = atrValue

	entry, stopLoss, takeProfit := s.calculateLevels(instrument, current, direction, atrValue)

	confidence := 0.6
	if perfectOrder {
		confidence = 0.7
	}
	if adxValue > 30 {
		confidence += 0.05 // strong trend bonus
	}

	reason := fmt.Sprintf("trend pullback %s: %s at EMA 50", direction, pattern)
	if perfectOrder {
		reason += " (perfect order)"
	}

	sig := Signal{
		Direction:  direction,
		EntryPrice: entry,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Confidence: confidence,
		Reason:     reason,
	}
	s.attachMeta(&sig, meta)
	return sig
}

func (s *TrendPullbackStrategy) attachMeta(sig *Signal, meta Signal) {
	sig.StrategyUsed = s.ID()
	sig.EMA20 = meta.EMA20
	sig.EMA50 = meta.EMA50
	sig.EMA200 = meta.EMA200
	sig.ADX = meta.ADX
	sig.Slope = meta.Slope
	if meta.ATR != 0 {
		sig.ATR = meta.ATR
	}
}

// isTrending applies the ADX and EMA-slope filters.
func (s *TrendPullbackStrategy) isTrending(highs, lows, closes, ema50 []float64) (bool, string, float64, float64) {
	adxValue := 0.0
	slope := 0.0

	if s.cfg.UseADXFilter {
		adxValue = s.adx.Last(highs, lows, closes, s.cfg.ADXPeriod)
		if math.IsNaN(adxValue) {
			adxValue = 0
		}
		if adxValue < s.cfg.MinADX {
			return false, fmt.Sprintf("sideways market (ADX %.1f < %.1f)", adxValue, s.cfg.MinADX), adxValue, slope
		}
	}

	if s.cfg.UseSlopeFilter {
		slope = s.emaSlope(ema50)
		if math.Abs(slope) < s.cfg.MinEMASlope {
			return false, fmt.Sprintf("EMA 50 flat (slope %.6f)", slope), adxValue, slope
		}
	}

	return true, "trend confirmed", adxValue, slope
}

func (s *TrendPullbackStrategy) emaSlope(ema50 []float64) float64 {
	if len(ema50) < s.cfg.SlopeLookback+1 {
		return 0
	}
	prev := ema50[len(ema50)-s.cfg.SlopeLookback]
	if prev == 0 {
		return 0
	}
	return (ema50[len(ema50)-1] - prev) / prev
}

// trendBias returns BULLISH, BEARISH or "" for the neutral zone around the
// slow EMA.
func (s *TrendPullbackStrategy) trendBias(price, ema200 float64) string {
	buffer := ema200 * 0.001
	if price > ema200+buffer {
		return "BULLISH"
	}
	if price < ema200-buffer {
		return "BEARISH"
	}
	return ""
}

// isPerfectOrder checks full EMA stacking in the trade direction.
func (s *TrendPullbackStrategy) isPerfectOrder(ema20, ema50, ema200 float64, direction string) bool {
	if direction == models.DirectionLong {
		return ema20 > ema50 && ema50 > ema200
	}
	return ema20 < ema50 && ema50 < ema200
}

// calculateLevels derives entry, stop and target. The stop distance comes
// from ATR when available, falling back to the candle extreme plus buffer.
func (s *TrendPullbackStrategy) calculateLevels(instrument string, current models.Candle, direction string, atrValue float64) (float64, float64, float64) {
	entry := current.Close

	var slDistance float64
	if s.cfg.UseATRSL && atrValue > 0 {
		slDistance = atrValue * s.cfg.ATRSLMultiplier
	} else {
		buffer := models.PipsToPrice(instrument, s.cfg.SLBufferPips)
		if direction == models.DirectionLong {
			slDistance = entry - (current.Low - buffer)
		} else {
			slDistance = (current.High + buffer) - entry
		}
	}

	var stopLoss, takeProfit float64
	if direction == models.DirectionLong {
		stopLoss = entry - slDistance
		takeProfit = entry + slDistance*s.cfg.RRRatio
	} else {
		stopLoss = entry + slDistance
		takeProfit = entry - slDistance*s.cfg.RRRatio
	}

	return models.RoundPrice(instrument, entry),
		models.RoundPrice(instrument, stopLoss),
		models.RoundPrice(instrument, takeProfit)
}
