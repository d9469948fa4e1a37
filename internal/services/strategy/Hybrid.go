package strategy

import (
	"fmt"
	"math"

	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/services/indicators"
)

// HybridConfig holds the tunables of the regime-switching strategy.
type HybridConfig struct {
	// ADX switch
	ADXSwitchThreshold float64
	ADXPeriod          int

	// Breakout sub-strategy
	RangePeriod          int
	BreakoutATRPeriod    int
	BreakoutSLMultiplier float64
	BreakoutExtension    float64

	// MACD sub-strategy
	MACDFast         int
	MACDSlow         int
	MACDSignal       int
	EMATrendPeriod   int
	MACDATRPeriod    int
	MACDSLMultiplier float64
	MACDRiskReward   float64
}

func DefaultHybridConfig() HybridConfig {
	return HybridConfig{
		ADXSwitchThreshold:   30,
		ADXPeriod:            14,
		RangePeriod:          30,
		BreakoutATRPeriod:    14,
		BreakoutSLMultiplier: 1.5,
		BreakoutExtension:    1.5,
		MACDFast:             12,
		MACDSlow:             26,
		MACDSignal:           9,
		EMATrendPeriod:       200,
		MACDATRPeriod:        14,
		MACDSLMultiplier:     1.5,
		MACDRiskReward:       2.5,
	}
}

// HybridStrategy switches between a Donchian breakout play and a
// MACD+EMA200 trend play based on the ADX reading: below the switch
// threshold the market is consolidating and breakouts are traded, at or
// above it MACD crossovers are traded. Exactly one sub-strategy is
// evaluated per bar.
type HybridStrategy struct {
	cfg      HybridConfig
	ema      *indicators.EMAService
	adx      *indicators.ADXService
	atr      *indicators.ATRService
	macd     *indicators.MACDService
	donchian *indicators.DonchianService
}

func NewHybridStrategy(cfg HybridConfig) *HybridStrategy {
	return &HybridStrategy{
		cfg:      cfg,
		ema:      indicators.NewEMAService(),
		adx:      indicators.NewADXService(),
		atr:      indicators.NewATRService(),
		macd:     indicators.NewMACDService(),
		donchian: indicators.NewDonchianService(),
	}
}

func (s *HybridStrategy) ID() string {
	return "hybrid"
}

func (s *HybridStrategy) GenerateSignal(instrument string, candles []models.Candle) Signal {
	required := s.cfg.EMATrendPeriod
	if s.cfg.RangePeriod > required {
		required = s.cfg.RangePeriod
	}
	required += 10
	if len(candles) < required {
		return waitSignal(fmt.Sprintf("insufficient history (%d < %d)", len(candles), required))
	}

	closes := models.Closes(candles)
	highs := models.Highs(candles)
	lows := models.Lows(candles)

	atrPeriod := s.cfg.BreakoutATRPeriod
	if s.cfg.MACDATRPeriod > atrPeriod {
		atrPeriod = s.cfg.MACDATRPeriod
	}

	adxValue := s.adx.Last(highs, lows, closes, s.cfg.ADXPeriod)
	atrValues := s.atr.Calculate(highs, lows, closes, atrPeriod)
	if atrValues == nil {
		return waitSignal("indicators not ready")
	}
	atrValue := atrValues[len(atrValues)-1]

	if math.IsNaN(adxValue) || math.IsNaN(atrValue) {
		return waitSignal("indicators not ready")
	}

	if adxValue < s.cfg.ADXSwitchThreshold {
		return s.breakoutSignal(instrument, closes, highs, lows, adxValue, atrValue)
	}
	return s.macdSignal(instrument, closes, adxValue, atrValue)
}

// breakoutSignal trades a close beyond the prior Donchian range.
func (s *HybridStrategy) breakoutSignal(instrument string, closes, highs, lows []float64, adxValue, atrValue float64) Signal {
	sig := Signal{
		Direction:    models.DirectionWait,
		Regime:       RegimeConsolidation,
		StrategyUsed: "breakout",
		ADX:          adxValue,
		ATR:          atrValue,
	}

	channel := s.donchian.Calculate(highs, lows, s.cfg.RangePeriod)
	if channel == nil {
		sig.Reason = "indicators not ready"
		return sig
	}

	last := len(closes) - 1
	upper := channel.Upper[last]
	lower := channel.Lower[last]
	rangeSize := channel.RangeSize(last)
	if math.IsNaN(upper) || math.IsNaN(rangeSize) {
		sig.Reason = "indicators not ready"
		return sig
	}

	close := closes[last]

	switch {
	case close > upper:
		sig.Direction = models.DirectionLong
		sig.EntryPrice = models.RoundPrice(instrument, close)
		sig.StopLoss = models.RoundPrice(instrument, close-atrValue*s.cfg.BreakoutSLMultiplier)
		sig.TakeProfit = models.RoundPrice(instrument, close+rangeSize*s.cfg.BreakoutExtension)
		sig.Confidence = 0.6
		sig.Reason = fmt.Sprintf("bullish breakout (ADX %.1f)", adxValue)

	case close < lower:
		sig.Direction = models.DirectionShort
		sig.EntryPrice = models.RoundPrice(instrument, close)
		sig.StopLoss = models.RoundPrice(instrument, close+atrValue*s.cfg.BreakoutSLMultiplier)
		sig.TakeProfit = models.RoundPrice(instrument, close-rangeSize*s.cfg.BreakoutExtension)
		sig.Confidence = 0.6
		sig.Reason = fmt.Sprintf("bearish breakout (ADX %.1f)", adxValue)

	default:
		sig.Reason = "consolidation - waiting for breakout"
	}

	return sig
}

// macdSignal trades MACD crossovers aligned with the EMA200 trend filter.
func (s *HybridStrategy) macdSignal(instrument string, closes []float64, adxValue, atrValue float64) Signal {
	sig := Signal{
		Direction:    models.DirectionWait,
		Regime:       RegimeTrending,
		StrategyUsed: "macd",
		ADX:          adxValue,
		ATR:          atrValue,
	}

	macdRes := s.macd.Calculate(closes, s.cfg.MACDFast, s.cfg.MACDSlow, s.cfg.MACDSignal)
	ema200 := s.ema.Calculate(closes, s.cfg.EMATrendPeriod)
	if macdRes == nil || ema200 == nil {
		sig.Reason = "indicators not ready"
		return sig
	}

	last := len(closes) - 1
	price := closes[last]
	trendEMA := ema200[last]
	sig.EMA200 = trendEMA
	sig.MACD = macdRes.MACD[last]

	slDistance := atrValue * s.cfg.MACDSLMultiplier

	switch {
	case macdRes.CrossUp() && price > trendEMA:
		sig.Direction = models.DirectionLong
		sig.EntryPrice = models.RoundPrice(instrument, price)
		sig.StopLoss = models.RoundPrice(instrument, price-slDistance)
		sig.TakeProfit = models.RoundPrice(instrument, price+slDistance*s.cfg.MACDRiskReward)
		sig.Confidence = math.Min(0.8, 0.5+adxValue/100)
		sig.Reason = fmt.Sprintf("MACD bullish cross above EMA200 (ADX %.1f)", adxValue)

	case macdRes.CrossDown() && price < trendEMA:
		sig.Direction = models.DirectionShort
		sig.EntryPrice = models.RoundPrice(instrument, price)
		sig.StopLoss = models.RoundPrice(instrument, price+slDistance)
		sig.TakeProfit = models.RoundPrice(instrument, price-slDistance*s.cfg.MACDRiskReward)
		sig.Confidence = math.Min(0.8, 0.5+adxValue/100)
		sig.Reason = fmt.Sprintf("MACD bearish cross below EMA200 (ADX %.1f)", adxValue)

	default:
		sig.Reason = "trending - waiting for MACD crossover"
	}

	return sig
}
