package strategy

import (
	"fmt"
	"math"

	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/services/indicators"
)

// TrendMACDConfig holds the tunables of the MACD trend-following core.
// This is the parameter surface the walk-forward optimizer searches.
type TrendMACDConfig struct {
	ADXThreshold float64
	ADXPeriod    int

	ATRPeriod       int
	ATRSLMultiplier float64
	RRRatio         float64

	MACDFast   int
	MACDSlow   int
	MACDSignal int

	EMAPeriod int
}

func DefaultTrendMACDConfig() TrendMACDConfig {
	return TrendMACDConfig{
		ADXThreshold:    25.0,
		ADXPeriod:       14,
		ATRPeriod:       14,
		ATRSLMultiplier: 2.0,
		RRRatio:         2.5,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		EMAPeriod:       200,
	}
}

// TrendMACDStrategy is the bare MACD+EMA200 trend core: entries only in
// strong trends (ADX gate), MACD crossover aligned with the EMA200 filter
// and the prior MACD sign, ATR-scaled stop with a fixed risk:reward. The
// adaptive strategy wraps the same core behind regime detection; the
// walk-forward optimizer grid-searches this one directly.
type TrendMACDStrategy struct {
	cfg  TrendMACDConfig
	ema  *indicators.EMAService
	adx  *indicators.ADXService
	atr  *indicators.ATRService
	macd *indicators.MACDService
}

func NewTrendMACDStrategy(cfg TrendMACDConfig) *TrendMACDStrategy {
	return &TrendMACDStrategy{
		cfg:  cfg,
		ema:  indicators.NewEMAService(),
		adx:  indicators.NewADXService(),
		atr:  indicators.NewATRService(),
		macd: indicators.NewMACDService(),
	}
}

func (s *TrendMACDStrategy) ID() string {
	return "trend_macd"
}

func (s *TrendMACDStrategy) GenerateSignal(instrument string, candles []models.Candle) Signal {
	required := s.cfg.EMAPeriod + 10
	if len(candles) < required {
		return waitSignal(fmt.Sprintf("insufficient history (%d < %d)", len(candles), required))
	}

	closes := models.Closes(candles)
	highs := models.Highs(candles)
	lows := models.Lows(candles)

	adxValue := s.adx.Last(highs, lows, closes, s.cfg.ADXPeriod)
	atrValues := s.atr.Calculate(highs, lows, closes, s.cfg.ATRPeriod)
	if atrValues == nil {
		return waitSignal("indicators not ready")
	}
	atrValue := atrValues[len(atrValues)-1]

	if math.IsNaN(adxValue) || math.IsNaN(atrValue) {
		return waitSignal("indicators not ready")
	}

	sig := Signal{
		Direction:    models.DirectionWait,
		StrategyUsed: s.ID(),
		ADX:          adxValue,
		ATR:          atrValue,
	}

	if adxValue < s.cfg.ADXThreshold {
		sig.Reason = fmt.Sprintf("ADX %.1f below threshold %.1f", adxValue, s.cfg.ADXThreshold)
		return sig
	}

	macdRes := s.macd.Calculate(closes, s.cfg.MACDFast, s.cfg.MACDSlow, s.cfg.MACDSignal)
	ema200 := s.ema.Calculate(closes, s.cfg.EMAPeriod)
	if macdRes == nil || ema200 == nil {
		sig.Reason = "indicators not ready"
		return sig
	}

	last := len(closes) - 1
	price := closes[last]
	trendEMA := ema200[last]
	prevMACD := macdRes.MACD[last-1]
	sig.EMA200 = trendEMA
	sig.MACD = macdRes.MACD[last]

	slDistance := atrValue * s.cfg.ATRSLMultiplier

	switch {
	case macdRes.CrossUp() && price > trendEMA && prevMACD < 0:
		sig.Direction = models.DirectionLong
		sig.EntryPrice = models.RoundPrice(instrument, price)
		sig.StopLoss = models.RoundPrice(instrument, price-slDistance)
		sig.TakeProfit = models.RoundPrice(instrument, price+slDistance*s.cfg.RRRatio)
		sig.Confidence = math.Min(0.8, 0.5+adxValue/100)
		sig.Reason = fmt.Sprintf("MACD cross up from negative, price above EMA200, ADX %.1f", adxValue)

	case macdRes.CrossDown() && price < trendEMA && prevMACD > 0:
		sig.Direction = models.DirectionShort
		sig.EntryPrice = models.RoundPrice(instrument, price)
		sig.StopLoss = models.RoundPrice(instrument, price+slDistance)
		sig.TakeProfit = models.RoundPrice(instrument, price-slDistance*s.cfg.RRRatio)
		sig.Confidence = math.Min(0.8, 0.5+adxValue/100)
		sig.Reason = fmt.Sprintf("MACD cross down from positive, price below EMA200, ADX %.1f", adxValue)

	default:
		sig.Reason = "waiting for MACD crossover"
	}

	return sig
}
