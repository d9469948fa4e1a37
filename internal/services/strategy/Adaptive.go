package strategy

import (
	"fmt"
	"math"
	"strings"

	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/services/indicators"
)

// AdaptiveConfig holds the tunables of the regime-detecting strategy.
type AdaptiveConfig struct {
	ADXPeriod            int
	ADXTrendingThreshold float64

	ATRPeriod       int
	ATRSLMultiplier float64
	RRRatio         float64

	MACDFast   int
	MACDSlow   int
	MACDSignal int

	EMAPeriod int

	// Regime detection
	VolatilityLookback       int
	HighVolatilityPercentile float64
	LowVolatilityPercentile  float64

	// Regime policies; disabled by default after multi-year validation
	// showed them unprofitable
	TradeRanging  bool
	TradeQuiet    bool
	TradeVolatile bool
}

func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		ADXPeriod:                14,
		ADXTrendingThreshold:     25.0,
		ATRPeriod:                14,
		ATRSLMultiplier:          2.0,
		RRRatio:                  2.5,
		MACDFast:                 12,
		MACDSlow:                 26,
		MACDSignal:               9,
		EMAPeriod:                200,
		VolatilityLookback:       60,
		HighVolatilityPercentile: 70.0,
		LowVolatilityPercentile:  30.0,
	}
}

// AdaptiveStrategy classifies the market into TRENDING, RANGING, VOLATILE
// or QUIET from ADX and the ATR percentile, then applies the per-regime
// policy. Only TRENDING trades by default: MACD crossovers filtered by
// EMA200 and the prior MACD sign.
type AdaptiveStrategy struct {
	cfg  AdaptiveConfig
	ema  *indicators.EMAService
	adx  *indicators.ADXService
	atr  *indicators.ATRService
	macd *indicators.MACDService
}

func NewAdaptiveStrategy(cfg AdaptiveConfig) *AdaptiveStrategy {
	return &AdaptiveStrategy{
		cfg:  cfg,
		ema:  indicators.NewEMAService(),
		adx:  indicators.NewADXService(),
		atr:  indicators.NewATRService(),
		macd: indicators.NewMACDService(),
	}
}

func (s *AdaptiveStrategy) ID() string {
	return "adaptive"
}

func (s *AdaptiveStrategy) GenerateSignal(instrument string, candles []models.Candle) Signal {
	required := s.cfg.EMAPeriod + 50
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
	percentiles := s.atr.Percentile(atrValues, s.cfg.VolatilityLookback)
	if percentiles == nil {
		return waitSignal("indicators not ready")
	}

	last := len(closes) - 1
	atrValue := atrValues[last]
	atrPercentile := percentiles[last]

	if math.IsNaN(adxValue) || math.IsNaN(atrPercentile) {
		return waitSignal("indicators not ready")
	}

	regime := s.detectRegime(adxValue, atrPercentile)

	sig := Signal{
		Direction: models.DirectionWait,
		Regime:    regime,
		ADX:       adxValue,
		ATR:       atrValue,
	}

	switch {
	case regime == RegimeTrending:
		return s.trendingSignal(instrument, closes, sig)

	case regime == RegimeRanging && s.cfg.TradeRanging:
		// Mean reversion lost money in multi-year backtests; kept off.
		sig.StrategyUsed = "mean_rev_disabled"
		sig.Reason = "RANGING - mean reversion disabled"
		return sig

	case regime == RegimeQuiet && s.cfg.TradeQuiet:
		sig.Reason = "QUIET regime - waiting for breakout"
		return sig

	case regime == RegimeVolatile && s.cfg.TradeVolatile:
		sig.Reason = "VOLATILE regime - reduced position size recommended"
		return sig

	default:
		sig.Reason = fmt.Sprintf("%s regime - no trading", strings.ToUpper(regime))
		return sig
	}
}

// detectRegime classifies the bar from trend strength and volatility rank.
func (s *AdaptiveStrategy) detectRegime(adxValue, atrPercentile float64) string {
	// High volatility without trend is dangerous
	if atrPercentile > s.cfg.HighVolatilityPercentile && adxValue < s.cfg.ADXTrendingThreshold {
		return RegimeVolatile
	}
	// Low volatility without trend means waiting for a breakout
	if atrPercentile < s.cfg.LowVolatilityPercentile && adxValue < 20 {
		return RegimeQuiet
	}
	if adxValue >= s.cfg.ADXTrendingThreshold {
		return RegimeTrending
	}
	return RegimeRanging
}

// trendingSignal trades MACD crossovers with the EMA200 filter plus a
// prior-sign filter: longs only when MACD crosses up from negative
// territory, shorts only from positive.
func (s *AdaptiveStrategy) trendingSignal(instrument string, closes []float64, sig Signal) Signal {
	sig.StrategyUsed = "trend_macd"

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

	slDistance := sig.ATR * s.cfg.ATRSLMultiplier

	switch {
	case macdRes.CrossUp() && price > trendEMA && prevMACD < 0:
		sig.Direction = models.DirectionLong
		sig.EntryPrice = models.RoundPrice(instrument, price)
		sig.StopLoss = models.RoundPrice(instrument, price-slDistance)
		sig.TakeProfit = models.RoundPrice(instrument, price+slDistance*s.cfg.RRRatio)
		sig.Confidence = math.Min(0.8, 0.5+sig.ADX/100)
		sig.Reason = fmt.Sprintf("TRENDING LONG: MACD cross up, price above EMA200, ADX %.1f", sig.ADX)

	case macdRes.CrossDown() && price < trendEMA && prevMACD > 0:
		sig.Direction = models.DirectionShort
		sig.EntryPrice = models.RoundPrice(instrument, price)
		sig.StopLoss = models.RoundPrice(instrument, price+slDistance)
		sig.TakeProfit = models.RoundPrice(instrument, price-slDistance*s.cfg.RRRatio)
		sig.Confidence = math.Min(0.8, 0.5+sig.ADX/100)
		sig.Reason = fmt.Sprintf("TRENDING SHORT: MACD cross down, price below EMA200, ADX %.1f", sig.ADX)

	default:
		sig.Reason = "TRENDING - waiting for MACD crossover"
	}

	return sig
}
