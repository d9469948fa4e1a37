package analysis

import (
	"fmt"
	"math"

	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/services/indicators"

	"go.uber.org/zap"
)

const mtfMinCandles = 50

// MultiTimeframeService confirms a signal across two timeframes: the
// faster one times the entry, the slower one confirms the trend.
type MultiTimeframeService struct {
	ema    *indicators.EMAService
	rsi    *indicators.RSIService
	logger *zap.Logger
}

func NewMultiTimeframeService(logger *zap.Logger) *MultiTimeframeService {
	return &MultiTimeframeService{
		ema:    indicators.NewEMAService(),
		rsi:    indicators.NewRSIService(),
		logger: logger,
	}
}

// AnalyzeTimeframe classifies one timeframe from EMA20/EMA50 alignment and
// RSI bounds. Returns nil when there is not enough history.
func (s *MultiTimeframeService) AnalyzeTimeframe(granularity string, candles []models.Candle) *TimeframeReading {
	if len(candles) < mtfMinCandles {
		return nil
	}

	prices := models.Closes(candles)

	ema20 := s.ema.Calculate(prices, 20)
	ema50 := s.ema.Calculate(prices, 50)
	rsi := s.rsi.Calculate(prices, 14)
	if ema20 == nil || ema50 == nil || rsi == nil {
		return nil
	}

	price := prices[len(prices)-1]
	currEMA20 := ema20[len(ema20)-1]
	currEMA50 := ema50[len(ema50)-1]
	currRSI := rsi[len(rsi)-1]

	// Trend strength from EMA separation as % of price, normalized to 0-100
	emaDistance := math.Abs(currEMA20-currEMA50) / price * 100
	trendStrength := math.Min(emaDistance*50, 100)

	signal := SignalHold
	aligned := false

	if currEMA20 > currEMA50 && currRSI < 70 {
		signal = SignalLong
		aligned = true
	} else if currEMA20 < currEMA50 && currRSI > 30 {
		signal = SignalShort
		aligned = true
	}

	return &TimeframeReading{
		Granularity:   granularity,
		Signal:        signal,
		EMA20:         currEMA20,
		EMA50:         currEMA50,
		RSI14:         currRSI,
		TrendStrength: trendStrength,
		Aligned:       aligned,
	}
}

// Confirm cross-checks the entry and trend timeframes. Both must agree on
// a non-HOLD direction for the signal to be confirmed.
func (s *MultiTimeframeService) Confirm(instrument string, entry, trend []models.Candle) ConfirmedSignal {
	result := ConfirmedSignal{
		Instrument: instrument,
		Signal:     SignalHold,
	}

	entryReading := s.AnalyzeTimeframe(models.GranularityH1, entry)
	trendReading := s.AnalyzeTimeframe(models.GranularityH4, trend)
	result.Entry = entryReading
	result.Trend = trendReading

	if entryReading == nil || trendReading == nil {
		result.Reason = "Insufficient data for analysis"
		return result
	}

	switch {
	case entryReading.Signal == trendReading.Signal && entryReading.Signal != SignalHold:
		result.Signal = entryReading.Signal
		result.Confirmed = true
		result.Confidence = s.confidence(entryReading, trendReading)
		result.Reason = fmt.Sprintf("H1 and H4 aligned: %s", entryReading.Signal)
		s.logger.Info("multi-timeframe confirmed",
			zap.String("instrument", instrument),
			zap.String("signal", result.Signal),
			zap.Int("confidence", result.Confidence))

	case trendReading.Signal != SignalHold && entryReading.Signal == SignalHold:
		result.Confidence = 30
		result.Reason = fmt.Sprintf("H4 shows %s but H1 not aligned - waiting", trendReading.Signal)

	case entryReading.Signal != trendReading.Signal:
		result.Confidence = 20
		result.Reason = fmt.Sprintf("Conflicting signals: H1=%s, H4=%s", entryReading.Signal, trendReading.Signal)

	default:
		result.Reason = "No clear signal on either timeframe"
	}

	return result
}

// DailyTrend classifies the higher-timeframe context: BULLISH, BEARISH or
// NEUTRAL. Used for overall direction, never for entries.
func (s *MultiTimeframeService) DailyTrend(daily []models.Candle) string {
	reading := s.AnalyzeTimeframe(models.GranularityD, daily)
	if reading == nil {
		return "NEUTRAL"
	}
	switch reading.Signal {
	case SignalLong:
		return "BULLISH"
	case SignalShort:
		return "BEARISH"
	}
	return "NEUTRAL"
}

// confidence = base 60 + trend-strength bonus (max 20) + RSI-alignment
// bonus (15 in the 45-55 band, 10 in 40-60), capped at 95.
func (s *MultiTimeframeService) confidence(entry, trend *TimeframeReading) int {
	base := 60.0

	avgStrength := (entry.TrendStrength + trend.TrendStrength) / 2
	strengthBonus := math.Min(avgStrength*0.3, 20)

	rsiBonus := 0.0
	if inBand(entry.RSI14, 45, 55) && inBand(trend.RSI14, 45, 55) {
		rsiBonus = 15
	} else if inBand(entry.RSI14, 40, 60) && inBand(trend.RSI14, 40, 60) {
		rsiBonus = 10
	}

	conf := int(base + strengthBonus + rsiBonus)
	if conf > 95 {
		conf = 95
	}
	return conf
}

func inBand(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
