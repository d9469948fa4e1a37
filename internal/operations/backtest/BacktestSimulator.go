package backtest

import (
	"errors"
	"math"

	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/services/strategy"
)

// ErrInsufficientData is returned when the candle set cannot cover the
// warmup period.
var ErrInsufficientData = errors.New("not enough candles for simulation")

// Simulator replays candles through one strategy. On every bar an open
// trade's stop is checked before its target, so a bar that touches both
// counts as a loss. An opposite signal at or above the confidence floor
// closes the trade at the bar close and opens the reverse. Whatever is
// still open at the end of the data closes on the final bar.
type Simulator struct {
	cfg  Config
	strt strategy.Strategy

	open   *Trade
	trades []Trade
}

func NewSimulator(cfg Config, strt strategy.Strategy) *Simulator {
	return &Simulator{cfg: cfg, strt: strt}
}

// Run replays candles and returns the aggregated result.
func (s *Simulator) Run(candles []models.Candle) (*Result, error) {
	if len(candles) <= s.cfg.WarmupBars {
		return nil, ErrInsufficientData
	}

	s.open = nil
	s.trades = nil

	for i := s.cfg.WarmupBars; i < len(candles); i++ {
		candle := candles[i]

		if s.open != nil && s.checkExits(candle) {
			continue
		}

		sig := s.strt.GenerateSignal(s.cfg.Instrument, candles[:i+1])
		if sig.Direction == models.DirectionWait || sig.Confidence < s.cfg.MinConfidence {
			continue
		}

		if s.open != nil {
			if sig.Direction != s.open.Direction {
				s.closeTrade(candle, candle.Close, ExitSignalReverse)
				s.openTrade(candle, sig)
			}
			continue
		}

		s.openTrade(candle, sig)
	}

	if s.open != nil {
		last := candles[len(candles)-1]
		s.closeTrade(last, last.Close, ExitEndOfData)
	}

	return s.calculateResult(), nil
}

// checkExits applies stop and target levels to the bar. The stop is
// evaluated first. Returns true when the trade closed.
func (s *Simulator) checkExits(candle models.Candle) bool {
	trade := s.open
	if trade.Direction == models.DirectionLong {
		if candle.Low <= trade.StopLoss {
			s.closeTrade(candle, trade.StopLoss, ExitStopLoss)
			return true
		}
		if candle.High >= trade.TakeProfit {
			s.closeTrade(candle, trade.TakeProfit, ExitTakeProfit)
			return true
		}
		return false
	}

	if candle.High >= trade.StopLoss {
		s.closeTrade(candle, trade.StopLoss, ExitStopLoss)
		return true
	}
	if candle.Low <= trade.TakeProfit {
		s.closeTrade(candle, trade.TakeProfit, ExitTakeProfit)
		return true
	}
	return false
}

func (s *Simulator) openTrade(candle models.Candle, sig strategy.Signal) {
	if !s.inEntryWindow(candle) {
		return
	}

	entry := sig.EntryPrice
	if entry == 0 {
		entry = candle.Close
	}

	s.open = &Trade{
		Instrument: s.cfg.Instrument,
		Direction:  sig.Direction,
		EntryTime:  candle.Time,
		EntryPrice: entry,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		Confidence: sig.Confidence,
		IsOpen:     true,
	}
}

func (s *Simulator) inEntryWindow(candle models.Candle) bool {
	if !s.cfg.EntryStart.IsZero() && candle.Time.Before(s.cfg.EntryStart) {
		return false
	}
	if !s.cfg.EntryEnd.IsZero() && candle.Time.After(s.cfg.EntryEnd) {
		return false
	}
	return true
}

func (s *Simulator) closeTrade(candle models.Candle, exitPrice float64, reason string) {
	trade := s.open
	trade.ExitTime = candle.Time
	trade.ExitPrice = exitPrice
	trade.ExitReason = reason
	trade.IsOpen = false

	spread := s.cfg.SpreadPips
	if spread == 0 {
		spread = models.SpreadPips(s.cfg.Instrument)
	}

	move := exitPrice - trade.EntryPrice
	if trade.Direction == models.DirectionShort {
		move = trade.EntryPrice - exitPrice
	}
	trade.PnLPips = models.PriceToPips(s.cfg.Instrument, move) - spread

	s.trades = append(s.trades, *trade)
	s.open = nil
}

func (s *Simulator) calculateResult() *Result {
	result := &Result{
		Instrument: s.cfg.Instrument,
		StrategyID: s.strt.ID(),
		Trades:     s.trades,
	}

	if len(s.trades) == 0 {
		return result
	}

	totalWin := 0.0
	totalLoss := 0.0
	cumulative := 0.0
	peak := 0.0

	for _, trade := range s.trades {
		result.TotalTrades++
		if trade.PnLPips > 0 {
			result.Wins++
			totalWin += trade.PnLPips
		} else {
			result.Losses++
			totalLoss += math.Abs(trade.PnLPips)
		}
		result.TotalPips += trade.PnLPips

		cumulative += trade.PnLPips
		if cumulative > peak {
			peak = cumulative
		}
		if drawdown := peak - cumulative; drawdown > result.MaxDrawdown {
			result.MaxDrawdown = drawdown
		}
		result.EquityCurve = append(result.EquityCurve, EquityPoint{
			Timestamp: trade.ExitTime,
			Pips:      cumulative,
		})
	}

	result.WinRate = float64(result.Wins) / float64(result.TotalTrades)
	if result.Wins > 0 {
		result.AvgWinPips = totalWin / float64(result.Wins)
	}
	if result.Losses > 0 {
		result.AvgLossPips = totalLoss / float64(result.Losses)
	}
	if totalLoss > 0 {
		result.ProfitFactor = totalWin / totalLoss
	}

	return result
}
