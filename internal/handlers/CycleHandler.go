package handlers

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"ForexTradeBot/config"
	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/operations/market"
	"ForexTradeBot/internal/repositories"
	"ForexTradeBot/internal/services/analysis"
	"ForexTradeBot/internal/services/risk"
	"ForexTradeBot/internal/services/strategy"
	"ForexTradeBot/internal/services/trailing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Broker is the account and execution surface the cycle needs.
type Broker interface {
	market.AccountProvider
	market.OrderExecutor
}

// CycleHandler runs the evaluate -> confirm -> gate -> execute pass for
// one instrument at a time and persists an append-only TradingCycle
// record for every run. Cycles for the same instrument never overlap;
// different instruments run independently.
type CycleHandler struct {
	candleRepo *repositories.CandleRepository
	cycleRepo  *repositories.CycleRepository

	registry    *strategy.Registry
	strategyCfg config.StrategyConfig

	mtf         *analysis.MultiTimeframeService
	riskMgr     *risk.RiskManager
	trailingSvc *trailing.TrailingStopService

	broker Broker
	marker market.PriceMarker // nil for brokers with server-side fills

	log *zap.Logger

	mu         sync.Mutex
	locks      map[string]*sync.Mutex
	openTrades map[string]string // instrument -> trade id
}

func NewCycleHandler(
	candleRepo *repositories.CandleRepository,
	cycleRepo *repositories.CycleRepository,
	registry *strategy.Registry,
	strategyCfg config.StrategyConfig,
	mtf *analysis.MultiTimeframeService,
	riskMgr *risk.RiskManager,
	trailingSvc *trailing.TrailingStopService,
	broker Broker,
	marker market.PriceMarker,
	log *zap.Logger,
) *CycleHandler {
	return &CycleHandler{
		candleRepo:  candleRepo,
		cycleRepo:   cycleRepo,
		registry:    registry,
		strategyCfg: strategyCfg,
		mtf:         mtf,
		riskMgr:     riskMgr,
		trailingSvc: trailingSvc,
		broker:      broker,
		marker:      marker,
		log:         log,
		locks:       make(map[string]*sync.Mutex),
		openTrades:  make(map[string]string),
	}
}

func (h *CycleHandler) instrumentLock(instrument string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	lock, ok := h.locks[instrument]
	if !ok {
		lock = &sync.Mutex{}
		h.locks[instrument] = lock
	}
	return lock
}

// RunCycle executes one full decision pass for an instrument.
func (h *CycleHandler) RunCycle(ctx context.Context, instrument, trigger string) error {
	lock := h.instrumentLock(instrument)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	cycle := &models.TradingCycle{
		CycleID:    uuid.NewString(),
		Timestamp:  start,
		Instrument: instrument,
		Trigger:    trigger,
	}
	defer func() {
		cycle.ExecutionMS = time.Since(start).Milliseconds()
		if err := h.cycleRepo.Create(cycle); err != nil {
			h.log.Error("saving cycle record", zap.Error(err))
		}
	}()

	entryCandles, err := h.candleRepo.GetCandles(instrument, h.strategyCfg.EntryGranularity, h.strategyCfg.HistoryBars)
	if err != nil || len(entryCandles) == 0 {
		if err == nil {
			err = market.ErrDataUnavailable
		}
		cycle.Action = models.CycleActionFailed
		cycle.Error = err.Error()
		return err
	}

	price := entryCandles[len(entryCandles)-1].Close
	cycle.Price = price

	// Feed the tick to simulated brokers; a fill here is a stop or
	// target being hit.
	if h.marker != nil {
		if fill := h.marker.MarkPrice(instrument, price); fill != nil && fill.Success {
			h.handleClose(ctx, instrument, fill, cycle)
			return nil
		}
	}

	// Ratchet the trailing stop before anything else.
	if res := h.trailingSvc.Update(instrument, price); res != nil {
		if res.ShouldClose {
			fill, err := h.broker.ClosePosition(ctx, instrument)
			if err != nil {
				cycle.Action = models.CycleActionFailed
				cycle.Error = err.Error()
				return err
			}
			h.handleClose(ctx, instrument, fill, cycle)
			return nil
		}
		if res.StopUpdated {
			if tradeID, ok := h.tradeID(instrument); ok {
				if err := h.broker.ModifyStop(ctx, tradeID, res.NewStop); err != nil {
					h.log.Error("moving stop", zap.String("instrument", instrument), zap.Error(err))
				}
			}
		}
	}

	units, err := h.broker.GetPositionUnits(ctx, instrument)
	if err != nil {
		cycle.Action = models.CycleActionFailed
		cycle.Error = err.Error()
		return err
	}
	if units != 0 {
		cycle.Action = models.CycleActionSkipped
		cycle.SignalReason = "position already open"
		return nil
	}

	strt, err := h.registry.Get(h.strategyCfg.ID)
	if err != nil {
		cycle.Action = models.CycleActionFailed
		cycle.Error = err.Error()
		return err
	}

	sig := strt.GenerateSignal(instrument, entryCandles)
	cycle.SignalDirection = sig.Direction
	cycle.SignalConfidence = sig.Confidence
	cycle.SignalReason = sig.Reason
	cycle.Regime = sig.Regime
	cycle.StrategyUsed = sig.StrategyUsed
	cycle.EMA20 = sig.EMA20
	cycle.EMA50 = sig.EMA50
	cycle.ADX = sig.ADX
	cycle.ATR = sig.ATR

	if sig.Direction == models.DirectionWait {
		cycle.Action = models.CycleActionSkipped
		return nil
	}

	trendCandles, err := h.candleRepo.GetCandles(instrument, h.strategyCfg.TrendGranularity, h.strategyCfg.HistoryBars)
	if err != nil {
		cycle.Action = models.CycleActionFailed
		cycle.Error = err.Error()
		return err
	}

	confirmed := h.mtf.Confirm(instrument, entryCandles, trendCandles)
	cycle.MTFConfirmed = confirmed.Confirmed
	cycle.MTFConfidence = confirmed.Confidence
	if confirmed.Entry != nil {
		cycle.RSI = confirmed.Entry.RSI14
	}

	if !confirmed.Confirmed || confirmed.Signal != sig.Direction {
		cycle.Action = models.CycleActionBlocked
		cycle.RiskReason = fmt.Sprintf("timeframes not aligned: %s", confirmed.Reason)
		return nil
	}

	balance, err := h.broker.GetBalance(ctx)
	if err != nil {
		cycle.Action = models.CycleActionFailed
		cycle.Error = err.Error()
		return err
	}
	h.riskMgr.UpdateBalance(balance)

	slPips := models.PriceToPips(instrument, math.Abs(sig.EntryPrice-sig.StopLoss))
	size := h.riskMgr.CalculatePositionSize(balance, slPips, models.PipSize(instrument))
	if !size.CanTrade {
		cycle.Action = models.CycleActionBlocked
		cycle.RiskReason = size.Reason
		return nil
	}

	gate := h.riskMgr.CanOpenPosition(instrument, size.RiskPercent)
	cycle.RiskAllowed = gate.Allowed
	cycle.RiskReason = gate.Reason
	if !gate.Allowed {
		cycle.Action = models.CycleActionBlocked
		return nil
	}

	result, err := h.broker.PlaceMarketOrder(ctx, instrument, sig.Direction, size.Units, sig.StopLoss, sig.TakeProfit)
	if err != nil {
		cycle.Action = models.CycleActionFailed
		cycle.Error = err.Error()
		return err
	}
	if !result.Success {
		cycle.Action = models.CycleActionFailed
		cycle.Error = result.Error
		return fmt.Errorf("order rejected: %s", result.Error)
	}

	h.riskMgr.RegisterPosition(instrument, size.RiskPercent)
	if _, err := h.trailingSvc.Start(instrument, sig.Direction, result.Price); err != nil {
		h.log.Error("starting trailing stop", zap.String("instrument", instrument), zap.Error(err))
	}
	h.setTradeID(instrument, result.TradeID)

	cycle.Action = models.CycleActionOpened
	cycle.TradeID = result.TradeID

	h.log.Info("position opened",
		zap.String("instrument", instrument),
		zap.String("direction", sig.Direction),
		zap.Int("units", size.Units),
		zap.Float64("entry", result.Price),
		zap.Float64("stop_loss", sig.StopLoss),
		zap.Float64("take_profit", sig.TakeProfit),
		zap.Float64("confidence", sig.Confidence),
		zap.String("trade_id", result.TradeID))

	return nil
}

// handleClose settles the bookkeeping after a position closed.
func (h *CycleHandler) handleClose(ctx context.Context, instrument string, fill *market.OrderResult, cycle *models.TradingCycle) {
	h.riskMgr.RecordTrade(fill.PnL)
	h.riskMgr.ClosePosition(instrument)
	h.trailingSvc.Stop(instrument)
	h.clearTradeID(instrument)

	if balance, err := h.broker.GetBalance(ctx); err == nil {
		h.riskMgr.UpdateBalance(balance)
	}

	cycle.Action = models.CycleActionClosed
	cycle.TradeID = fill.TradeID
	cycle.PnL = fill.PnL

	h.log.Info("position closed",
		zap.String("instrument", instrument),
		zap.Float64("price", fill.Price),
		zap.Float64("pnl", fill.PnL),
		zap.String("trade_id", fill.TradeID))
}

func (h *CycleHandler) tradeID(instrument string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id, ok := h.openTrades[instrument]
	return id, ok
}

func (h *CycleHandler) setTradeID(instrument, tradeID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.openTrades[instrument] = tradeID
}

func (h *CycleHandler) clearTradeID(instrument string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.openTrades, instrument)
}
