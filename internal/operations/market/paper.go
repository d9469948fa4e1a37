package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaperBroker simulates order execution against marked prices. Fills
// happen at the last marked price plus half the standard spread; stop and
// target levels are checked on every mark.
type PaperBroker struct {
	mu        sync.Mutex
	balance   float64
	positions map[string]*models.Position
	marks     map[string]float64
	posRepo   *repositories.PositionRepository
	log       *zap.Logger
}

func NewPaperBroker(initialBalance float64, posRepo *repositories.PositionRepository, log *zap.Logger) *PaperBroker {
	return &PaperBroker{
		balance:   initialBalance,
		positions: make(map[string]*models.Position),
		marks:     make(map[string]float64),
		posRepo:   posRepo,
		log:       log,
	}
}

func (b *PaperBroker) GetBalance(ctx context.Context) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance, nil
}

// GetNAV is the balance plus unrealized PnL across open positions.
func (b *PaperBroker) GetNAV(ctx context.Context) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	nav := b.balance
	for instrument, pos := range b.positions {
		mark, ok := b.marks[instrument]
		if !ok {
			continue
		}
		nav += b.unrealizedLocked(pos, mark)
	}
	return nav, nil
}

func (b *PaperBroker) GetPositionUnits(ctx context.Context, instrument string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pos, ok := b.positions[instrument]
	if !ok {
		return 0, nil
	}
	if pos.Direction == models.DirectionShort {
		return -pos.Units, nil
	}
	return pos.Units, nil
}

// MarkPrice feeds a price tick into the simulation. If the tick crosses an
// open position's stop or target the position is closed at that level and
// the fill is returned; otherwise nil.
func (b *PaperBroker) MarkPrice(instrument string, price float64) *OrderResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.marks[instrument] = price

	pos, ok := b.positions[instrument]
	if !ok {
		return nil
	}

	long := pos.Direction == models.DirectionLong
	switch {
	case pos.StopLoss > 0 && ((long && price <= pos.StopLoss) || (!long && price >= pos.StopLoss)):
		return b.closeLocked(pos, pos.StopLoss)
	case pos.TakeProfit > 0 && ((long && price >= pos.TakeProfit) || (!long && price <= pos.TakeProfit)):
		return b.closeLocked(pos, pos.TakeProfit)
	}
	return nil
}

func (b *PaperBroker) PlaceMarketOrder(ctx context.Context, instrument, direction string, units int, stopLoss, takeProfit float64) (*OrderResult, error) {
	if direction != models.DirectionLong && direction != models.DirectionShort {
		return nil, fmt.Errorf("invalid direction %q", direction)
	}
	if units <= 0 {
		return nil, fmt.Errorf("invalid units %d", units)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, open := b.positions[instrument]; open {
		return &OrderResult{Error: fmt.Sprintf("position already open on %s", instrument)}, nil
	}

	mark, ok := b.marks[instrument]
	if !ok {
		return nil, fmt.Errorf("no price marked for %s", instrument)
	}

	// Cross the spread on entry
	half := models.PipsToPrice(instrument, models.SpreadPips(instrument)/2)
	fill := mark + half
	if direction == models.DirectionShort {
		fill = mark - half
	}
	fill = models.RoundPrice(instrument, fill)

	pos := &models.Position{
		TradeID:    uuid.NewString(),
		Instrument: instrument,
		Direction:  direction,
		Units:      units,
		EntryPrice: fill,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		OpenTime:   time.Now(),
		Status:     models.PositionStatusOpen,
	}
	b.positions[instrument] = pos

	if b.posRepo != nil {
		if err := b.posRepo.Create(pos); err != nil {
			b.log.Error("saving paper position", zap.Error(err))
		}
	}

	b.log.Info("paper order filled",
		zap.String("instrument", instrument),
		zap.String("direction", direction),
		zap.Int("units", units),
		zap.Float64("price", fill),
		zap.String("trade_id", pos.TradeID))

	return &OrderResult{Success: true, TradeID: pos.TradeID, Price: fill}, nil
}

func (b *PaperBroker) ClosePosition(ctx context.Context, instrument string) (*OrderResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pos, ok := b.positions[instrument]
	if !ok {
		return &OrderResult{Error: fmt.Sprintf("no open position on %s", instrument)}, nil
	}

	mark, ok := b.marks[instrument]
	if !ok {
		return nil, fmt.Errorf("no price marked for %s", instrument)
	}
	return b.closeLocked(pos, mark), nil
}

func (b *PaperBroker) ModifyStop(ctx context.Context, tradeID string, stopLoss float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, pos := range b.positions {
		if pos.TradeID == tradeID {
			pos.StopLoss = stopLoss
			if b.posRepo != nil {
				if err := b.posRepo.Update(pos); err != nil {
					b.log.Error("updating paper position stop", zap.Error(err))
				}
			}
			return nil
		}
	}
	return fmt.Errorf("no open position with trade id %s", tradeID)
}

func (b *PaperBroker) unrealizedLocked(pos *models.Position, price float64) float64 {
	diff := price - pos.EntryPrice
	if pos.Direction == models.DirectionShort {
		diff = pos.EntryPrice - price
	}
	return diff * float64(pos.Units)
}

func (b *PaperBroker) closeLocked(pos *models.Position, price float64) *OrderResult {
	pnl := b.unrealizedLocked(pos, price)
	b.balance += pnl

	pos.Status = models.PositionStatusClosed
	pos.CloseTime = time.Now()
	pos.PnL = pnl
	delete(b.positions, pos.Instrument)

	if b.posRepo != nil {
		if err := b.posRepo.Update(pos); err != nil {
			b.log.Error("saving closed paper position", zap.Error(err))
		}
	}

	b.log.Info("paper position closed",
		zap.String("instrument", pos.Instrument),
		zap.Float64("price", price),
		zap.Float64("pnl", pnl),
		zap.String("trade_id", pos.TradeID))

	return &OrderResult{Success: true, TradeID: pos.TradeID, Price: price, PnL: pnl}
}
