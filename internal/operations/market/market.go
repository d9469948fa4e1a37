package market

import (
	"context"
	"errors"

	"ForexTradeBot/internal/models"
)

// ErrDataUnavailable is returned when the venue has no candles for a
// requested instrument and granularity.
var ErrDataUnavailable = errors.New("market data unavailable")

// Quote is a two-sided price snapshot.
type Quote struct {
	Instrument string
	Bid        float64
	Ask        float64
	Mid        float64
	SpreadPips float64
}

// OrderResult reports the outcome of an order operation.
type OrderResult struct {
	Success bool
	TradeID string
	Price   float64
	PnL     float64
	Error   string
}

// MarketDataProvider serves historical and live candles.
type MarketDataProvider interface {
	GetCandles(ctx context.Context, instrument, granularity string, count int) ([]models.Candle, error)
}

// PricingProvider serves current quotes.
type PricingProvider interface {
	GetQuote(ctx context.Context, instrument string) (*Quote, error)
}

// AccountProvider exposes account state.
type AccountProvider interface {
	GetBalance(ctx context.Context) (float64, error)
	GetNAV(ctx context.Context) (float64, error)
	GetPositionUnits(ctx context.Context, instrument string) (int, error)
}

// PriceMarker accepts price ticks for brokers that simulate fills. A
// non-nil result is a position closed by the tick crossing its stop or
// target.
type PriceMarker interface {
	MarkPrice(instrument string, price float64) *OrderResult
}

// OrderExecutor places and manages orders.
type OrderExecutor interface {
	PlaceMarketOrder(ctx context.Context, instrument, direction string, units int, stopLoss, takeProfit float64) (*OrderResult, error)
	ClosePosition(ctx context.Context, instrument string) (*OrderResult, error)
	ModifyStop(ctx context.Context, tradeID string, stopLoss float64) error
}
