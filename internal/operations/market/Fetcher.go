package market

import (
	"context"
	"time"

	"ForexTradeBot/internal/repositories"

	"go.uber.org/zap"
)

// Fetcher backfills historical candles into the database.
type Fetcher struct {
	client      *Client
	candleRepo  *repositories.CandleRepository
	instruments []string
	log         *zap.Logger
}

func NewFetcher(client *Client, candleRepo *repositories.CandleRepository, instruments []string, log *zap.Logger) *Fetcher {
	return &Fetcher{
		client:      client,
		candleRepo:  candleRepo,
		instruments: instruments,
		log:         log,
	}
}

// FetchHistory pulls the last days of candles for every configured
// instrument at the given granularity and persists them.
func (f *Fetcher) FetchHistory(ctx context.Context, granularity string, days int) error {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	for _, instrument := range f.instruments {
		candles, err := f.client.GetCandlesRange(ctx, instrument, granularity, start, end)
		if err != nil {
			f.log.Error("fetching candle history",
				zap.String("instrument", instrument),
				zap.String("granularity", granularity),
				zap.Error(err))
			continue
		}

		if err := f.candleRepo.CreateBatch(candles); err != nil {
			f.log.Error("saving candle history",
				zap.String("instrument", instrument),
				zap.Error(err))
			continue
		}

		f.log.Info("candle history stored",
			zap.String("instrument", instrument),
			zap.String("granularity", granularity),
			zap.Int("count", len(candles)),
			zap.Time("from", start),
			zap.Time("to", end))

		// Small delay between instruments to stay friendly to the API
		time.Sleep(100 * time.Millisecond)
	}

	return nil
}
