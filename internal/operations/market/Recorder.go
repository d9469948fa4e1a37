package market

import (
	"context"
	"time"

	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/repositories"

	"go.uber.org/zap"
)

// Recorder keeps the candle store current by polling each granularity on
// its own bar interval and persisting the last completed candle.
type Recorder struct {
	client      *Client
	candleRepo  *repositories.CandleRepository
	instruments []string
	log         *zap.Logger
}

func NewRecorder(client *Client, candleRepo *repositories.CandleRepository, instruments []string, log *zap.Logger) *Recorder {
	return &Recorder{
		client:      client,
		candleRepo:  candleRepo,
		instruments: instruments,
		log:         log,
	}
}

// StartRecording launches one recording loop per granularity.
func (r *Recorder) StartRecording(ctx context.Context) {
	granularities := []string{
		models.GranularityM5,
		models.GranularityH1,
		models.GranularityH4,
		models.GranularityD,
	}

	for _, granularity := range granularities {
		go r.recordGranularity(ctx, granularity, granularityDurations[granularity])
	}
}

func (r *Recorder) recordGranularity(ctx context.Context, granularity string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.Info("candle recording started", zap.String("granularity", granularity))

	for {
		select {
		case <-ctx.Done():
			r.log.Info("candle recording stopped", zap.String("granularity", granularity))
			return
		case <-ticker.C:
			r.recordCandles(ctx, granularity)
		}
	}
}

func (r *Recorder) recordCandles(ctx context.Context, granularity string) {
	for _, instrument := range r.instruments {
		// Fetch two bars so the last completed one is always included
		candles, err := r.client.GetCandles(ctx, instrument, granularity, 2)
		if err != nil {
			r.log.Error("fetching candle",
				zap.String("instrument", instrument),
				zap.String("granularity", granularity),
				zap.Error(err))
			continue
		}

		for _, candle := range candles {
			if !candle.Complete {
				continue
			}

			latest, err := r.candleRepo.GetLatest(instrument, granularity)
			if err == nil && latest != nil && !candle.Time.After(latest.Time) {
				continue // already stored
			}

			stored := candle
			if err := r.candleRepo.Create(&stored); err != nil {
				r.log.Error("saving candle",
					zap.String("instrument", instrument),
					zap.String("granularity", granularity),
					zap.Error(err))
				continue
			}

			r.log.Info("candle recorded",
				zap.String("instrument", instrument),
				zap.String("granularity", granularity),
				zap.Time("time", candle.Time),
				zap.Float64("close", candle.Close))
		}
	}
}
