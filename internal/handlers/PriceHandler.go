package handlers

import (
	"context"

	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/operations/market"
	"ForexTradeBot/internal/repositories"

	"go.uber.org/zap"
)

type PriceHandler struct {
	candleRepo  *repositories.CandleRepository
	client      *market.Client
	recorder    *market.Recorder
	fetcher     *market.Fetcher
	instruments []string
	historyDays int
	log         *zap.Logger
}

func NewPriceHandler(client *market.Client, candleRepo *repositories.CandleRepository, instruments []string, historyDays int, log *zap.Logger) *PriceHandler {
	return &PriceHandler{
		candleRepo:  candleRepo,
		client:      client,
		instruments: instruments,
		historyDays: historyDays,
		fetcher:     market.NewFetcher(client, candleRepo, instruments, log),
		log:         log,
	}
}

func (h *PriceHandler) Start(ctx context.Context) error {
	h.recorder = market.NewRecorder(h.client, h.candleRepo, h.instruments, h.log)

	// Backfill history before live recording begins
	if err := h.fetchHistoricalData(ctx); err != nil {
		return err
	}

	go h.recorder.StartRecording(ctx)

	return nil
}

func (h *PriceHandler) fetchHistoricalData(ctx context.Context) error {
	granularityDays := map[string]int{
		models.GranularityM5: 7,
		models.GranularityH1: h.historyDays,
		models.GranularityH4: h.historyDays,
		models.GranularityD:  h.historyDays,
	}

	for granularity, days := range granularityDays {
		h.log.Info("fetching candle history",
			zap.String("granularity", granularity),
			zap.Int("days", days))

		if err := h.fetcher.FetchHistory(ctx, granularity, days); err != nil {
			return err
		}
	}

	return nil
}
