package backtest

import (
	"fmt"

	"ForexTradeBot/internal/repositories"
	"ForexTradeBot/internal/services/strategy"

	"go.uber.org/zap"
)

// Engine runs database-backed simulations across instruments.
type Engine struct {
	candleRepo *repositories.CandleRepository
	registry   *strategy.Registry
	log        *zap.Logger
}

func NewEngine(candleRepo *repositories.CandleRepository, registry *strategy.Registry, log *zap.Logger) *Engine {
	return &Engine{
		candleRepo: candleRepo,
		registry:   registry,
		log:        log,
	}
}

// Run simulates one strategy over the stored history of each instrument.
func (e *Engine) Run(strategyID string, instruments []string, granularity string, cfg Config) ([]*Result, error) {
	strt, err := e.registry.Get(strategyID)
	if err != nil {
		return nil, err
	}

	var results []*Result
	for _, instrument := range instruments {
		count, err := e.candleRepo.Count(instrument, granularity)
		if err != nil {
			return nil, fmt.Errorf("counting candles for %s: %w", instrument, err)
		}

		candles, err := e.candleRepo.GetCandles(instrument, granularity, int(count))
		if err != nil {
			return nil, fmt.Errorf("loading candles for %s: %w", instrument, err)
		}

		runCfg := cfg
		runCfg.Instrument = instrument
		runCfg.Granularity = granularity

		sim := NewSimulator(runCfg, strt)
		result, err := sim.Run(candles)
		if err != nil {
			e.log.Warn("skipping instrument",
				zap.String("instrument", instrument),
				zap.Error(err))
			continue
		}

		e.log.Info("backtest finished",
			zap.String("instrument", instrument),
			zap.String("strategy", strategyID),
			zap.Int("trades", result.TotalTrades),
			zap.Float64("win_rate", result.WinRate),
			zap.Float64("total_pips", result.TotalPips),
			zap.Float64("profit_factor", result.ProfitFactor),
			zap.Float64("max_drawdown_pips", result.MaxDrawdown))

		results = append(results, result)
	}

	return results, nil
}
