package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ForexTradeBot/config"
	"ForexTradeBot/internal/handlers"
	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/operations/backtest"
	"ForexTradeBot/internal/operations/market"
	"ForexTradeBot/internal/repositories"
	"ForexTradeBot/internal/services/analysis"
	"ForexTradeBot/internal/services/risk"
	"ForexTradeBot/internal/services/strategy"
	"ForexTradeBot/internal/services/trailing"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer zlog.Sync()

	// Setup database
	db := setupDatabase(cfg.Database)

	// Initialize repositories
	candleRepo := repositories.NewCandleRepository(db)
	positionRepo := repositories.NewPositionRepository(db)
	cycleRepo := repositories.NewCycleRepository(db)

	// Initialize exchange client
	client := market.NewClient(cfg.Exchange.APIKey, cfg.Exchange.SecretKey, zlog)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := strategy.DefaultRegistry()

	switch cfg.Mode {
	case config.ModeBacktest:
		runBacktest(ctx, cfg, client, candleRepo, registry, zlog)
		return
	case config.ModePaper:
		// continue below
	default:
		zlog.Fatal("unknown mode", zap.String("mode", cfg.Mode))
	}

	// Paper trading mode: backfill history, record live candles, and run
	// the trading cycle on schedule.
	priceHandler := handlers.NewPriceHandler(client, candleRepo, cfg.Instruments, cfg.Backtest.HistoryDays, zlog)
	if err := priceHandler.Start(ctx); err != nil {
		zlog.Fatal("starting price handler", zap.Error(err))
	}
	zlog.Info("candle recording started", zap.Strings("instruments", cfg.Instruments))

	broker := market.NewPaperBroker(cfg.PaperBalance, positionRepo, zlog)

	riskMgr := risk.NewRiskManager(cfg.Risk, cfg.Instruments, zlog)
	riskMgr.InitializeDay(cfg.PaperBalance)

	trailingSvc := trailing.NewTrailingStopService(cfg.Trailing.DistancePips, cfg.Trailing.ActivationPips, zlog)
	mtf := analysis.NewMultiTimeframeService(zlog)

	cycleHandler := handlers.NewCycleHandler(
		candleRepo, cycleRepo,
		registry, cfg.Strategy,
		mtf, riskMgr, trailingSvc,
		broker, broker,
		zlog,
	)

	go runScheduler(ctx, cfg, cycleHandler, zlog)

	// Handle shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	zlog.Info("shutting down")
	cancel()
	time.Sleep(time.Second * 2) // Give time for cleanup
	zlog.Info("shutdown complete")
}

// runScheduler fires a trading cycle for every instrument on the
// configured interval, starting with an immediate pass.
func runScheduler(ctx context.Context, cfg *config.Config, cycleHandler *handlers.CycleHandler, zlog *zap.Logger) {
	interval := time.Duration(cfg.CycleIntervalHours) * time.Hour
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runAll := func() {
		for _, instrument := range cfg.Instruments {
			go func(inst string) {
				if err := cycleHandler.RunCycle(ctx, inst, models.CycleTriggerScheduled); err != nil {
					zlog.Error("trading cycle failed", zap.String("instrument", inst), zap.Error(err))
				}
			}(instrument)
		}
	}

	runAll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runAll()
		}
	}
}

// runBacktest backfills history, replays the configured strategy over it,
// then runs the walk-forward analysis.
func runBacktest(ctx context.Context, cfg *config.Config, client *market.Client, candleRepo *repositories.CandleRepository, registry *strategy.Registry, zlog *zap.Logger) {
	fetcher := market.NewFetcher(client, candleRepo, cfg.Instruments, zlog)
	if err := fetcher.FetchHistory(ctx, cfg.Strategy.EntryGranularity, cfg.Backtest.HistoryDays); err != nil {
		zlog.Fatal("fetching backtest history", zap.Error(err))
	}

	btCfg := backtest.NewConfig("", cfg.Strategy.EntryGranularity)
	btCfg.WarmupBars = cfg.Backtest.WarmupBars
	btCfg.MinConfidence = cfg.Backtest.MinConfidence

	engine := backtest.NewEngine(candleRepo, registry, zlog)
	results, err := engine.Run(cfg.Strategy.ID, cfg.Instruments, cfg.Strategy.EntryGranularity, btCfg)
	if err != nil {
		zlog.Fatal("backtest failed", zap.Error(err))
	}

	fmt.Println("\n=== Backtest Results ===")
	for _, result := range results {
		fmt.Printf("\n%s (%s)\n", result.Instrument, result.StrategyID)
		fmt.Printf("Total Trades: %d\n", result.TotalTrades)
		fmt.Printf("Win Rate: %.2f%%\n", result.WinRate*100)
		fmt.Printf("Total Pips: %.1f\n", result.TotalPips)
		fmt.Printf("Profit Factor: %.2f\n", result.ProfitFactor)
		fmt.Printf("Max Drawdown: %.1f pips\n", result.MaxDrawdown)
	}

	// Walk-forward analysis over the same history
	wf := backtest.NewWalkForward(cfg.WalkForward, zlog)
	fmt.Println("\n=== Walk-Forward Analysis ===")
	for _, instrument := range cfg.Instruments {
		count, err := candleRepo.Count(instrument, cfg.Strategy.EntryGranularity)
		if err != nil {
			zlog.Error("counting candles", zap.String("instrument", instrument), zap.Error(err))
			continue
		}
		candles, err := candleRepo.GetCandles(instrument, cfg.Strategy.EntryGranularity, int(count))
		if err != nil {
			zlog.Error("loading candles", zap.String("instrument", instrument), zap.Error(err))
			continue
		}

		summary, err := wf.Run(instrument, candles)
		if err != nil {
			zlog.Warn("walk-forward skipped", zap.String("instrument", instrument), zap.Error(err))
			continue
		}

		fmt.Printf("\n%s: %d windows, consistency %.0f%%, avg test PF %.2f, %.1f pips\n",
			instrument, len(summary.Windows), summary.Consistency*100, summary.AvgTestPF, summary.TotalPips)
		for _, w := range summary.Windows {
			fmt.Printf("  window %d [%s -> %s] %s train PF %.2f test PF %.2f\n",
				w.Window,
				w.TestStart.Format("2006-01-02"),
				w.TestEnd.Format("2006-01-02"),
				w.BestParams.String(),
				w.Train.ProfitFactor,
				w.Test.ProfitFactor)
		}
	}
}

func setupDatabase(dbConfig config.DatabaseConfig) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto migrate database schemas
	err = db.AutoMigrate(&models.Candle{}, &models.Position{}, &models.TradingCycle{})
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	return db
}
