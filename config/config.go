package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	return &Config{
		Mode: envOrDefault("BOT_MODE", ModePaper),
		Exchange: ExchangeConfig{
			APIKey:    os.Getenv("EXCHANGE_API_KEY"),
			SecretKey: os.Getenv("EXCHANGE_SECRET_KEY"),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     EnvtoInt(os.Getenv("DB_PORT")),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Instruments: getInstruments(),
		Strategy: StrategyConfig{
			ID:               envOrDefault("STRATEGY_ID", "trend_pullback"),
			EntryGranularity: envOrDefault("ENTRY_GRANULARITY", "H1"),
			TrendGranularity: envOrDefault("TREND_GRANULARITY", "H4"),
			HistoryBars:      envIntOrDefault("HISTORY_BARS", 300),
		},
		Risk: RiskConfig{
			MaxDailyLossPercent:  envFloatOrDefault("RISK_MAX_DAILY_LOSS_PCT", 3.0),
			MaxDrawdownPercent:   envFloatOrDefault("RISK_MAX_DRAWDOWN_PCT", 10.0),
			MaxConsecutiveLosses: envIntOrDefault("RISK_MAX_CONSECUTIVE_LOSSES", 3),
			SizeReductionFactor:  envFloatOrDefault("RISK_SIZE_REDUCTION", 0.5),
			BaseRiskPercent:      envFloatOrDefault("RISK_BASE_PCT", 1.0),
			MaxAggregatePercent:  envFloatOrDefault("RISK_MAX_AGGREGATE_PCT", 3.0),
		},
		Trailing: TrailingConfig{
			DistancePips:   envFloatOrDefault("TRAILING_DISTANCE_PIPS", 30),
			ActivationPips: envFloatOrDefault("TRAILING_ACTIVATION_PIPS", 20),
		},
		Backtest: BacktestConfig{
			WarmupBars:    envIntOrDefault("BACKTEST_WARMUP_BARS", 200),
			MinConfidence: envFloatOrDefault("BACKTEST_MIN_CONFIDENCE", 0.5),
			HistoryDays:   envIntOrDefault("BACKTEST_HISTORY_DAYS", 365),
		},
		WalkForward: WalkForwardConfig{
			TrainBars: envIntOrDefault("WF_TRAIN_BARS", 500),
			TestBars:  envIntOrDefault("WF_TEST_BARS", 250),
			MinTrades: envIntOrDefault("WF_MIN_TRADES", 5),
			Workers:   envIntOrDefault("WF_WORKERS", 0),
		},
		CycleIntervalHours: envIntOrDefault("CYCLE_INTERVAL_HOURS", 4),
		PaperBalance:       envFloatOrDefault("PAPER_BALANCE", 10000),
	}, nil
}

// helper env(string) to int
func EnvtoInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envFloatOrDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// helper to get instruments
func getInstruments() []string {
	instruments := os.Getenv("TRADING_INSTRUMENTS")
	if instruments == "" {
		return []string{"EUR_USD", "GBP_USD", "USD_JPY"} // Default pairs if none specified
	}
	return strings.Split(instruments, ",")
}
