package config

type Config struct {
	Mode        string
	Exchange    ExchangeConfig
	Database    DatabaseConfig
	Instruments []string

	Strategy    StrategyConfig
	Risk        RiskConfig
	Trailing    TrailingConfig
	Backtest    BacktestConfig
	WalkForward WalkForwardConfig

	CycleIntervalHours int
	PaperBalance       float64
}

type ExchangeConfig struct {
	APIKey    string
	SecretKey string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type StrategyConfig struct {
	ID               string // trend_pullback, hybrid, adaptive, trend_macd
	EntryGranularity string // granularity used for signal generation
	TrendGranularity string // granularity used for multi-timeframe confirmation
	HistoryBars      int    // candles loaded per evaluation
}

type RiskConfig struct {
	MaxDailyLossPercent  float64
	MaxDrawdownPercent   float64
	MaxConsecutiveLosses int
	SizeReductionFactor  float64
	BaseRiskPercent      float64
	MaxAggregatePercent  float64
}

type TrailingConfig struct {
	DistancePips   float64
	ActivationPips float64
}

type BacktestConfig struct {
	WarmupBars    int
	MinConfidence float64
	HistoryDays   int
}

type WalkForwardConfig struct {
	TrainBars int
	TestBars  int
	MinTrades int
	Workers   int // 0 means runtime.NumCPU
}

// Mode values
const (
	ModePaper    = "paper"
	ModeBacktest = "backtest"
)
