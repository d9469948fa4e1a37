package backtest

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"ForexTradeBot/config"
	"ForexTradeBot/internal/models"
	"ForexTradeBot/internal/services/strategy"

	"go.uber.org/zap"
)

// ErrNoViableParams is returned when no parameter set produced the
// minimum number of trades on a training window.
var ErrNoViableParams = errors.New("no parameter set met the minimum trade count")

// ParamSet is one candidate from the optimization grid.
type ParamSet struct {
	ADXThreshold float64
	ATRSLMult    float64
	RRRatio      float64
	MACDFast     int
	MACDSlow     int
}

func (p ParamSet) String() string {
	return fmt.Sprintf("adx=%.0f sl=%.1f rr=%.1f macd=%d/%d",
		p.ADXThreshold, p.ATRSLMult, p.RRRatio, p.MACDFast, p.MACDSlow)
}

// Grid enumerates every parameter combination searched per window.
func Grid() []ParamSet {
	adxThresholds := []float64{20, 25, 30}
	slMults := []float64{1.5, 2.0, 2.5}
	rrRatios := []float64{2.0, 2.5, 3.0}
	macdFasts := []int{8, 12}
	macdSlows := []int{21, 26}

	var grid []ParamSet
	for _, adx := range adxThresholds {
		for _, sl := range slMults {
			for _, rr := range rrRatios {
				for _, fast := range macdFasts {
					for _, slow := range macdSlows {
						grid = append(grid, ParamSet{
							ADXThreshold: adx,
							ATRSLMult:    sl,
							RRRatio:      rr,
							MACDFast:     fast,
							MACDSlow:     slow,
						})
					}
				}
			}
		}
	}
	return grid
}

// WindowResult is the outcome of one train/test split.
type WindowResult struct {
	Window     int
	TrainStart time.Time
	TrainEnd   time.Time
	TestStart  time.Time
	TestEnd    time.Time
	BestParams ParamSet
	Train      *Result
	Test       *Result
}

// Summary aggregates all windows of a walk-forward run.
type Summary struct {
	Instrument  string
	Windows     []WindowResult
	Consistency float64 // fraction of windows with test profit factor >= 1.0
	AvgTestPF   float64
	TotalPips   float64
}

// walkForwardWarmup covers the slowest indicator (EMA 200) plus margin.
const walkForwardWarmup = 250

// WalkForward rolls an optimize-then-verify split over the candle
// history: the grid is searched on each training window and the winning
// parameters are replayed once on the unseen test window that follows.
// Test simulations see the training tail only as indicator warmup; no
// entries open before the test window starts.
type WalkForward struct {
	cfg config.WalkForwardConfig
	log *zap.Logger
}

func NewWalkForward(cfg config.WalkForwardConfig, log *zap.Logger) *WalkForward {
	return &WalkForward{cfg: cfg, log: log}
}

// Run executes the analysis over one instrument's candle history.
func (w *WalkForward) Run(instrument string, candles []models.Candle) (*Summary, error) {
	windowSize := w.cfg.TrainBars + w.cfg.TestBars
	if len(candles) < windowSize {
		return nil, ErrInsufficientData
	}

	summary := &Summary{Instrument: instrument}
	window := 0

	for start := 0; start+windowSize <= len(candles); start += w.cfg.TestBars {
		window++
		train := candles[start : start+w.cfg.TrainBars]
		test := candles[start+w.cfg.TrainBars : start+windowSize]

		best, trainResult, err := w.optimize(instrument, train)
		if err != nil {
			if errors.Is(err, ErrNoViableParams) {
				w.log.Warn("window skipped",
					zap.String("instrument", instrument),
					zap.Int("window", window),
					zap.Error(err))
				continue
			}
			return nil, err
		}

		testResult, err := w.evaluate(instrument, best, train, test)
		if err != nil {
			return nil, err
		}

		w.log.Info("walk-forward window",
			zap.String("instrument", instrument),
			zap.Int("window", window),
			zap.String("params", best.String()),
			zap.Float64("train_pf", trainResult.ProfitFactor),
			zap.Float64("test_pf", testResult.ProfitFactor),
			zap.Float64("test_pips", testResult.TotalPips))

		summary.Windows = append(summary.Windows, WindowResult{
			Window:     window,
			TrainStart: train[0].Time,
			TrainEnd:   train[len(train)-1].Time,
			TestStart:  test[0].Time,
			TestEnd:    test[len(test)-1].Time,
			BestParams: best,
			Train:      trainResult,
			Test:       testResult,
		})
	}

	if len(summary.Windows) == 0 {
		return nil, ErrNoViableParams
	}

	consistent := 0
	pfSum := 0.0
	for _, wr := range summary.Windows {
		if wr.Test.ProfitFactor >= 1.0 {
			consistent++
		}
		pfSum += wr.Test.ProfitFactor
		summary.TotalPips += wr.Test.TotalPips
	}
	summary.Consistency = float64(consistent) / float64(len(summary.Windows))
	summary.AvgTestPF = pfSum / float64(len(summary.Windows))

	return summary, nil
}

type gridOutcome struct {
	order  int // position in Grid(), the final tie-break
	params ParamSet
	result *Result
}

// beats ranks candidates by profit factor, then total pips, then grid
// order, so the winner does not depend on worker scheduling.
func (o gridOutcome) beats(other *gridOutcome) bool {
	if other == nil {
		return true
	}
	if o.result.ProfitFactor != other.result.ProfitFactor {
		return o.result.ProfitFactor > other.result.ProfitFactor
	}
	if o.result.TotalPips != other.result.TotalPips {
		return o.result.TotalPips > other.result.TotalPips
	}
	return o.order < other.order
}

// optimize searches the grid on the training window with a worker pool
// and returns the parameter set with the highest profit factor among
// those clearing the minimum trade count.
func (w *WalkForward) optimize(instrument string, train []models.Candle) (ParamSet, *Result, error) {
	workers := w.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	paramChan := make(chan gridOutcome)
	resultChan := make(chan gridOutcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for candidate := range paramChan {
				result, err := w.simulate(instrument, candidate.params, train, time.Time{})
				if err != nil {
					continue
				}
				candidate.result = result
				resultChan <- candidate
			}
		}()
	}

	go func() {
		for i, params := range Grid() {
			paramChan <- gridOutcome{order: i, params: params}
		}
		close(paramChan)
		wg.Wait()
		close(resultChan)
	}()

	var best *gridOutcome
	for outcome := range resultChan {
		if outcome.result.TotalTrades < w.cfg.MinTrades {
			continue
		}
		if outcome.beats(best) {
			o := outcome
			best = &o
		}
	}

	if best == nil {
		return ParamSet{}, nil, ErrNoViableParams
	}
	return best.params, best.result, nil
}

// evaluate replays the winning parameters on the test window. The tail of
// the training window is prepended as indicator warmup, and the entry
// window keeps the simulation from trading on training bars.
func (w *WalkForward) evaluate(instrument string, params ParamSet, train, test []models.Candle) (*Result, error) {
	warmupStart := len(train) - walkForwardWarmup
	if warmupStart < 0 {
		warmupStart = 0
	}

	slice := make([]models.Candle, 0, len(train)-warmupStart+len(test))
	slice = append(slice, train[warmupStart:]...)
	slice = append(slice, test...)

	return w.simulate(instrument, params, slice, test[0].Time)
}

func (w *WalkForward) simulate(instrument string, params ParamSet, candles []models.Candle, entryStart time.Time) (*Result, error) {
	strategyCfg := strategy.DefaultTrendMACDConfig()
	strategyCfg.ADXThreshold = params.ADXThreshold
	strategyCfg.ATRSLMultiplier = params.ATRSLMult
	strategyCfg.RRRatio = params.RRRatio
	strategyCfg.MACDFast = params.MACDFast
	strategyCfg.MACDSlow = params.MACDSlow

	cfg := Config{
		Instrument:    instrument,
		WarmupBars:    walkForwardWarmup,
		MinConfidence: 0.5,
		EntryStart:    entryStart,
	}

	sim := NewSimulator(cfg, strategy.NewTrendMACDStrategy(strategyCfg))
	return sim.Run(candles)
}
