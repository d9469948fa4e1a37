package trailing

import (
	"fmt"
	"sync"
	"time"

	"ForexTradeBot/internal/models"

	"go.uber.org/zap"
)

// State is the trailing record for one open position.
type State struct {
	Instrument           string
	Direction            string
	EntryPrice           float64
	CurrentStop          float64
	BestPrice            float64
	TrailingDistancePips float64
	ActivationPips       float64
	Activated            bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// UpdateResult reports what a price tick did to a trailing stop.
type UpdateResult struct {
	ShouldClose bool
	StopUpdated bool
	NewStop     float64
	ProfitPips  float64
	Activated   bool
}

// TrailingStopService ratchets protective stops behind open positions.
// The stop seeds at the trailing distance from entry and stays put until
// price moves the activation distance into profit; from then on it follows
// the best price at the trailing distance, only ever tightening. A stop
// touch is terminal for the state.
type TrailingStopService struct {
	mu             sync.Mutex
	stops          map[string]*State
	distancePips   float64
	activationPips float64
	log            *zap.Logger
}

func NewTrailingStopService(distancePips, activationPips float64, log *zap.Logger) *TrailingStopService {
	return &TrailingStopService{
		stops:          make(map[string]*State),
		distancePips:   distancePips,
		activationPips: activationPips,
		log:            log,
	}
}

// Start begins trailing a position. An existing state for the instrument is
// replaced.
func (s *TrailingStopService) Start(instrument, direction string, entryPrice float64) (*State, error) {
	if direction != models.DirectionLong && direction != models.DirectionShort {
		return nil, fmt.Errorf("invalid direction %q", direction)
	}

	distance := models.PipsToPrice(instrument, s.distancePips)
	stop := entryPrice - distance
	if direction == models.DirectionShort {
		stop = entryPrice + distance
	}

	now := time.Now()
	state := &State{
		Instrument:           instrument,
		Direction:            direction,
		EntryPrice:           entryPrice,
		CurrentStop:          models.RoundPrice(instrument, stop),
		BestPrice:            entryPrice,
		TrailingDistancePips: s.distancePips,
		ActivationPips:       s.activationPips,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	s.mu.Lock()
	s.stops[instrument] = state
	s.mu.Unlock()

	s.log.Info("trailing stop started",
		zap.String("instrument", instrument),
		zap.String("direction", direction),
		zap.Float64("entry", entryPrice),
		zap.Float64("stop", state.CurrentStop))
	return state, nil
}

// Update processes a price tick for instrument. It returns nil when no
// trailing state exists.
func (s *TrailingStopService) Update(instrument string, price float64) *UpdateResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.stops[instrument]
	if !ok {
		return nil
	}

	long := state.Direction == models.DirectionLong
	profit := price - state.EntryPrice
	if !long {
		profit = state.EntryPrice - price
	}
	profitPips := models.PriceToPips(instrument, profit)

	result := &UpdateResult{
		ProfitPips: profitPips,
		NewStop:    state.CurrentStop,
	}

	// Stop touch ends the trail.
	if (long && price <= state.CurrentStop) || (!long && price >= state.CurrentStop) {
		result.ShouldClose = true
		result.Activated = state.Activated
		delete(s.stops, instrument)
		s.log.Info("trailing stop hit",
			zap.String("instrument", instrument),
			zap.Float64("price", price),
			zap.Float64("stop", state.CurrentStop))
		return result
	}

	if (long && price > state.BestPrice) || (!long && price < state.BestPrice) {
		state.BestPrice = price
	}

	if !state.Activated && profitPips >= state.ActivationPips {
		state.Activated = true
		s.log.Info("trailing stop activated",
			zap.String("instrument", instrument),
			zap.Float64("profit_pips", profitPips))
	}
	result.Activated = state.Activated

	if state.Activated {
		distance := models.PipsToPrice(instrument, state.TrailingDistancePips)
		candidate := state.BestPrice - distance
		if !long {
			candidate = state.BestPrice + distance
		}
		candidate = models.RoundPrice(instrument, candidate)

		// Only ever tighten.
		if (long && candidate > state.CurrentStop) || (!long && candidate < state.CurrentStop) {
			state.CurrentStop = candidate
			result.StopUpdated = true
			result.NewStop = candidate
		}
	}

	state.UpdatedAt = time.Now()
	return result
}

// Stop removes the trailing state for instrument.
func (s *TrailingStopService) Stop(instrument string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stops, instrument)
}

// Get returns a copy of the trailing state, or nil if none exists.
func (s *TrailingStopService) Get(instrument string) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.stops[instrument]
	if !ok {
		return nil
	}
	copied := *state
	return &copied
}

// Active lists instruments currently being trailed.
func (s *TrailingStopService) Active() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.stops))
	for inst := range s.stops {
		out = append(out, inst)
	}
	return out
}
