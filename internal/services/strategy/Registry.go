package strategy

import (
	"fmt"
	"sort"
	"sync"
)

// Registry keys strategies by identifier so the active one is selected by
// configuration instead of branching.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register adds or replaces a strategy under its ID.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.ID()] = s
}

// Get returns the strategy registered under id.
func (r *Registry) Get(id string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[id]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s", id)
	}
	return s, nil
}

// IDs lists registered strategy identifiers, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.strategies))
	for id := range r.strategies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DefaultRegistry registers the shipping strategies with their default
// configurations.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewTrendPullbackStrategy(DefaultTrendPullbackConfig()))
	r.Register(NewHybridStrategy(DefaultHybridConfig()))
	r.Register(NewAdaptiveStrategy(DefaultAdaptiveConfig()))
	r.Register(NewTrendMACDStrategy(DefaultTrendMACDConfig()))
	return r
}
