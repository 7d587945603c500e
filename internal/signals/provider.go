// Package signals fetches the macro and per-asset signals the allocator
// consumes, from an analysis-output directory or an upstream service.
package signals

import (
	"context"
	"fmt"

	"github.com/aristath/advisor/internal/domain"
)

// MacroProvider supplies the macro regime signal for a run
type MacroProvider interface {
	GetMacroSignal(ctx context.Context) (*domain.MacroSignal, error)
}

// AssetProvider supplies the signals of one asset class
type AssetProvider interface {
	GetAssetSignals(ctx context.Context, class domain.AssetClass) ([]domain.AssetSignal, error)
}

// SupplementProvider is implemented by providers that also report the
// optional inputs of a run (performance, current weights, sector signals).
type SupplementProvider interface {
	GetSupplement(ctx context.Context) (*Supplement, error)
}

// Provider is a source of every kind of signal
type Provider interface {
	MacroProvider
	AssetProvider
	SupplementProvider
}

// Supplement holds the optional inputs that accompany the signals.
// All returns and weights are percentages.
type Supplement struct {
	Performance    *domain.PerformanceStats                     `json:"performance,omitempty"`
	Benchmark      *domain.PerformanceStats                     `json:"benchmark,omitempty"`
	CurrentWeights map[domain.AssetClass]float64                `json:"current_weights,omitempty"`
	SectorSignals  map[string]float64                           `json:"sector_signals,omitempty"`
	ClassScenarios map[domain.AssetClass]domain.ScenarioReturns `json:"class_scenarios,omitempty"`
}

// ApplyTo copies the supplement into a signal set without overwriting
// values the set already has
func (s *Supplement) ApplyTo(set *domain.SignalSet) {
	if s == nil || set == nil {
		return
	}
	if set.Performance == nil && !s.Performance.Empty() {
		set.Performance = s.Performance
	}
	if set.Benchmark == nil && !s.Benchmark.Empty() {
		set.Benchmark = s.Benchmark
	}
	if set.CurrentWeights == nil && len(s.CurrentWeights) > 0 {
		set.CurrentWeights = s.CurrentWeights
	}
	if set.SectorSignals == nil {
		set.SectorSignals = make(map[string]float64, len(s.SectorSignals))
	}
	for sector, v := range s.SectorSignals {
		if _, ok := set.SectorSignals[sector]; !ok {
			set.SectorSignals[sector] = v
		}
	}
	if set.ClassScenarios == nil {
		set.ClassScenarios = make(map[domain.AssetClass]domain.ScenarioReturns, len(s.ClassScenarios))
	}
	for class, sc := range s.ClassScenarios {
		if _, ok := set.ClassScenarios[class]; !ok {
			set.ClassScenarios[class] = sc
		}
	}
}

// unavailable wraps a provider failure in domain.ErrSignalUnavailable
func unavailable(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", domain.ErrSignalUnavailable, what)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrSignalUnavailable, what, err)
}
