// Package portfolio builds the complete portfolio recommendation from an
// investor profile and the gathered signals.
package portfolio

import (
	"fmt"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/allocation"
	"github.com/aristath/advisor/internal/modules/holdings"
	"github.com/aristath/advisor/internal/modules/rebalancing"
	"github.com/aristath/advisor/internal/modules/scenarios"
	"github.com/rs/zerolog"
)

// Config groups the tunables of every allocator stage
type Config struct {
	Policy    allocation.PolicyConfig `yaml:"policy"`
	Rebalance rebalancing.Thresholds  `yaml:"rebalance"`
	Holdings  holdings.Options        `yaml:"holdings"`
}

// DefaultConfig returns the default configuration of every stage
func DefaultConfig() Config {
	return Config{
		Policy:    allocation.DefaultPolicyConfig(),
		Rebalance: rebalancing.DefaultThresholds(),
		Holdings:  holdings.DefaultOptions(),
	}
}

// Validate validates every stage's configuration
func (c *Config) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if err := c.Rebalance.Validate(); err != nil {
		return fmt.Errorf("rebalance: %w", err)
	}
	if err := c.Holdings.Validate(); err != nil {
		return fmt.Errorf("holdings: %w", err)
	}
	return nil
}

// Allocator converts a profile and a signal set into a PortfolioRecommendation.
// It holds no mutable state and is safe for concurrent use.
type Allocator struct {
	engine     *allocation.Engine
	rebalancer *rebalancing.Generator
	selector   *holdings.Selector
	now        func() time.Time
	log        zerolog.Logger
}

// NewAllocator validates the config and wires the allocator stages
func NewAllocator(cfg Config, log zerolog.Logger) (*Allocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid allocator config: %w", err)
	}
	return &Allocator{
		engine:     allocation.NewEngine(cfg.Policy, log),
		rebalancer: rebalancing.NewGenerator(cfg.Rebalance, log),
		selector:   holdings.NewSelector(cfg.Holdings, log),
		now:        time.Now,
		log:        log.With().Str("component", "allocator").Logger(),
	}, nil
}

// SetClock replaces the clock used for GeneratedAt
func (a *Allocator) SetClock(now func() time.Time) {
	a.now = now
}

// Engine exposes the policy weight engine
func (a *Allocator) Engine() *allocation.Engine {
	return a.engine
}

// BuildRecommendation runs the allocator pipeline. current holds the
// current weights in percent per class and may be nil, in which case the
// weights reported by upstream analysis (if any) are used.
//
// Errors are limited to an invalid profile, an unrecognized risk tolerance
// and ErrWeightSumInvariant; missing signals only produce warnings.
func (a *Allocator) BuildRecommendation(profile domain.UserProfile, signals *domain.SignalSet, current map[domain.AssetClass]float64) (*domain.PortfolioRecommendation, error) {
	profile = profile.Normalize()
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	profile = a.selector.Resolver().Reconcile(profile)
	if signals == nil {
		signals = domain.NewSignalSet()
	}
	if current == nil {
		current = signals.CurrentWeights
	}

	var warnings []domain.Warning
	if signals.Macro == nil {
		warnings = append(warnings, domain.Warning{
			Code:    domain.WarningMacroUnavailable,
			Message: "macro signal unavailable; no tilt applied and equity scenarios default to 0%",
		})
	}

	policy, err := a.engine.PolicyWeights(profile, signals.Macro)
	if err != nil {
		return nil, fmt.Errorf("failed to compute policy weights: %w", err)
	}

	classHoldings, holdingWarnings := a.selector.Select(profile, signals)
	warnings = append(warnings, holdingWarnings...)

	rec := &domain.PortfolioRecommendation{
		Profile:       profile,
		Macro:         macroSummary(signals.Macro, policy.Tilt),
		BaseWeights:   policy.Base,
		PolicyWeights: policy.Weights,
		HorizonBand:   policy.Band,
		Rebalance:     a.rebalancer.Generate(current, policy.Weights),
		Holdings:      classHoldings,
		Scenarios:     scenarios.Aggregate(policy.Weights, scenarios.ClassReturns(signals)),
		SectorTilts:   a.selector.SectorTilts(profile, signals),
		Warnings:      warnings,
		Performance:   signals.Performance,
		Benchmark:     signals.Benchmark,
	}
	if rec.Warnings == nil {
		rec.Warnings = []domain.Warning{}
	}
	rec.Narrative = BuildNarrative(rec, signals.Macro)
	rec.GeneratedAt = a.now().UTC()

	a.log.Info().
		Str("profile_id", profile.ProfileID).
		Str("risk", string(profile.RiskTolerance)).
		Float64("equity", rec.PolicyWeights.Equity).
		Float64("bond", rec.PolicyWeights.Bond).
		Float64("cash", rec.PolicyWeights.Cash).
		Int("warnings", len(rec.Warnings)).
		Msg("Recommendation built")

	return rec, nil
}

func macroSummary(macro *domain.MacroSignal, tilt float64) domain.MacroSummary {
	if macro == nil {
		return domain.MacroSummary{}
	}
	return domain.MacroSummary{
		Available:   true,
		Bias:        macro.Bias,
		Confidence:  macro.Confidence,
		TiltApplied: tilt,
	}
}
