package domain

import (
	"fmt"
	"math"
	"time"
)

// WeightSumTolerance is the allowed deviation of a policy weight sum from 100%
const WeightSumTolerance = 0.01

// PolicyWeights holds target weights (%) per policy class
type PolicyWeights struct {
	Equity float64 `json:"Equity" yaml:"equity" msgpack:"equity"`
	Bond   float64 `json:"Bond" yaml:"bond" msgpack:"bond"`
	Cash   float64 `json:"Cash" yaml:"cash" msgpack:"cash"`
}

// Get returns the weight of a class (0 for classes without a policy weight)
func (w PolicyWeights) Get(class AssetClass) float64 {
	switch class {
	case AssetClassEquity:
		return w.Equity
	case AssetClassBond:
		return w.Bond
	case AssetClassCash:
		return w.Cash
	}
	return 0
}

// Sum returns the total of all weights
func (w PolicyWeights) Sum() float64 {
	return w.Equity + w.Bond + w.Cash
}

// Check verifies the weights are non-negative and sum to 100 ± WeightSumTolerance
func (w PolicyWeights) Check() error {
	if w.Equity < 0 || w.Bond < 0 || w.Cash < 0 {
		return fmt.Errorf("%w: negative weight in %+v", ErrWeightSumInvariant, w)
	}
	if math.Abs(w.Sum()-100) > WeightSumTolerance {
		return fmt.Errorf("%w: sum is %.4f", ErrWeightSumInvariant, w.Sum())
	}
	return nil
}

// RebalanceOrder is the fixed order in which rebalancing instructions are emitted
var RebalanceOrder = []AssetClass{AssetClassEquity, AssetClassCash, AssetClassBond}

// Direction is the rebalancing direction for a class
type Direction string

const (
	DirectionIncrease Direction = "Increase"
	DirectionDecrease Direction = "Decrease"
	DirectionHold     Direction = "Hold"
)

// Magnitude qualifies the size of a rebalancing move
type Magnitude string

const (
	MagnitudeMinor    Magnitude = "minor"
	MagnitudeMeasured Magnitude = "measured"
	MagnitudeDecisive Magnitude = "decisive"
)

// RebalanceInstruction moves one class from its current weight toward target
type RebalanceInstruction struct {
	AssetClass AssetClass `json:"asset_class" msgpack:"asset_class"`
	Current    float64    `json:"current_weight" msgpack:"current_weight"`
	Target     float64    `json:"target_weight" msgpack:"target_weight"`
	Delta      float64    `json:"delta" msgpack:"delta"`
	Direction  Direction  `json:"direction" msgpack:"direction"`
	Magnitude  Magnitude  `json:"magnitude" msgpack:"magnitude"`
	Narrative  string     `json:"narrative" msgpack:"narrative"`
}

// ClassHoldings is the ranked top-N list for one asset class
type ClassHoldings struct {
	AssetClass AssetClass    `json:"asset_class" msgpack:"asset_class"`
	Holdings   []AssetSignal `json:"holdings" msgpack:"holdings"`

	// Eligible is the number of signals left after sector filtering
	Eligible int `json:"eligible" msgpack:"eligible"`

	// Excluded is the number of signals dropped by sector exclusion
	Excluded int `json:"excluded" msgpack:"excluded"`

	// OverweightTickers lists holdings in an included sector
	OverweightTickers []string `json:"overweight_tickers,omitempty" msgpack:"overweight_tickers"`
}

// ScenarioResult is the portfolio return under one scenario
type ScenarioResult struct {
	Scenario       Scenario `json:"scenario" msgpack:"scenario"`
	ExpectedReturn float64  `json:"expected_return" msgpack:"expected_return"` // %
}

// TiltStance is the overweight/underweight stance on a sector
type TiltStance string

const (
	TiltOverweight  TiltStance = "Overweight"
	TiltUnderweight TiltStance = "Underweight"
)

// SectorTilt is a sector positioning call with its signal strength
type SectorTilt struct {
	Sector string     `json:"sector" msgpack:"sector"`
	Stance TiltStance `json:"stance" msgpack:"stance"`
	Score  float64    `json:"score" msgpack:"score"`

	// FromPreference is set when the stance comes from the profile lists
	FromPreference bool `json:"from_preference" msgpack:"from_preference"`
}

// Narrative holds the human-readable text of a recommendation
type Narrative struct {
	ExecutiveSummary []string `json:"executive_summary" msgpack:"executive_summary"`
	MacroView        []string `json:"macro_view" msgpack:"macro_view"`
	Rationale        string   `json:"rationale" msgpack:"rationale"`
}

// MacroSummary records the macro inputs that shaped a recommendation
type MacroSummary struct {
	Available  bool    `json:"available" msgpack:"available"`
	Bias       Bias    `json:"bias,omitempty" msgpack:"bias"`
	Confidence float64 `json:"confidence" msgpack:"confidence"`

	// TiltApplied is the equity shift (percentage points) applied to the base policy
	TiltApplied float64 `json:"tilt_applied" msgpack:"tilt_applied"`
}

// PortfolioRecommendation is the allocator output for one workflow run.
// Everything except GeneratedAt is a pure function of the inputs.
type PortfolioRecommendation struct {
	Profile       UserProfile            `json:"profile" msgpack:"profile"`
	Macro         MacroSummary           `json:"macro" msgpack:"macro"`
	BaseWeights   PolicyWeights          `json:"base_weights" msgpack:"base_weights"`
	PolicyWeights PolicyWeights          `json:"policy_weights" msgpack:"policy_weights"`
	Rebalance     []RebalanceInstruction `json:"rebalance" msgpack:"rebalance"`
	Holdings      []ClassHoldings        `json:"holdings" msgpack:"holdings"`
	Scenarios     []ScenarioResult       `json:"scenarios" msgpack:"scenarios"`
	SectorTilts   []SectorTilt           `json:"sector_tilts" msgpack:"sector_tilts"`
	Warnings      []Warning              `json:"warnings" msgpack:"warnings"`
	Narrative     Narrative              `json:"narrative" msgpack:"narrative"`
	Performance   *PerformanceStats      `json:"performance,omitempty" msgpack:"performance"`
	Benchmark     *PerformanceStats      `json:"benchmark,omitempty" msgpack:"benchmark"`
	// HorizonBand names the horizon band whose policy table was used
	HorizonBand   string                 `json:"horizon_band,omitempty" msgpack:"horizon_band"`
	GeneratedAt   time.Time              `json:"generated_at" msgpack:"generated_at"`
}

// HoldingsFor returns the ranked holdings for a class
func (r *PortfolioRecommendation) HoldingsFor(class AssetClass) []AssetSignal {
	for _, h := range r.Holdings {
		if h.AssetClass == class {
			return h.Holdings
		}
	}
	return nil
}

// ScenarioReturn returns the portfolio return for a scenario
func (r *PortfolioRecommendation) ScenarioReturn(s Scenario) float64 {
	for _, res := range r.Scenarios {
		if res.Scenario == s {
			return res.ExpectedReturn
		}
	}
	return 0
}
