// Package rebalancing turns the gap between current and target policy weights
// into ordered, human-readable rebalancing instructions.
package rebalancing

import (
	"fmt"
	"math"

	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
)

// Thresholds control the direction dead band and the magnitude buckets.
// All values are in percentage points.
type Thresholds struct {
	// HoldTolerance is the |delta| at or below which a class is held
	HoldTolerance float64 `yaml:"hold_tolerance"`
	// Measured is the smallest |delta| qualified as a measured move
	Measured float64 `yaml:"measured"`
	// Decisive is the smallest |delta| qualified as a decisive move
	Decisive float64 `yaml:"decisive"`
}

// DefaultThresholds returns the 0.5 / 5 / 15 point thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		HoldTolerance: 0.5,
		Measured:      5,
		Decisive:      15,
	}
}

// Validate checks the thresholds are ordered
func (t Thresholds) Validate() error {
	if t.HoldTolerance < 0 {
		return fmt.Errorf("hold tolerance must be non-negative, got %.2f", t.HoldTolerance)
	}
	if t.Measured <= 0 || t.Decisive <= t.Measured {
		return fmt.Errorf("magnitude thresholds must satisfy 0 < measured < decisive, got %.2f/%.2f", t.Measured, t.Decisive)
	}
	return nil
}

// Generator produces rebalancing instructions
type Generator struct {
	thresholds Thresholds
	log        zerolog.Logger
}

// NewGenerator creates a rebalancing instruction generator
func NewGenerator(thresholds Thresholds, log zerolog.Logger) *Generator {
	return &Generator{
		thresholds: thresholds,
		log:        log.With().Str("component", "rebalancing").Logger(),
	}
}

// Generate emits one instruction per policy class in the order Equity, Cash,
// Bond. A class missing from current is treated as 0%.
func (g *Generator) Generate(current map[domain.AssetClass]float64, target domain.PolicyWeights) []domain.RebalanceInstruction {
	instructions := make([]domain.RebalanceInstruction, 0, len(domain.RebalanceOrder))

	for _, class := range domain.RebalanceOrder {
		cur := current[class]
		tgt := target.Get(class)
		delta := tgt - cur

		inst := domain.RebalanceInstruction{
			AssetClass: class,
			Current:    cur,
			Target:     tgt,
			Delta:      delta,
			Direction:  g.Direction(delta),
			Magnitude:  g.Magnitude(delta),
		}
		inst.Narrative = Narrative(inst)
		instructions = append(instructions, inst)
	}

	g.log.Debug().Int("instructions", len(instructions)).Msg("Rebalancing instructions generated")
	return instructions
}

// Direction classifies a delta against the hold tolerance
func (g *Generator) Direction(delta float64) domain.Direction {
	switch {
	case delta > g.thresholds.HoldTolerance:
		return domain.DirectionIncrease
	case delta < -g.thresholds.HoldTolerance:
		return domain.DirectionDecrease
	}
	return domain.DirectionHold
}

// Magnitude buckets |delta|: below Measured is minor, below Decisive is
// measured, anything else is decisive.
func (g *Generator) Magnitude(delta float64) domain.Magnitude {
	ad := math.Abs(delta)
	switch {
	case ad < g.thresholds.Measured:
		return domain.MagnitudeMinor
	case ad < g.thresholds.Decisive:
		return domain.MagnitudeMeasured
	}
	return domain.MagnitudeDecisive
}

// Narrative renders the sentence for an instruction, e.g.
// "Increase Equity with a decisive adjustment of around 50%."
func Narrative(inst domain.RebalanceInstruction) string {
	size := math.Abs(inst.Delta)
	switch inst.Direction {
	case domain.DirectionIncrease:
		return fmt.Sprintf("Increase %s with %s %.0f%%.", inst.AssetClass, tone(inst.Magnitude), size)
	case domain.DirectionDecrease:
		return fmt.Sprintf("Reduce %s with %s %.0f%%.", inst.AssetClass, tone(inst.Magnitude), size)
	}
	return fmt.Sprintf("Hold %s near its %.0f%% target.", inst.AssetClass, inst.Target)
}

func tone(m domain.Magnitude) string {
	switch m {
	case domain.MagnitudeMeasured:
		return "a measured adjustment of roughly"
	case domain.MagnitudeDecisive:
		return "a decisive adjustment of around"
	}
	return "a small adjustment of approximately"
}
