// Package allocation derives target policy weights from the investor profile
// and the macro regime.
package allocation

import (
	"fmt"
	"sort"

	"github.com/aristath/advisor/internal/domain"
)

// PolicyTable maps each risk tolerance to its base weights
type PolicyTable map[domain.RiskTolerance]domain.PolicyWeights

// DefaultPolicyTable returns the base policy used when no override is configured
func DefaultPolicyTable() PolicyTable {
	return PolicyTable{
		domain.RiskConservative: {Equity: 30, Bond: 60, Cash: 10},
		domain.RiskModerate:     {Equity: 50, Bond: 45, Cash: 5},
		domain.RiskAggressive:   {Equity: 65, Bond: 30, Cash: 5},
	}
}

// HorizonBand selects a policy table for horizons up to MaxYears (inclusive).
// A band with MaxYears <= 0 is open-ended.
type HorizonBand struct {
	Name     string      `yaml:"name"`
	MaxYears int         `yaml:"max_years"`
	Table    PolicyTable `yaml:"table"`
}

// HorizonPolicyBands returns the short/medium/long horizon matrix.
// The short band is identical to DefaultPolicyTable.
func HorizonPolicyBands() []HorizonBand {
	return []HorizonBand{
		{Name: "short", MaxYears: 5, Table: DefaultPolicyTable()},
		{Name: "medium", MaxYears: 15, Table: PolicyTable{
			domain.RiskConservative: {Equity: 40, Bond: 50, Cash: 10},
			domain.RiskModerate:     {Equity: 60, Bond: 35, Cash: 5},
			domain.RiskAggressive:   {Equity: 75, Bond: 20, Cash: 5},
		}},
		{Name: "long", MaxYears: 0, Table: PolicyTable{
			domain.RiskConservative: {Equity: 45, Bond: 45, Cash: 10},
			domain.RiskModerate:     {Equity: 65, Bond: 30, Cash: 5},
			domain.RiskAggressive:   {Equity: 85, Bond: 10, Cash: 5},
		}},
	}
}

// MacroTilt controls how the macro bias shifts the equity weight
type MacroTilt struct {
	Enabled bool `yaml:"enabled"`
	// MaxTilt is the equity shift in percentage points at full confidence
	MaxTilt float64 `yaml:"max_tilt"`
	// MinConfidence is the confidence below which no tilt is applied
	MinConfidence float64 `yaml:"min_confidence"`
}

// PolicyConfig is the tunable configuration of the policy weight engine
type PolicyConfig struct {
	Base         PolicyTable   `yaml:"base"`
	HorizonBands []HorizonBand `yaml:"horizon_bands"`
	Tilt         MacroTilt     `yaml:"macro_tilt"`
}

// DefaultPolicyConfig returns the base table. The macro tilt is off until
// a policy file enables it; its 5pp / 0.6 settings apply once enabled.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Base: DefaultPolicyTable(),
		Tilt: MacroTilt{
			Enabled:       false,
			MaxTilt:       5,
			MinConfidence: 0.6,
		},
	}
}

// Validate checks every configured row against the weight sum invariant and
// orders the horizon bands (open-ended band last).
func (c *PolicyConfig) Validate() error {
	if err := c.Base.validate("base"); err != nil {
		return err
	}
	for _, band := range c.HorizonBands {
		if err := band.Table.validate("horizon band " + band.Name); err != nil {
			return err
		}
	}
	sort.SliceStable(c.HorizonBands, func(i, j int) bool {
		a, b := c.HorizonBands[i].MaxYears, c.HorizonBands[j].MaxYears
		if a <= 0 {
			return false
		}
		if b <= 0 {
			return true
		}
		return a < b
	})
	if c.Tilt.MaxTilt < 0 || c.Tilt.MaxTilt > 100 {
		return fmt.Errorf("macro tilt must be within [0, 100], got %.2f", c.Tilt.MaxTilt)
	}
	if c.Tilt.MinConfidence < 0 || c.Tilt.MinConfidence > 1 {
		return fmt.Errorf("macro tilt min confidence must be within [0, 1], got %.2f", c.Tilt.MinConfidence)
	}
	return nil
}

func (t PolicyTable) validate(name string) error {
	for _, rt := range domain.RiskTolerances {
		w, ok := t[rt]
		if !ok {
			return fmt.Errorf("%s policy table has no row for %s", name, rt)
		}
		if err := w.Check(); err != nil {
			return fmt.Errorf("%s policy table row %s: %w", name, rt, err)
		}
	}
	return nil
}

// UnmarshalYAML accepts tolerance keys in any case ("moderate", "Moderate")
func (t *PolicyTable) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]domain.PolicyWeights
	if err := unmarshal(&raw); err != nil {
		return err
	}
	out := make(PolicyTable, len(raw))
	for key, w := range raw {
		rt, err := domain.ParseRiskTolerance(key)
		if err != nil {
			return err
		}
		out[rt] = w
	}
	*t = out
	return nil
}
