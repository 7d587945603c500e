// Package holdings filters upstream asset signals against the investor's
// sector preferences, ranks what is left and derives sector tilts.
package holdings

import (
	"fmt"

	"github.com/aristath/advisor/internal/domain"
)

// Options configure holdings selection and sector tilts
type Options struct {
	// TopN is the maximum number of holdings listed per signal class
	TopN map[domain.AssetClass]int `yaml:"top_n"`
	// SectorAliases maps a canonical sector name to the names that mean the same thing
	SectorAliases map[string][]string `yaml:"sector_aliases"`
	// OverweightThreshold is the minimum sector strength for an Overweight call
	OverweightThreshold float64 `yaml:"overweight_threshold"`
	// UnderweightThreshold is the maximum sector strength for an Underweight call
	UnderweightThreshold float64 `yaml:"underweight_threshold"`
	// PreferenceBias is the strength given to a preferred (or, negated, avoided) sector with no signal
	PreferenceBias float64 `yaml:"preference_bias"`
}

// DefaultOptions returns top 5 equities, top 5 bonds and top 3 alternatives
func DefaultOptions() Options {
	return Options{
		TopN: map[domain.AssetClass]int{
			domain.AssetClassEquity: 5,
			domain.AssetClassBond:   5,
			domain.AssetClassGold:   3,
		},
		SectorAliases:        DefaultSectorAliases(),
		OverweightThreshold:  0.25,
		UnderweightThreshold: -0.25,
		PreferenceBias:       0.6,
	}
}

// DefaultSectorAliases returns the common GICS-style sector synonyms
func DefaultSectorAliases() map[string][]string {
	return map[string][]string{
		"Technology":             {"Tech", "Information Technology", "IT"},
		"Healthcare":             {"Health Care", "Health"},
		"Financials":             {"Financial Services", "Financial", "Finance"},
		"Consumer Discretionary": {"Consumer Cyclical"},
		"Consumer Staples":       {"Consumer Defensive"},
		"Communication Services": {"Communications", "Telecom", "Telecommunications"},
		"Materials":              {"Basic Materials"},
		"Real Estate":            {"REIT", "REITs"},
		"Industrials":            {"Industrial"},
		"Utilities":              {"Utility"},
		"Energy":                 {"Oil & Gas"},
	}
}

// Validate checks the top-N limits and tilt thresholds
func (o Options) Validate() error {
	for class, n := range o.TopN {
		if n < 0 {
			return fmt.Errorf("top_n for %s must be non-negative, got %d", class, n)
		}
	}
	if o.OverweightThreshold <= 0 || o.UnderweightThreshold >= 0 {
		return fmt.Errorf("sector thresholds must satisfy underweight < 0 < overweight, got %.2f/%.2f",
			o.UnderweightThreshold, o.OverweightThreshold)
	}
	if o.PreferenceBias < 0 || o.PreferenceBias > 1 {
		return fmt.Errorf("preference bias must be within [0, 1], got %.2f", o.PreferenceBias)
	}
	return nil
}

func (o Options) topN(class domain.AssetClass) int {
	if n, ok := o.TopN[class]; ok {
		return n
	}
	return DefaultOptions().TopN[class]
}
