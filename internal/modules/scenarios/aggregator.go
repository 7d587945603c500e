// Package scenarios projects the one-year portfolio return under the bear,
// base and bull macro scenarios.
package scenarios

import (
	"math"

	"github.com/aristath/advisor/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// ClassReturns resolves the scenario returns of each policy class. Equity
// falls back to the macro scenarios when no per-class entry exists; any
// other missing class contributes 0.
func ClassReturns(set *domain.SignalSet) map[domain.AssetClass]domain.ScenarioReturns {
	out := make(map[domain.AssetClass]domain.ScenarioReturns, len(domain.PolicyClasses))
	for _, class := range domain.PolicyClasses {
		if set != nil && set.ClassScenarios != nil {
			if r, ok := set.ClassScenarios[class]; ok {
				out[class] = r
				continue
			}
		}
		if class == domain.AssetClassEquity && set != nil && set.Macro != nil {
			out[class] = set.Macro.Scenarios
			continue
		}
		out[class] = domain.ScenarioReturns{}
	}
	return out
}

// Aggregate returns Σ weight/100 × return per scenario, in Bear, Base, Bull
// order. Results are rounded to 1e-6 so equal inputs render identically.
func Aggregate(weights domain.PolicyWeights, returns map[domain.AssetClass]domain.ScenarioReturns) []domain.ScenarioResult {
	w := make([]float64, len(domain.PolicyClasses))
	for i, class := range domain.PolicyClasses {
		w[i] = weights.Get(class) / 100
	}

	results := make([]domain.ScenarioResult, 0, len(domain.Scenarios))
	r := make([]float64, len(domain.PolicyClasses))
	for _, s := range domain.Scenarios {
		for i, class := range domain.PolicyClasses {
			r[i] = returns[class].Get(s)
		}
		results = append(results, domain.ScenarioResult{
			Scenario:       s,
			ExpectedReturn: round6(floats.Dot(w, r)),
		})
	}
	return results
}

// Range returns the lowest and highest scenario return
func Range(results []domain.ScenarioResult) (lo, hi float64) {
	if len(results) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, r := range results {
		lo = math.Min(lo, r.ExpectedReturn)
		hi = math.Max(hi, r.ExpectedReturn)
	}
	return lo, hi
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
