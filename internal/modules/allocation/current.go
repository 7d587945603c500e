package allocation

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/advisor/internal/domain"
)

// ClassAllocation compares the current and target weight of one policy class
type ClassAllocation struct {
	AssetClass domain.AssetClass `json:"asset_class"`
	TargetPct  float64           `json:"target_pct"`
	CurrentPct float64           `json:"current_pct"`
	Deviation  float64           `json:"deviation"`
}

// CurrentWeights parses a user supplied current allocation keyed by asset
// class name ("equities", "Bond", ...). Values may be fractions or
// percentages; the result is in percent and sums to 100 whenever the input
// has a positive total. Aliases of the same class are summed.
func CurrentWeights(raw map[string]float64) (map[domain.AssetClass]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	// Sorted keys keep the float accumulation order stable
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[domain.AssetClass]float64, len(raw))
	total := 0.0
	for _, k := range keys {
		v := raw[k]
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("current allocation for %q must be a non-negative number, got %v", k, v)
		}
		class, err := domain.ParseAssetClass(k)
		if err != nil {
			return nil, fmt.Errorf("current allocation: %w", err)
		}
		out[class] += v
		total += v
	}

	if total <= 0 {
		return out, nil
	}
	for class, v := range out {
		out[class] = v / total * 100
	}
	return out, nil
}

// CompareAllocation lines up current weights against the target in the
// rebalancing order. Classes missing from current count as 0%.
func CompareAllocation(current map[domain.AssetClass]float64, target domain.PolicyWeights) []ClassAllocation {
	result := make([]ClassAllocation, 0, len(domain.RebalanceOrder))
	for _, class := range domain.RebalanceOrder {
		cur := current[class]
		tgt := target.Get(class)
		result = append(result, ClassAllocation{
			AssetClass: class,
			TargetPct:  tgt,
			CurrentPct: cur,
			Deviation:  cur - tgt,
		})
	}
	return result
}
