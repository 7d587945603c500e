package holdings

import (
	"sort"

	"github.com/aristath/advisor/internal/domain"
)

// Rank returns a copy of signals ordered by recommendation (Buy > Hold >
// Sell), then score descending. Ties keep their input order.
func Rank(signals []domain.AssetSignal) []domain.AssetSignal {
	ranked := make([]domain.AssetSignal, len(signals))
	copy(ranked, signals)

	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ranked[i].Recommendation.Rank(), ranked[j].Recommendation.Rank()
		if ri != rj {
			return ri > rj
		}
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Top ranks signals and keeps at most n of them. Fewer signals are returned
// as-is, never padded.
func Top(signals []domain.AssetSignal, n int) []domain.AssetSignal {
	ranked := Rank(signals)
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
