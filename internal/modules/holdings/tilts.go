package holdings

import (
	"math"
	"sort"

	"github.com/aristath/advisor/internal/domain"
	"gonum.org/v1/gonum/stat"
)

type sectorStrength struct {
	name     string
	strength float64
}

// sectorStrengths returns a strength in [-1, 1] per canonical sector key.
// Explicit sector signals win; otherwise each sector's equity signals are
// averaged with Buy = +1, Hold = 0, Sell = -1.
func (s *Selector) sectorStrengths(set *domain.SignalSet) map[string]sectorStrength {
	out := make(map[string]sectorStrength)
	if set == nil {
		return out
	}

	if len(set.SectorSignals) > 0 {
		// Aliases of one sector ("Tech", "IT") are averaged
		sectors := make([]string, 0, len(set.SectorSignals))
		for sector := range set.SectorSignals {
			sectors = append(sectors, sector)
		}
		sort.Strings(sectors)

		values := make(map[string][]float64)
		names := make(map[string]string)
		for _, sector := range sectors {
			key := s.resolver.Key(sector)
			if key == "" {
				continue
			}
			values[key] = append(values[key], clamp(set.SectorSignals[sector], -1, 1))
			if _, ok := names[key]; !ok {
				names[key] = s.resolver.Name(sector)
			}
		}
		for key, v := range values {
			out[key] = sectorStrength{name: names[key], strength: stat.Mean(v, nil)}
		}
		return out
	}

	directions := make(map[string][]float64)
	names := make(map[string]string)
	for _, sig := range set.SignalsFor(domain.AssetClassEquity) {
		key := s.resolver.Key(sig.Sector)
		if key == "" {
			continue
		}
		directions[key] = append(directions[key], sig.Recommendation.Direction())
		names[key] = s.resolver.Name(sig.Sector)
	}
	for key, values := range directions {
		out[key] = sectorStrength{name: names[key], strength: stat.Mean(values, nil)}
	}
	return out
}

// SectorTilts turns sector strengths and the profile's sector lists into
// Overweight/Underweight calls. Preferred sectors are always Overweight and
// avoided sectors always Underweight; a signal only strengthens that call.
// Ordered by score descending, then sector name.
func (s *Selector) SectorTilts(profile domain.UserProfile, set *domain.SignalSet) []domain.SectorTilt {
	strengths := s.sectorStrengths(set)
	tilts := make(map[string]domain.SectorTilt)

	for key, st := range strengths {
		switch {
		case st.strength >= s.opts.OverweightThreshold:
			tilts[key] = domain.SectorTilt{Sector: st.name, Stance: domain.TiltOverweight, Score: st.strength}
		case st.strength <= s.opts.UnderweightThreshold:
			tilts[key] = domain.SectorTilt{Sector: st.name, Stance: domain.TiltUnderweight, Score: st.strength}
		}
	}

	for _, sector := range profile.SectorInclude {
		key := s.resolver.Key(sector)
		score := s.opts.PreferenceBias
		if st, ok := strengths[key]; ok && st.strength > score {
			score = st.strength
		}
		tilts[key] = domain.SectorTilt{Sector: s.resolver.Name(sector), Stance: domain.TiltOverweight, Score: score, FromPreference: true}
	}
	for _, sector := range profile.SectorExclude {
		key := s.resolver.Key(sector)
		score := -s.opts.PreferenceBias
		if st, ok := strengths[key]; ok && st.strength < score {
			score = st.strength
		}
		tilts[key] = domain.SectorTilt{Sector: s.resolver.Name(sector), Stance: domain.TiltUnderweight, Score: score, FromPreference: true}
	}

	result := make([]domain.SectorTilt, 0, len(tilts))
	for _, t := range tilts {
		t.Score = math.Round(t.Score*1e6) / 1e6
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Sector < result[j].Sector
	})
	return result
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
