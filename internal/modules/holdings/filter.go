package holdings

import (
	"strings"

	"github.com/aristath/advisor/internal/domain"
)

// SectorResolver canonicalizes sector names through alias groups
type SectorResolver struct {
	canonical map[string]string // alias key -> canonical display name
}

// NewSectorResolver builds a resolver from canonical name -> aliases
func NewSectorResolver(aliases map[string][]string) *SectorResolver {
	r := &SectorResolver{canonical: make(map[string]string)}
	for name, list := range aliases {
		r.canonical[domain.SectorKey(name)] = name
		for _, alias := range list {
			r.canonical[domain.SectorKey(alias)] = name
		}
	}
	return r
}

// Key returns the comparison key of a sector after alias resolution
func (r *SectorResolver) Key(sector string) string {
	return domain.SectorKey(r.Name(sector))
}

// Name returns the canonical display name of a sector ("tech" -> "Technology").
// Unknown sectors are returned trimmed but otherwise unchanged.
func (r *SectorResolver) Name(sector string) string {
	key := domain.SectorKey(sector)
	if name, ok := r.canonical[key]; ok {
		return name
	}
	if key == "" {
		return ""
	}
	return strings.TrimSpace(sector)
}

// FilterResult is the outcome of filtering one class
type FilterResult struct {
	Eligible []domain.AssetSignal
	Excluded int
	// Preferred holds tickers whose sector is in the include list
	Preferred map[string]bool
}

// Filter drops every signal whose sector is excluded by the profile and
// flags the ones in an included sector. Signals without a sector are never
// excluded. Input order is preserved.
func (r *SectorResolver) Filter(signals []domain.AssetSignal, profile domain.UserProfile) FilterResult {
	exclude := r.keySet(profile.SectorExclude)
	include := r.keySet(profile.SectorInclude)

	result := FilterResult{
		Eligible:  make([]domain.AssetSignal, 0, len(signals)),
		Preferred: make(map[string]bool),
	}
	for _, sig := range signals {
		key := r.Key(sig.Sector)
		if key != "" && exclude[key] {
			result.Excluded++
			continue
		}
		if key != "" && include[key] {
			result.Preferred[sig.Ticker] = true
		}
		result.Eligible = append(result.Eligible, sig)
	}
	return result
}

func (r *SectorResolver) keySet(sectors []string) map[string]bool {
	set := make(map[string]bool, len(sectors))
	for _, s := range sectors {
		if key := r.Key(s); key != "" {
			set[key] = true
		}
	}
	return set
}

// Reconcile applies alias resolution to the profile's sector lists: entries
// naming the same sector are collapsed to the first one and an include whose
// sector is also excluded is dropped. Spelling is kept as the user wrote it.
func (r *SectorResolver) Reconcile(profile domain.UserProfile) domain.UserProfile {
	out := profile
	out.SectorExclude = r.dedupe(profile.SectorExclude)
	excluded := r.keySet(out.SectorExclude)

	include := make([]string, 0, len(profile.SectorInclude))
	for _, s := range r.dedupe(profile.SectorInclude) {
		if !excluded[r.Key(s)] {
			include = append(include, s)
		}
	}
	out.SectorInclude = include
	return out
}

func (r *SectorResolver) dedupe(sectors []string) []string {
	seen := make(map[string]bool, len(sectors))
	out := make([]string, 0, len(sectors))
	for _, s := range sectors {
		key := r.Key(s)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
