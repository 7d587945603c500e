package holdings

import (
	"fmt"

	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
)

// Selector produces the ranked, sector-filtered holdings per signal class
type Selector struct {
	opts     Options
	resolver *SectorResolver
	log      zerolog.Logger
}

// NewSelector creates a holdings selector
func NewSelector(opts Options, log zerolog.Logger) *Selector {
	if opts.SectorAliases == nil {
		opts.SectorAliases = DefaultSectorAliases()
	}
	return &Selector{
		opts:     opts,
		resolver: NewSectorResolver(opts.SectorAliases),
		log:      log.With().Str("component", "holdings").Logger(),
	}
}

// Resolver returns the sector alias resolver
func (s *Selector) Resolver() *SectorResolver {
	return s.resolver
}

// Select filters and ranks every signal class in SignalClasses order.
// A class with no eligible signal gets an EmptySignalSet warning and an
// empty holdings list; a class whose provider failed also gets a
// SignalUnavailable warning.
func (s *Selector) Select(profile domain.UserProfile, set *domain.SignalSet) ([]domain.ClassHoldings, []domain.Warning) {
	var warnings []domain.Warning
	result := make([]domain.ClassHoldings, 0, len(domain.SignalClasses))

	for _, class := range domain.SignalClasses {
		if set.IsUnavailable(class) {
			warnings = append(warnings, domain.Warning{
				Code:       domain.WarningSignalUnavailable,
				AssetClass: class,
				Message:    fmt.Sprintf("%s signals unavailable: %v", class, set.Unavailable[class]),
			})
		}

		filtered := s.resolver.Filter(set.SignalsFor(class), profile)
		top := Top(filtered.Eligible, s.opts.topN(class))

		ch := domain.ClassHoldings{
			AssetClass: class,
			Holdings:   top,
			Eligible:   len(filtered.Eligible),
			Excluded:   filtered.Excluded,
		}
		for _, h := range top {
			if filtered.Preferred[h.Ticker] {
				ch.OverweightTickers = append(ch.OverweightTickers, h.Ticker)
			}
		}
		if ch.Holdings == nil {
			ch.Holdings = []domain.AssetSignal{}
		}

		if len(filtered.Eligible) == 0 {
			warnings = append(warnings, domain.Warning{
				Code:       domain.WarningEmptySignalSet,
				AssetClass: class,
				Message:    fmt.Sprintf("no eligible %s holdings", class),
			})
		}

		s.log.Debug().
			Str("asset_class", string(class)).
			Int("eligible", ch.Eligible).
			Int("excluded", ch.Excluded).
			Int("selected", len(top)).
			Msg("Holdings selected")

		result = append(result, ch)
	}

	return result, warnings
}
