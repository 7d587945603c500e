package signals

import (
	"context"
	"errors"
	"sync"

	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Gather fetches the macro signal, every signal class and (when the asset
// provider supports it) the supplement concurrently. Provider failures
// degrade into the set's unavailable markers; only cancellation of ctx
// is returned as an error.
func Gather(ctx context.Context, macro MacroProvider, assets AssetProvider, log zerolog.Logger) (*domain.SignalSet, error) {
	log = log.With().Str("component", "signal_gather").Logger()

	set := domain.NewSignalSet()
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	if macro != nil {
		g.Go(func() error {
			signal, err := macro.GetMacroSignal(gctx)
			if err != nil {
				log.Warn().Err(err).Msg("Macro signal unavailable")
				return cancelled(ctx)
			}
			mu.Lock()
			set.Macro = signal
			mu.Unlock()
			return nil
		})
	}

	for _, class := range domain.SignalClasses {
		class := class
		if assets == nil {
			set.MarkUnavailable(class, unavailable(string(class)+" signals", errors.New("no provider configured")))
			continue
		}
		g.Go(func() error {
			list, err := assets.GetAssetSignals(gctx, class)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().Err(err).Str("asset_class", string(class)).Msg("Asset signals unavailable")
				if !errors.Is(err, domain.ErrSignalUnavailable) {
					err = unavailable(string(class)+" signals", err)
				}
				set.MarkUnavailable(class, err)
				return cancelled(ctx)
			}
			set.Assets[class] = list
			return nil
		})
	}

	var supplement *Supplement
	if sp, ok := assets.(SupplementProvider); ok {
		g.Go(func() error {
			s, err := sp.GetSupplement(gctx)
			if err != nil {
				log.Debug().Err(err).Msg("No supplementary signal data")
				return cancelled(ctx)
			}
			mu.Lock()
			supplement = s
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	supplement.ApplyTo(set)

	log.Debug().
		Bool("macro", set.Macro != nil).
		Int("unavailable", len(set.Unavailable)).
		Msg("Signals gathered")

	return set, nil
}

// cancelled returns the parent context's error, if any
func cancelled(ctx context.Context) error {
	return ctx.Err()
}

// Availability lists which signal groups a set holds, for progress reporting
func Availability(set *domain.SignalSet) (available, missing []string) {
	if set.Macro != nil {
		available = append(available, "macro")
	} else {
		missing = append(missing, "macro")
	}
	for _, class := range domain.SignalClasses {
		if set.IsUnavailable(class) {
			missing = append(missing, string(class))
		} else {
			available = append(available, string(class))
		}
	}
	return available, missing
}
