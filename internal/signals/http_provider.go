package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBytes   = 8 << 20

	// cacheSource keys the single-entry macro and supplement cache rows
	cacheSource = "analysis_service"
)

// HTTPConfig configures the upstream analysis service client
type HTTPConfig struct {
	BaseURL     string
	APIKey      string        // Optional, sent as X-API-Key
	Timeout     time.Duration // Per request
	RateLimit   float64       // Requests per second, <= 0 disables limiting
	Burst       int
	CacheTTL    time.Duration // <= 0 uses the per-table defaults
	MaxFailures uint32        // Consecutive failures before the breaker opens
}

// HTTPProvider fetches signals from the upstream analysis service.
// Responses are cached; when the service fails or the breaker is open,
// stale cached data is served, and with no cached copy the call fails
// with domain.ErrSignalUnavailable.
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	cacheTTL   time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	cacheRepo  *clientdata.Repository
	log        zerolog.Logger
}

// NewHTTPProvider creates an upstream provider. cacheRepo is optional; if
// nil, caching and the stale fallback are disabled.
func NewHTTPProvider(cfg HTTPConfig, cacheRepo *clientdata.Repository, log zerolog.Logger) (*HTTPProvider, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid signal service URL %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	p := &HTTPProvider{
		baseURL:    strings.TrimRight(base.String(), "/"),
		apiKey:     cfg.APIKey,
		cacheTTL:   cfg.CacheTTL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		cacheRepo:  cacheRepo,
		log:        log.With().Str("component", "http_signals").Logger(),
	}

	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "analysis_service",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return p, nil
}

// BreakerState reports the circuit breaker state ("closed", "open", "half-open")
func (p *HTTPProvider) BreakerState() string {
	return p.breaker.State().String()
}

// GetMacroSignal fetches GET /api/signals/macro
func (p *HTTPProvider) GetMacroSignal(ctx context.Context) (*domain.MacroSignal, error) {
	doc, err := fetch[macroDocument](ctx, p, clientdata.MacroSignals, cacheSource, "/api/signals/macro")
	if err != nil {
		return nil, err
	}
	signal, ok := doc.toDomain()
	if !ok {
		return nil, unavailable("macro signal", fmt.Errorf("response has no bias or confidence"))
	}
	return signal, nil
}

// GetAssetSignals fetches GET /api/signals/assets/{class}
func (p *HTTPProvider) GetAssetSignals(ctx context.Context, class domain.AssetClass) ([]domain.AssetSignal, error) {
	if _, ok := classFilePrefixes[class]; !ok {
		return nil, fmt.Errorf("no signals are produced for asset class %s", class)
	}

	path := "/api/signals/assets/" + url.PathEscape(classSlug(class))
	doc, err := fetch[assetDocument](ctx, p, clientdata.AssetSignals, string(class), path)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(class), nil
}

// GetSupplement fetches GET /api/signals/supplement, a document in the
// same shape as the analysis files (performance, benchmark, current_alloc,
// signals.sectors)
func (p *HTTPProvider) GetSupplement(ctx context.Context) (*Supplement, error) {
	doc, err := fetch[map[string]interface{}](ctx, p, clientdata.SectorSignals, cacheSource, "/api/signals/supplement")
	if err != nil {
		return nil, err
	}
	b := newSupplementBuilder()
	b.add(doc)
	return b.build(), nil
}

func classSlug(class domain.AssetClass) string {
	switch class {
	case domain.AssetClassEquity:
		return "equity"
	case domain.AssetClassBond:
		return "bond"
	case domain.AssetClassGold:
		return "gold"
	}
	return strings.ToLower(string(class))
}

// fetch serves fresh cache, else calls the service, else falls back to stale
// cache. Every attempt decodes into a new value, so a body that fails halfway
// through decoding leaves nothing behind in the result.
func fetch[T any](ctx context.Context, p *HTTPProvider, table clientdata.Table, key, path string) (T, error) {
	cached := p.lookup(ctx, table, key)
	if cached != nil && cached.Fresh(time.Now()) {
		if doc, err := decode[T](cached.Data); err == nil {
			p.log.Debug().Str("path", path).Msg("Signal cache hit")
			return doc, nil
		}
	}

	var doc T
	body, err := p.request(ctx, path)
	if err == nil {
		doc, err = decode[T](body)
	}
	if err != nil {
		if cached != nil {
			if stale, decodeErr := decode[T](cached.Data); decodeErr == nil {
				p.log.Warn().
					Err(err).
					Str("path", path).
					Time("expired_at", cached.ExpiresAt).
					Msg("Signal service failed, using stale cached data")
				return stale, nil
			}
		}
		var zero T
		return zero, unavailable(path, err)
	}

	if p.cacheRepo != nil {
		// A zero cacheTTL keeps the table default
		if err := p.cacheRepo.Store(ctx, table, key, json.RawMessage(body), p.cacheTTL); err != nil {
			p.log.Warn().Err(err).Str("table", table.Name).Msg("Failed to cache signal response")
		}
	}
	return doc, nil
}

func decode[T any](data []byte) (T, error) {
	var doc T
	if err := json.Unmarshal(data, &doc); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to decode response: %w", err)
	}
	return doc, nil
}

func (p *HTTPProvider) lookup(ctx context.Context, table clientdata.Table, key string) *clientdata.Entry {
	if p.cacheRepo == nil {
		return nil
	}
	entry, err := p.cacheRepo.Lookup(ctx, table, key)
	if err != nil {
		p.log.Warn().Err(err).Str("table", table.Name).Msg("Failed to read signal cache")
		return nil
	}
	return entry
}

// request performs a rate limited GET through the circuit breaker
func (p *HTTPProvider) request(ctx context.Context, path string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if p.apiKey != "" {
			req.Header.Set("X-API-Key", p.apiKey)
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("signal service returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
