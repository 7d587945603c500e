package allocation

import (
	"fmt"
	"math"

	"github.com/aristath/advisor/internal/domain"
	"github.com/rs/zerolog"
)

// Result is the outcome of the policy weight engine
type Result struct {
	Base    domain.PolicyWeights // weights straight from the policy table
	Weights domain.PolicyWeights // weights after the macro tilt
	Tilt    float64              // equity shift actually applied (pp)
	Band    string               // horizon band used, empty for the base table
}

// Engine derives {Equity, Bond, Cash} policy weights
type Engine struct {
	cfg PolicyConfig
	log zerolog.Logger
}

// NewEngine creates a policy weight engine. The config must have passed Validate.
func NewEngine(cfg PolicyConfig, log zerolog.Logger) *Engine {
	if cfg.Base == nil {
		cfg.Base = DefaultPolicyTable()
	}
	return &Engine{
		cfg: cfg,
		log: log.With().Str("component", "policy_engine").Logger(),
	}
}

// BaseWeights looks up the policy row for the profile's tolerance and horizon
func (e *Engine) BaseWeights(profile domain.UserProfile) (domain.PolicyWeights, string, error) {
	rt, err := domain.ParseRiskTolerance(string(profile.RiskTolerance))
	if err != nil {
		return domain.PolicyWeights{}, "", err
	}

	table, band := e.cfg.Base, ""
	for _, b := range e.cfg.HorizonBands {
		if b.MaxYears <= 0 || profile.TimeHorizonYears <= b.MaxYears {
			table, band = b.Table, b.Name
			break
		}
	}

	w, ok := table[rt]
	if !ok {
		return domain.PolicyWeights{}, "", fmt.Errorf("%w: no policy row for %s", domain.ErrUnrecognizedRiskTolerance, rt)
	}
	if err := w.Check(); err != nil {
		return domain.PolicyWeights{}, "", err
	}
	return w, band, nil
}

// PolicyWeights returns the target weights for a profile, tilted by the
// macro signal when one is available and confident enough.
func (e *Engine) PolicyWeights(profile domain.UserProfile, macro *domain.MacroSignal) (Result, error) {
	base, band, err := e.BaseWeights(profile)
	if err != nil {
		return Result{}, err
	}

	result := Result{Base: base, Weights: base, Band: band}

	shift := e.tiltFor(macro)
	if shift != 0 {
		tilted, applied := ApplyEquityTilt(base, shift)
		if err := tilted.Check(); err != nil {
			return Result{}, fmt.Errorf("after macro tilt of %.2fpp: %w", shift, err)
		}
		result.Weights = tilted
		result.Tilt = applied
	}

	e.log.Debug().
		Str("risk", string(profile.RiskTolerance)).
		Str("band", band).
		Float64("equity", result.Weights.Equity).
		Float64("bond", result.Weights.Bond).
		Float64("cash", result.Weights.Cash).
		Float64("tilt", result.Tilt).
		Msg("Policy weights computed")

	return result, nil
}

// tiltFor converts a macro signal into a signed equity shift in percentage points
func (e *Engine) tiltFor(macro *domain.MacroSignal) float64 {
	if macro == nil || !e.cfg.Tilt.Enabled || e.cfg.Tilt.MaxTilt == 0 {
		return 0
	}
	confidence := math.Max(0, math.Min(1, macro.Confidence))
	if confidence < e.cfg.Tilt.MinConfidence {
		return 0
	}
	switch macro.Bias {
	case domain.BiasBullish:
		return e.cfg.Tilt.MaxTilt * confidence
	case domain.BiasBearish:
		return -e.cfg.Tilt.MaxTilt * confidence
	}
	return 0
}

// ApplyEquityTilt shifts equity by shift percentage points (clamped to
// [0, 100]) and takes the offsetting amount from Bond and Cash in proportion
// to their weights, so the sum is preserved. Returns the shift applied.
func ApplyEquityTilt(w domain.PolicyWeights, shift float64) (domain.PolicyWeights, float64) {
	equity := math.Max(0, math.Min(100, w.Equity+shift))
	applied := equity - w.Equity
	if applied == 0 {
		return w, 0
	}

	rest := w.Bond + w.Cash
	out := domain.PolicyWeights{Equity: equity}
	if rest > 0 {
		out.Bond = math.Max(0, w.Bond-applied*w.Bond/rest)
		out.Cash = math.Max(0, w.Cash-applied*w.Cash/rest)
	} else {
		// Only reachable when equity was 100% and the shift is negative
		out.Bond = -applied / 2
		out.Cash = -applied / 2
	}
	return out, applied
}
