package domain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Profile defaults applied when the profile JSON leaves a field empty
const (
	DefaultObjective   = "wealth building"
	DefaultHorizonYear = 5
)

// UserProfile captures the investor preferences gathered upstream.
// JSON field names follow the profile documents written by the intake step.
type UserProfile struct {
	ProfileID           string        `json:"profile_id,omitempty" msgpack:"profile_id"`
	RiskTolerance       RiskTolerance `json:"risk_level" msgpack:"risk_level"`
	Objective           string        `json:"investment_goal" msgpack:"investment_goal"`
	TimeHorizonYears    int           `json:"time_horizon" msgpack:"time_horizon" validate:"gte=1,lte=100"`
	InvestmentAmount    float64       `json:"investment_amount" msgpack:"investment_amount" validate:"gte=0"`
	MonthlyContribution float64       `json:"monthly_contribution" msgpack:"monthly_contribution" validate:"gte=0"`
	SectorInclude       []string      `json:"preferred_sectors" msgpack:"preferred_sectors" validate:"dive,required"`
	SectorExclude       []string      `json:"avoid_sectors" msgpack:"avoid_sectors" validate:"dive,required"`
	PrefersESG          bool          `json:"prefers_esg" msgpack:"prefers_esg"`
	NeedsLiquidity      bool          `json:"needs_liquidity" msgpack:"needs_liquidity"`
	TaxSensitive        bool          `json:"tax_sensitive" msgpack:"tax_sensitive"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func profileValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Normalize returns a copy with defaults applied, the risk tolerance
// canonicalized, sector lists trimmed and de-duplicated, and every excluded
// sector removed from the include list (exclusion wins on conflict).
//
// An unrecognized risk tolerance is kept verbatim so the allocator can
// reject it with ErrUnrecognizedRiskTolerance.
func (p UserProfile) Normalize() UserProfile {
	out := p

	if strings.TrimSpace(string(out.RiskTolerance)) == "" {
		out.RiskTolerance = RiskModerate
	} else if rt, err := ParseRiskTolerance(string(out.RiskTolerance)); err == nil {
		out.RiskTolerance = rt
	}

	if strings.TrimSpace(out.Objective) == "" {
		out.Objective = DefaultObjective
	}
	// Zero means unset; negative horizons are left for Validate to reject
	if out.TimeHorizonYears == 0 {
		out.TimeHorizonYears = DefaultHorizonYear
	}

	out.SectorExclude = dedupeSectors(out.SectorExclude)
	excluded := make(map[string]bool, len(out.SectorExclude))
	for _, s := range out.SectorExclude {
		excluded[SectorKey(s)] = true
	}

	include := make([]string, 0, len(out.SectorInclude))
	for _, s := range dedupeSectors(out.SectorInclude) {
		if !excluded[SectorKey(s)] {
			include = append(include, s)
		}
	}
	out.SectorInclude = include

	return out
}

// Validate checks numeric ranges and sector entries
func (p UserProfile) Validate() error {
	if err := profileValidator().Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return nil
}

// SectorKey is the case-insensitive comparison key for sector names
func SectorKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func dedupeSectors(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" || seen[SectorKey(trimmed)] {
			continue
		}
		seen[SectorKey(trimmed)] = true
		out = append(out, trimmed)
	}
	return out
}
