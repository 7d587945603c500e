// Package profile reads investor profiles written by the intake step.
package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aristath/advisor/internal/domain"
)

// FilePrefix is the name prefix of profile documents in an analysis directory
const FilePrefix = "user_profile_"

// number accepts a JSON number, a numeric string or null
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*n = number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = number(v)
	return nil
}

// years is a time horizon that remembers whether the document set it.
// null and an empty string count as unset.
type years struct {
	value float64
	set   bool
}

func (y *years) UnmarshalJSON(data []byte) error {
	var s string
	if json.Unmarshal(data, &s) == nil && strings.TrimSpace(s) == "" {
		*y = years{}
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*y = years{}
		return nil
	}
	var n number
	if err := n.UnmarshalJSON(data); err != nil {
		return err
	}
	*y = years{value: float64(n), set: true}
	return nil
}

// horizonYears converts a set horizon to whole years. Values outside
// 1..100, fractional years and non-finite values are rejected before the
// conversion so they cannot wrap or fall back to the default.
func (y years) horizonYears() (int, error) {
	if !y.set {
		return 0, nil
	}
	v := y.value
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 1 || v > 100 || v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: time_horizon must be a whole number of years between 1 and 100, got %v",
			domain.ErrInvalidProfile, v)
	}
	return int(v), nil
}

// sectors accepts a list or a comma separated string
type sectors []string

func (s *sectors) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("sectors must be a list or a string")
	}
	*s = nil
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

type profileWire struct {
	ProfileID           string  `json:"profile_id"`
	RiskLevel           string  `json:"risk_level"`
	RiskTolerance       string  `json:"risk_tolerance"`
	InvestmentGoal      string  `json:"investment_goal"`
	TimeHorizon         years   `json:"time_horizon"`
	InvestmentAmount    number  `json:"investment_amount"`
	MonthlyContribution number  `json:"monthly_contribution"`
	PreferredSectors    sectors `json:"preferred_sectors"`
	AvoidSectors        sectors `json:"avoid_sectors"`
	PrefersESG          bool    `json:"prefers_esg"`
	NeedsLiquidity      bool    `json:"needs_liquidity"`
	TaxSensitive        bool    `json:"tax_sensitive"`

	// UserProfile is set when the document wraps the profile
	UserProfile *profileWire `json:"user_profile"`
}

func (w profileWire) toDomain() (domain.UserProfile, error) {
	horizon, err := w.TimeHorizon.horizonYears()
	if err != nil {
		return domain.UserProfile{}, err
	}
	risk := w.RiskLevel
	if strings.TrimSpace(risk) == "" {
		risk = w.RiskTolerance
	}
	return domain.UserProfile{
		ProfileID:           strings.TrimSpace(w.ProfileID),
		RiskTolerance:       domain.RiskTolerance(strings.TrimSpace(risk)),
		Objective:           strings.TrimSpace(w.InvestmentGoal),
		TimeHorizonYears:    horizon,
		InvestmentAmount:    float64(w.InvestmentAmount),
		MonthlyContribution: float64(w.MonthlyContribution),
		SectorInclude:       []string(w.PreferredSectors),
		SectorExclude:       []string(w.AvoidSectors),
		PrefersESG:          w.PrefersESG,
		NeedsLiquidity:      w.NeedsLiquidity,
		TaxSensitive:        w.TaxSensitive,
	}, nil
}

// Parse decodes a profile document, applies defaults and validates it.
// An unrecognized risk tolerance is not rejected here; the allocator
// reports it when the profile is used.
func Parse(r io.Reader) (domain.UserProfile, error) {
	var w profileWire
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return domain.UserProfile{}, fmt.Errorf("%w: %v", domain.ErrInvalidProfile, err)
	}
	if w.UserProfile != nil {
		w = *w.UserProfile
	}

	p, err := w.toDomain()
	if err != nil {
		return domain.UserProfile{}, err
	}
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return domain.UserProfile{}, err
	}
	return p, nil
}

// Load reads and parses the profile at path
func Load(path string) (domain.UserProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("failed to open profile: %w", err)
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return p, nil
}

// LatestInDir finds the newest user_profile_*.json in dir. Files are
// ordered by modification time, then by name.
func LatestInDir(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, FilePrefix+"*.json"))
	if err != nil {
		return "", err
	}

	type candidate struct {
		path string
		mod  int64
	}
	candidates := make([]candidate, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		candidates = append(candidates, candidate{path: m, mod: info.ModTime().UnixNano()})
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no %s*.json file in %s", FilePrefix, dir)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].mod != candidates[j].mod {
			return candidates[i].mod > candidates[j].mod
		}
		return candidates[i].path > candidates[j].path
	})
	return candidates[0].path, nil
}
