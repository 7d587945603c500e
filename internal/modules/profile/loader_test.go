package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		doc      string
		expected domain.UserProfile
	}{
		{
			name: "full profile",
			doc: `{"profile_id":"p-1","risk_level":"aggressive","investment_goal":"retirement",
				"time_horizon":20,"investment_amount":50000,"monthly_contribution":500,
				"preferred_sectors":["Technology","Energy"],"avoid_sectors":["energy"],"prefers_esg":true}`,
			expected: domain.UserProfile{
				ProfileID:           "p-1",
				RiskTolerance:       domain.RiskAggressive,
				Objective:           "retirement",
				TimeHorizonYears:    20,
				InvestmentAmount:    50000,
				MonthlyContribution: 500,
				SectorInclude:       []string{"Technology"},
				SectorExclude:       []string{"energy"},
				PrefersESG:          true,
			},
		},
		{
			name: "defaults",
			doc:  `{}`,
			expected: domain.UserProfile{
				RiskTolerance:    domain.RiskModerate,
				Objective:        domain.DefaultObjective,
				TimeHorizonYears: domain.DefaultHorizonYear,
				SectorInclude:    []string{},
				SectorExclude:    []string{},
			},
		},
		{
			name: "numeric strings and sector text",
			doc: `{"risk_tolerance":"Conservative","time_horizon":"10","investment_amount":"25,000",
				"monthly_contribution":null,"preferred_sectors":"Healthcare, Utilities"}`,
			expected: domain.UserProfile{
				RiskTolerance:    domain.RiskConservative,
				Objective:        domain.DefaultObjective,
				TimeHorizonYears: 10,
				InvestmentAmount: 25000,
				SectorInclude:    []string{"Healthcare", "Utilities"},
				SectorExclude:    []string{},
			},
		},
		{
			name: "wrapped document",
			doc:  `{"user_profile":{"risk_level":"moderate","time_horizon":7}}`,
			expected: domain.UserProfile{
				RiskTolerance:    domain.RiskModerate,
				Objective:        domain.DefaultObjective,
				TimeHorizonYears: 7,
				SectorInclude:    []string{},
				SectorExclude:    []string{},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Parse(strings.NewReader(tc.doc))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, p)
		})
	}
}

func TestParse_KeepsUnknownRiskTolerance(t *testing.T) {
	p, err := Parse(strings.NewReader(`{"risk_level":"yolo"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.RiskTolerance("yolo"), p.RiskTolerance)
}

func TestParse_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{"malformed json", `{"risk_level":`},
		{"bad number", `{"investment_amount":"lots"}`},
		{"negative amount", `{"investment_amount":-10}`},
		{"horizon too long", `{"time_horizon":150}`},
		{"negative horizon", `{"time_horizon":-30}`},
		{"zero horizon", `{"time_horizon":0}`},
		{"huge horizon", `{"time_horizon":1e20}`},
		{"horizon of 500 as text", `{"time_horizon":"500"}`},
		{"fractional horizon", `{"time_horizon":2.5}`},
		{"nan horizon", `{"time_horizon":"NaN"}`},
		{"infinite horizon", `{"time_horizon":"+Inf"}`},
		{"word horizon", `{"time_horizon":"ten"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.doc))
			assert.ErrorIs(t, err, domain.ErrInvalidProfile)
		})
	}
}

func TestParse_UnsetHorizonDefaults(t *testing.T) {
	for _, doc := range []string{`{}`, `{"time_horizon":null}`, `{"time_horizon":""}`, `{"time_horizon":"  "}`} {
		t.Run(doc, func(t *testing.T) {
			p, err := Parse(strings.NewReader(doc))
			require.NoError(t, err)
			assert.Equal(t, domain.DefaultHorizonYear, p.TimeHorizonYears)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"risk_level":"aggressive","time_horizon":30}`), 0644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskAggressive, p.RiskTolerance)
	assert.Equal(t, 30, p.TimeHorizonYears)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLatestInDir(t *testing.T) {
	dir := t.TempDir()

	_, err := LatestInDir(dir)
	assert.Error(t, err)

	now := time.Now()
	write := func(name string, mod time.Time) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))
		require.NoError(t, os.Chtimes(path, mod, mod))
	}
	write("user_profile_20240101.json", now.Add(-2*time.Hour))
	write("user_profile_20240301.json", now.Add(-time.Hour))
	write("user_profile_20240201.json", now.Add(-time.Hour))
	write("stock_analysis_20240401.json", now)

	latest, err := LatestInDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "user_profile_20240301.json", filepath.Base(latest))
}
