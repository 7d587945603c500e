package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func sampleRecommendation() *domain.PortfolioRecommendation {
	return &domain.PortfolioRecommendation{
		Profile: domain.UserProfile{
			ProfileID:           "client-42",
			RiskTolerance:       domain.RiskModerate,
			Objective:           "wealth building",
			TimeHorizonYears:    10,
			MonthlyContribution: 1500,
			SectorInclude:       []string{"Technology"},
			SectorExclude:       []string{"Energy"},
			PrefersESG:          true,
		},
		Macro:         domain.MacroSummary{Available: true, Bias: domain.BiasBullish, Confidence: 0.8, TiltApplied: 4},
		BaseWeights:   domain.PolicyWeights{Equity: 50, Bond: 45, Cash: 5},
		PolicyWeights: domain.PolicyWeights{Equity: 54, Bond: 41.4, Cash: 4.6},
		Rebalance: []domain.RebalanceInstruction{
			{AssetClass: domain.AssetClassEquity, Current: 40, Target: 54, Delta: 14, Direction: domain.DirectionIncrease, Magnitude: domain.MagnitudeMeasured, Narrative: "Increase Equity by 14.0 points"},
			{AssetClass: domain.AssetClassCash, Current: 10, Target: 4.6, Delta: -5.4, Direction: domain.DirectionDecrease, Magnitude: domain.MagnitudeMeasured, Narrative: "Decrease Cash by 5.4 points"},
			{AssetClass: domain.AssetClassBond, Current: 50, Target: 41.4, Delta: -8.6, Direction: domain.DirectionDecrease, Magnitude: domain.MagnitudeMeasured, Narrative: "Decrease Bond by 8.6 points"},
		},
		Holdings: []domain.ClassHoldings{
			{AssetClass: domain.AssetClassEquity, Holdings: []domain.AssetSignal{
				{Ticker: "MSFT", Sector: "Technology", Recommendation: domain.RecommendationBuy, Score: 9.1, Rationale: strings.Repeat("cloud growth ", 10)},
			}},
			{AssetClass: domain.AssetClassBond, Holdings: []domain.AssetSignal{
				{Ticker: "TLT", Label: "Treasury", ExpectedReturn: 4.5, Sentiment: domain.SentimentBullish, Recommendation: domain.RecommendationBuy},
			}},
			{AssetClass: domain.AssetClassGold},
		},
		Scenarios: []domain.ScenarioResult{
			{Scenario: domain.ScenarioBear, ExpectedReturn: -8},
			{Scenario: domain.ScenarioBase, ExpectedReturn: 6},
			{Scenario: domain.ScenarioBull, ExpectedReturn: 14},
		},
		SectorTilts: []domain.SectorTilt{
			{Sector: "Technology", Stance: domain.TiltOverweight, Score: 0.8},
			{Sector: "Energy", Stance: domain.TiltUnderweight, Score: -0.6, FromPreference: true},
		},
		Warnings: []domain.Warning{
			{Code: domain.WarningEmptySignalSet, AssetClass: domain.AssetClassGold, Message: "no eligible Gold/Alternative holdings"},
		},
		Narrative: domain.Narrative{
			ExecutiveSummary: []string{"Strategic mix aligns with your Moderate risk tolerance and 10-year horizon."},
			MacroView:        []string{"Inflation: cooling"},
			Rationale:        "Policy weights follow the Moderate allocation.",
		},
		Performance: &domain.PerformanceStats{AnnualReturn: floatPtr(7.2), Sharpe: floatPtr(0.37)},
		Benchmark:   &domain.PerformanceStats{AnnualReturn: floatPtr(6.5)},
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMarkdown_Sections(t *testing.T) {
	md, err := Markdown(sampleRecommendation())
	require.NoError(t, err)

	sections := []string{
		"# Portfolio Strategy Report",
		"## Executive Summary",
		"## Macro & Market View",
		"## Strategic Asset Allocation",
		"## Sector & Theme Positioning",
		"## Top Asset Recommendations",
		"## Risk & Scenario Analysis",
		"## Key Metrics (Snapshot)",
		"## Implementation Roadmap",
		"## Data Availability",
		"## Preferences, Constraints & Disclosures",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(md, s)
		require.GreaterOrEqual(t, idx, 0, "missing section %q", s)
		assert.Greater(t, idx, last, "section %q out of order", s)
		last = idx
	}
}

func TestMarkdown_Content(t *testing.T) {
	md, err := Markdown(sampleRecommendation())
	require.NoError(t, err)

	expected := []string{
		"**Client:** client-42",
		"**Objective:** Wealth Building",
		"**Time Horizon:** 10 years",
		"- **Equity**: 54%",
		"- Inflation: cooling",
		"| Bond | 41.4% |",
		"- Increase Equity by 14.0 points (current 40.0% → target 54.0%)",
		"- **Overweight:** Technology",
		"- **Underweight:** Energy",
		"- _Signal highlights_: Technology +0.80",
		"### Equity Holdings",
		"| MSFT | Technology | Buy | 9.1 | " + strings.Repeat("cloud growth ", 10)[:50] + "... |",
		"### Fixed Income Holdings",
		"| TLT | Treasury | 4.5% | Bullish |",
		"| Bear | -8% |",
		"| Bull | 14% |",
		"- Return: 7.20%",
		"- Sharpe: 0.37",
		"- Benchmark: Return 6.50%",
		"automated contributions of **$1,500** per month",
		"- no eligible Gold/Alternative holdings",
		"- Sector exclusions: Energy",
		"- ESG preference",
	}
	for _, e := range expected {
		assert.Contains(t, md, e)
	}

	assert.NotContains(t, md, "### Alternative Investments")
	assert.NotContains(t, md, "Metrics not available")
}

func TestMarkdown_Minimal(t *testing.T) {
	rec := &domain.PortfolioRecommendation{
		Profile:       domain.UserProfile{RiskTolerance: domain.RiskConservative, TimeHorizonYears: 5, SectorExclude: []string{"Technology"}},
		PolicyWeights: domain.PolicyWeights{Equity: 30, Bond: 60, Cash: 10},
		Holdings:      []domain.ClassHoldings{{AssetClass: domain.AssetClassEquity}},
	}

	md, err := Markdown(rec)
	require.NoError(t, err)

	assert.Contains(t, md, "**Client:** Client")
	assert.Contains(t, md, "- Neutral sector stance pending clearer signals.")
	assert.Contains(t, md, "_No suitable equity recommendations found (avoiding Technology sectors)._")
	assert.Contains(t, md, "- Metrics not available.")
	assert.NotContains(t, md, "Rebalancing Instructions")
	assert.NotContains(t, md, "automated contributions")
	assert.NotContains(t, md, "## Data Availability")
}

func TestMarkdown_NoHoldings(t *testing.T) {
	md, err := Markdown(&domain.PortfolioRecommendation{})
	require.NoError(t, err)
	assert.Contains(t, md, "- Asset recommendations not available from analysis.")

	_, err = Markdown(nil)
	assert.Error(t, err)
}

func TestJSON(t *testing.T) {
	data, err := JSON(sampleRecommendation())
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, float64(DocumentVersion), doc["version"])
	assert.Equal(t, map[string]interface{}{"Equity": 54.0, "Bond": 41.4, "Cash": 4.6}, doc["target_alloc"])
	assert.Equal(t, map[string]interface{}{"Equity": 50.0, "Bond": 45.0, "Cash": 5.0}, doc["base_alloc"])
	assert.Equal(t, map[string]interface{}{"Equity": 40.0, "Bond": 50.0, "Cash": 10.0}, doc["current_alloc"])
	assert.Equal(t, map[string]interface{}{"Bear": -8.0, "Base": 6.0, "Bull": 14.0}, doc["scenarios"])
	assert.Equal(t, []interface{}{"Technology"}, doc["overweight"])
	assert.Equal(t, []interface{}{"Energy"}, doc["underweight"])
	assert.Len(t, doc["rebalance"], 3)
	assert.Equal(t, "2024-03-01T12:00:00Z", doc["generated_at"])
}

func TestRender(t *testing.T) {
	out, err := Render(sampleRecommendation())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.Markdown, "# Portfolio Strategy Report"))
	assert.True(t, json.Valid(out.JSON))
}

func TestMoney(t *testing.T) {
	testCases := []struct {
		in       float64
		expected string
	}{
		{0, "$0"},
		{999, "$999"},
		{1500, "$1,500"},
		{1234567.4, "$1,234,567"},
		{-2500, "-$2,500"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, money(tc.in))
	}
}
