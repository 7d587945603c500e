package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/aristath/advisor/internal/domain"
)

const rationaleWidth = 50

type weightLine struct {
	Class  domain.AssetClass
	Weight float64
}

type holdingRow struct {
	Ticker         string
	Label          string
	Sector         string
	Recommendation domain.Recommendation
	Score          float64
	ExpectedReturn float64
	Sentiment      domain.Sentiment
	Rationale      string
}

type holdingTable struct {
	Title    string
	Equity   bool
	Rows     []holdingRow
	Excluded string
}

type metric struct {
	Name  string
	Value string
}

type view struct {
	Client      string
	Objective   string
	Risk        string
	Horizon     int
	Band        string
	GeneratedAt string

	Summary   []string
	MacroView []string
	Rationale string
	Policy    []weightLine
	Rebalance []domain.RebalanceInstruction

	Overweight  []string
	Underweight []string
	Highlights  []string

	Holdings  []holdingTable
	Scenarios []domain.ScenarioResult

	Metrics   []metric
	Benchmark string

	Monthly     float64
	Preferences []string
	Warnings    []domain.Warning
}

func newView(rec *domain.PortfolioRecommendation) view {
	p := rec.Profile
	v := view{
		Client:      firstNonEmpty(p.ProfileID, "Client"),
		Objective:   titleCase(firstNonEmpty(p.Objective, domain.DefaultObjective)),
		Risk:        string(p.RiskTolerance),
		Horizon:     p.TimeHorizonYears,
		Band:        rec.HorizonBand,
		GeneratedAt: rec.GeneratedAt.UTC().Format(time.RFC3339),
		Summary:     rec.Narrative.ExecutiveSummary,
		MacroView:   rec.Narrative.MacroView,
		Rationale:   rec.Narrative.Rationale,
		Rebalance:   rec.Rebalance,
		Scenarios:   rec.Scenarios,
		Monthly:     p.MonthlyContribution,
		Warnings:    rec.Warnings,
	}

	for _, class := range []domain.AssetClass{domain.AssetClassEquity, domain.AssetClassBond, domain.AssetClassCash} {
		v.Policy = append(v.Policy, weightLine{Class: class, Weight: rec.PolicyWeights.Get(class)})
	}

	for _, t := range rec.SectorTilts {
		switch t.Stance {
		case domain.TiltOverweight:
			v.Overweight = append(v.Overweight, t.Sector)
		case domain.TiltUnderweight:
			v.Underweight = append(v.Underweight, t.Sector)
		}
		if !t.FromPreference && t.Score != 0 {
			v.Highlights = append(v.Highlights, fmt.Sprintf("%s %+.2f", t.Sector, t.Score))
		}
	}

	for _, ch := range rec.Holdings {
		if table, ok := holdingsTable(ch, p); ok {
			v.Holdings = append(v.Holdings, table)
		}
	}

	v.Metrics = metrics(rec.Performance)
	v.Benchmark = benchmarkLine(rec.Benchmark)
	v.Preferences = preferences(p)
	return v
}

func holdingsTable(ch domain.ClassHoldings, p domain.UserProfile) (holdingTable, bool) {
	table := holdingTable{Equity: ch.AssetClass == domain.AssetClassEquity}
	switch ch.AssetClass {
	case domain.AssetClassEquity:
		table.Title = "Equity Holdings"
	case domain.AssetClassBond:
		table.Title = "Fixed Income Holdings"
	case domain.AssetClassGold:
		table.Title = "Alternative Investments"
	default:
		table.Title = string(ch.AssetClass) + " Holdings"
	}

	for _, h := range ch.Holdings {
		table.Rows = append(table.Rows, holdingRow{
			Ticker:         h.Ticker,
			Label:          firstNonEmpty(strings.ReplaceAll(h.Label, "/", " / "), "-"),
			Sector:         firstNonEmpty(h.Sector, "-"),
			Recommendation: h.Recommendation,
			Score:          h.Score,
			ExpectedReturn: h.ExpectedReturn,
			Sentiment:      h.Sentiment,
			Rationale:      truncate(firstNonEmpty(h.Rationale, "No rationale provided"), rationaleWidth),
		})
	}

	if len(table.Rows) == 0 {
		if table.Equity && len(p.SectorExclude) > 0 {
			table.Excluded = fmt.Sprintf("No suitable equity recommendations found (avoiding %s sectors).", strings.Join(p.SectorExclude, ", "))
			return table, true
		}
		return table, false
	}
	return table, true
}

func metrics(perf *domain.PerformanceStats) []metric {
	if perf.Empty() {
		return nil
	}
	var out []metric
	if perf.AnnualReturn != nil {
		out = append(out, metric{"Return", fmt.Sprintf("%.2f%%", *perf.AnnualReturn)})
	}
	if perf.AnnualVol != nil {
		out = append(out, metric{"Volatility", fmt.Sprintf("%.2f%%", *perf.AnnualVol)})
	}
	if perf.Sharpe != nil {
		out = append(out, metric{"Sharpe", fmt.Sprintf("%.2f", *perf.Sharpe)})
	}
	if perf.MaxDrawdown != nil {
		out = append(out, metric{"Max Drawdown", fmt.Sprintf("%.2f%%", *perf.MaxDrawdown)})
	}
	return out
}

func benchmarkLine(b *domain.PerformanceStats) string {
	if b.Empty() {
		return ""
	}
	var parts []string
	if b.AnnualReturn != nil {
		parts = append(parts, fmt.Sprintf("Return %.2f%%", *b.AnnualReturn))
	}
	if b.AnnualVol != nil {
		parts = append(parts, fmt.Sprintf("Vol %.2f%%", *b.AnnualVol))
	}
	if b.Sharpe != nil {
		parts = append(parts, fmt.Sprintf("Sharpe %.2f", *b.Sharpe))
	}
	return strings.Join(parts, ", ")
}

func preferences(p domain.UserProfile) []string {
	var out []string
	if len(p.SectorInclude) > 0 {
		out = append(out, "Sector preferences: "+strings.Join(p.SectorInclude, ", "))
	}
	if len(p.SectorExclude) > 0 {
		out = append(out, "Sector exclusions: "+strings.Join(p.SectorExclude, ", "))
	}
	if p.PrefersESG {
		out = append(out, "ESG preference: apply positive screening where feasible.")
	}
	if p.NeedsLiquidity {
		out = append(out, "Liquidity needs: maintain a dedicated cash sleeve.")
	}
	if p.TaxSensitive {
		out = append(out, "Tax sensitivity: consider tax-efficient wrappers and asset location.")
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// titleCase upper-cases the first letter of every word
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[:1])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

// money formats an amount with thousands separators and no decimals
func money(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}
