package portfolio

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/scenarios"
)

// DefaultMacroView is used when the macro signal carries no context
var DefaultMacroView = []string{
	"Macro conditions remain mixed; policy rates stay restrictive while inflation trends lower.",
	"Earnings leadership skews to quality growth; breadth is gradually improving.",
	"Diversification across equities, duration and alternatives remains beneficial.",
}

// BuildNarrative writes the executive summary, macro view and rationale of
// a recommendation. Output depends only on its inputs.
func BuildNarrative(rec *domain.PortfolioRecommendation, macro *domain.MacroSignal) domain.Narrative {
	return domain.Narrative{
		ExecutiveSummary: executiveSummary(rec),
		MacroView:        macroView(macro),
		Rationale:        rationale(rec),
	}
}

func executiveSummary(rec *domain.PortfolioRecommendation) []string {
	var lines []string

	if perf := rec.Performance; !perf.Empty() {
		if perf.AnnualReturn != nil {
			line := fmt.Sprintf("Annualized return %.2f%%.", *perf.AnnualReturn)
			if b := rec.Benchmark; b != nil && b.AnnualReturn != nil {
				diff := *perf.AnnualReturn - *b.AnnualReturn
				comp := "matched"
				if diff > 0 {
					comp = "outperformed"
				} else if diff < 0 {
					comp = "underperformed"
				}
				line = fmt.Sprintf("Annualized return %.2f%%, %s benchmark by %.2f%%.", *perf.AnnualReturn, comp, math.Abs(diff))
			}
			lines = append(lines, line)
		}
		if perf.Sharpe != nil {
			lines = append(lines, fmt.Sprintf("Sharpe ratio %.2f.", *perf.Sharpe))
		}
		if perf.MaxDrawdown != nil {
			lines = append(lines, fmt.Sprintf("Max drawdown %.2f%%.", *perf.MaxDrawdown))
		}
	}

	lines = append(lines, fmt.Sprintf("Strategic mix aligns with your %s risk tolerance and %d-year horizon.",
		rec.Profile.RiskTolerance, rec.Profile.TimeHorizonYears))

	lo, hi := scenarios.Range(rec.Scenarios)
	lines = append(lines, fmt.Sprintf("1Y scenario range: %.0f%% to %.0f%%; base case %.0f%%.",
		lo, hi, rec.ScenarioReturn(domain.ScenarioBase)))

	if rec.Macro.TiltApplied != 0 {
		lines = append(lines, fmt.Sprintf("Equity tilted %+.1f points on a %s macro view (confidence %.0f%%).",
			rec.Macro.TiltApplied, rec.Macro.Bias, rec.Macro.Confidence*100))
	}

	return lines
}

func macroView(macro *domain.MacroSignal) []string {
	if macro == nil || len(macro.Context) == 0 {
		out := make([]string, len(DefaultMacroView))
		copy(out, DefaultMacroView)
		return out
	}

	keys := make([]string, 0, len(macro.Context))
	for k := range macro.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", titleKey(k), macro.Context[k]))
	}
	return lines
}

func rationale(rec *domain.PortfolioRecommendation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Policy weights follow the %s allocation", rec.Profile.RiskTolerance)
	if rec.HorizonBand != "" {
		fmt.Fprintf(&b, " for a %s horizon", rec.HorizonBand)
	}
	fmt.Fprintf(&b, " (Equity %.0f%%, Bond %.0f%%, Cash %.0f%%)", rec.BaseWeights.Equity, rec.BaseWeights.Bond, rec.BaseWeights.Cash)

	switch {
	case !rec.Macro.Available:
		b.WriteString(". No macro signal was available, so no tactical tilt was applied.")
	case rec.Macro.TiltApplied != 0:
		fmt.Fprintf(&b, ", tilted to Equity %.1f%%, Bond %.1f%%, Cash %.1f%% on a %s macro bias.",
			rec.PolicyWeights.Equity, rec.PolicyWeights.Bond, rec.PolicyWeights.Cash, rec.Macro.Bias)
	default:
		fmt.Fprintf(&b, ". The %s macro view (confidence %.0f%%) did not warrant a tilt.", rec.Macro.Bias, rec.Macro.Confidence*100)
	}

	return b.String()
}

// titleKey turns "inflation_trend" into "Inflation Trend"
func titleKey(k string) string {
	words := strings.Fields(strings.ReplaceAll(k, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
