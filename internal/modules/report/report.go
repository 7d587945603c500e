// Package report renders portfolio recommendations as an investor-facing
// markdown report and a machine-readable JSON document.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/aristath/advisor/internal/domain"
)

// DocumentVersion is bumped when the JSON document layout changes
const DocumentVersion = 1

var markdownTmpl = template.Must(template.New("portfolio_report").Funcs(template.FuncMap{
	"pct0":  func(v float64) string { return fmt.Sprintf("%.0f%%", v) },
	"pct1":  func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"join":  func(items []string) string { return strings.Join(items, ", ") },
	"money": money,
}).Parse(markdownTemplate))

// Markdown renders the recommendation as a markdown report
func Markdown(rec *domain.PortfolioRecommendation) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("nil recommendation")
	}

	var buf bytes.Buffer
	if err := markdownTmpl.Execute(&buf, newView(rec)); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// Document is the JSON rendering of a recommendation. Weights and returns
// are percentages.
type Document struct {
	Version           int                           `json:"version"`
	GeneratedAt       time.Time                     `json:"generated_at"`
	Profile           domain.UserProfile            `json:"profile"`
	Macro             domain.MacroSummary           `json:"macro"`
	HorizonBand       string                        `json:"horizon_band,omitempty"`
	BaseAllocation    map[domain.AssetClass]float64 `json:"base_alloc"`
	TargetAllocation  map[domain.AssetClass]float64 `json:"target_alloc"`
	CurrentAllocation map[domain.AssetClass]float64 `json:"current_alloc"`
	Rebalance         []domain.RebalanceInstruction `json:"rebalance"`
	Overweight        []string                      `json:"overweight"`
	Underweight       []string                      `json:"underweight"`
	SectorTilts       []domain.SectorTilt           `json:"sector_tilts"`
	Holdings          []domain.ClassHoldings        `json:"holdings"`
	Scenarios         map[domain.Scenario]float64   `json:"scenarios"`
	Performance       *domain.PerformanceStats      `json:"performance,omitempty"`
	Benchmark         *domain.PerformanceStats      `json:"benchmark,omitempty"`
	Narrative         domain.Narrative              `json:"narrative"`
	Warnings          []domain.Warning              `json:"warnings"`
}

// NewDocument builds the JSON document of a recommendation
func NewDocument(rec *domain.PortfolioRecommendation) Document {
	doc := Document{
		Version:           DocumentVersion,
		GeneratedAt:       rec.GeneratedAt,
		Profile:           rec.Profile,
		Macro:             rec.Macro,
		HorizonBand:       rec.HorizonBand,
		BaseAllocation:    weightMap(rec.BaseWeights),
		TargetAllocation:  weightMap(rec.PolicyWeights),
		CurrentAllocation: make(map[domain.AssetClass]float64, len(rec.Rebalance)),
		Rebalance:         rec.Rebalance,
		Overweight:        []string{},
		Underweight:       []string{},
		SectorTilts:       rec.SectorTilts,
		Holdings:          rec.Holdings,
		Scenarios:         make(map[domain.Scenario]float64, len(rec.Scenarios)),
		Performance:       rec.Performance,
		Benchmark:         rec.Benchmark,
		Narrative:         rec.Narrative,
		Warnings:          rec.Warnings,
	}

	for _, r := range rec.Rebalance {
		doc.CurrentAllocation[r.AssetClass] = r.Current
	}
	for _, t := range rec.SectorTilts {
		if t.Stance == domain.TiltOverweight {
			doc.Overweight = append(doc.Overweight, t.Sector)
		} else {
			doc.Underweight = append(doc.Underweight, t.Sector)
		}
	}
	for _, s := range rec.Scenarios {
		doc.Scenarios[s.Scenario] = s.ExpectedReturn
	}
	return doc
}

func weightMap(w domain.PolicyWeights) map[domain.AssetClass]float64 {
	return map[domain.AssetClass]float64{
		domain.AssetClassEquity: w.Equity,
		domain.AssetClassBond:   w.Bond,
		domain.AssetClassCash:   w.Cash,
	}
}

// JSON renders the recommendation as an indented JSON document
func JSON(rec *domain.PortfolioRecommendation) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("nil recommendation")
	}
	data, err := json.MarshalIndent(NewDocument(rec), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

// Rendered holds both renderings of one recommendation
type Rendered struct {
	Markdown string
	JSON     []byte
}

// Render produces the markdown and JSON renderings
func Render(rec *domain.PortfolioRecommendation) (*Rendered, error) {
	md, err := Markdown(rec)
	if err != nil {
		return nil, err
	}
	data, err := JSON(rec)
	if err != nil {
		return nil, err
	}
	return &Rendered{Markdown: md, JSON: data}, nil
}
