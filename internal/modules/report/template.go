package report

const markdownTemplate = `# Portfolio Strategy Report

**Client:** {{ .Client }}  
**Objective:** {{ .Objective }}  
**Risk Tolerance:** {{ .Risk }}  
**Time Horizon:** {{ .Horizon }} years  
**Generated:** {{ .GeneratedAt }}

*For discussion purposes only; not investment advice.*

---

## Executive Summary
{{ range .Summary }}
- {{ . }}
{{- end }}

**Policy Weights:**
{{ range .Policy }}
- **{{ .Class }}**: {{ pct0 .Weight }}
{{- end }}

## Macro & Market View
{{ range .MacroView }}
- {{ . }}
{{- end }}

## Strategic Asset Allocation

{{ .Rationale }}
{{ if .Band }}
Policy table: {{ .Band }} horizon band.
{{ end }}
| Asset Class | Target |
|---|---:|
{{- range .Policy }}
| {{ .Class }} | {{ pct1 .Weight }} |
{{- end }}
{{ if .Rebalance }}
**Rebalancing Instructions:**
{{ range .Rebalance }}
- {{ .Narrative }} (current {{ pct1 .Current }} → target {{ pct1 .Target }})
{{- end }}
{{ end }}
## Sector & Theme Positioning
{{ if .Overweight }}
- **Overweight:** {{ join .Overweight }}
{{- end }}
{{- if .Underweight }}
- **Underweight:** {{ join .Underweight }}
{{- end }}
{{- if .Highlights }}
- _Signal highlights_: {{ join .Highlights }}
{{- end }}
{{- if not (or .Overweight .Underweight) }}
- Neutral sector stance pending clearer signals.
{{- end }}

## Top Asset Recommendations
{{ range .Holdings }}
### {{ .Title }}
{{ if .Excluded }}
_{{ .Excluded }}_
{{ else if .Equity }}
| Ticker | Sector | Signal | Score | Rationale |
|--------|--------|--------|-------|-----------|
{{- range .Rows }}
| {{ .Ticker }} | {{ .Sector }} | {{ .Recommendation }} | {{ printf "%.1f" .Score }} | {{ .Rationale }} |
{{- end }}
{{ else }}
| Ticker | Type | Expected Return | Sentiment | Rationale |
|--------|------|-----------------|-----------|-----------|
{{- range .Rows }}
| {{ .Ticker }} | {{ .Label }} | {{ pct1 .ExpectedReturn }} | {{ .Sentiment }} | {{ .Rationale }} |
{{- end }}
{{ end }}
{{- else }}
- Asset recommendations not available from analysis.
{{ end }}
_Recommendations based on current market analysis and risk-adjusted scoring._

## Risk & Scenario Analysis

| Scenario | 1Y Expected Return |
|---|---:|
{{- range .Scenarios }}
| {{ .Scenario }} | {{ pct0 .ExpectedReturn }} |
{{- end }}

Key risks: policy surprises, inflation shocks, geopolitics, liquidity stress. Mitigation: diversification, disciplined rebalancing, cash sleeve.

## Key Metrics (Snapshot)
{{ range .Metrics }}
- {{ .Name }}: {{ .Value }}
{{- else }}
- Metrics not available.
{{- end }}
{{- if .Benchmark }}
- Benchmark: {{ .Benchmark }}
{{- end }}

## Implementation Roadmap

**0-30 Days**
- Rebalance toward policy weights; stage trades if large.
- Fund cash sleeve for near-term needs/opportunities.
{{- if gt .Monthly 0.0 }}
- Set up automated contributions of **{{ money .Monthly }}** per month.
{{- end }}

**3-6 Months**
- Review performance vs. policy; adjust tactical tilts as needed.
- Reassess macro drivers and sector earnings revisions.

**12 Months**
- Policy review; reset target weights and guardrails if required.
{{ if .Warnings }}
## Data Availability
{{ range .Warnings }}
- {{ .Message }}
{{- end }}
{{ end }}
## Preferences, Constraints & Disclosures
{{ range .Preferences }}
- {{ . }}
{{- end }}

*Illustrative only; not investment advice.*
`
