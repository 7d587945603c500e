package signals

import (
	"sort"
	"strings"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/allocation"
)

// inferredSectorStrength is the signal given to the most common sector of
// a stock/ETF pick list that carries no explicit sector signals
const inferredSectorStrength = 0.4

// Locations of optional data inside analysis documents, tried in order
var (
	performancePaths = [][]string{{"performance"}, {"metrics"}}
	benchmarkPaths   = [][]string{{"benchmark"}, {"bench"}, {"reference", "benchmark"}}
	weightPaths      = [][]string{
		{"current_alloc"},
		{"portfolio", "weights"},
		{"portfolio", "current", "asset_classes"},
		{"allocations", "current", "asset_classes"},
	}
	sectorSignalPaths = [][]string{{"signals", "sectors"}, {"ranking", "sector_signal"}, {"sectors", "signals"}}
	pickListKeys      = []string{"stocks", "equities", "etfs", "etf"}
)

// supplementBuilder merges optional data out of generic JSON documents
type supplementBuilder struct {
	performance map[string]float64
	benchmark   map[string]float64
	weights     map[string]float64
	sectors     map[string]float64
	scenarios   map[domain.AssetClass]domain.ScenarioReturns
}

func newSupplementBuilder() *supplementBuilder {
	return &supplementBuilder{
		performance: make(map[string]float64),
		benchmark:   make(map[string]float64),
		weights:     make(map[string]float64),
		sectors:     make(map[string]float64),
		scenarios:   make(map[domain.AssetClass]domain.ScenarioReturns),
	}
}

// add merges one decoded document
func (b *supplementBuilder) add(doc map[string]interface{}) {
	if perf, ok := dig(doc, performancePaths...).(map[string]interface{}); ok {
		copyNumbers(b.performance, perf, "annual_return", "annual_vol", "sharpe", "max_drawdown")
	}
	if bench, ok := dig(doc, benchmarkPaths...).(map[string]interface{}); ok {
		copyNumbers(b.benchmark, bench, "annual_return", "annual_vol", "sharpe")
	}
	if weights, ok := dig(doc, weightPaths...).(map[string]interface{}); ok {
		for k, v := range weights {
			if f, ok := v.(float64); ok {
				b.weights[k] = f
			}
		}
	}
	if sectors, ok := dig(doc, sectorSignalPaths...).(map[string]interface{}); ok {
		for k, v := range sectors {
			if f, ok := v.(float64); ok {
				b.sectors[k] = f
			}
		}
	}
	for _, key := range pickListKeys {
		if list, ok := doc[key].([]interface{}); ok {
			b.inferSector(list)
		}
	}
}

// addScenarios records per-class scenario returns (fractions)
func (b *supplementBuilder) addScenarios(class domain.AssetClass, s *scenarioWire) {
	if s != nil {
		b.scenarios[class] = s.toDomain()
	}
}

// inferSector marks the most frequent sector of a pick list as mildly
// positive. Ties go to the alphabetically first sector.
func (b *supplementBuilder) inferSector(list []interface{}) {
	counts := make(map[string]int)
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if sector, ok := entry["sector"].(string); ok && strings.TrimSpace(sector) != "" {
			counts[strings.TrimSpace(sector)]++
		}
	}
	if len(counts) == 0 {
		return
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	top := names[0]
	for _, name := range names[1:] {
		if counts[name] > counts[top] {
			top = name
		}
	}
	if b.sectors[top] < inferredSectorStrength {
		b.sectors[top] = inferredSectorStrength
	}
}

func (b *supplementBuilder) build() *Supplement {
	s := &Supplement{
		Performance:    statsFrom(b.performance),
		Benchmark:      statsFrom(b.benchmark),
		SectorSignals:  b.sectors,
		ClassScenarios: b.scenarios,
	}
	if weights, err := allocation.CurrentWeights(b.weights); err == nil && len(weights) > 0 {
		s.CurrentWeights = weights
	}
	return s
}

// statsFrom converts fractional statistics to percentages (Sharpe stays a ratio)
func statsFrom(values map[string]float64) *domain.PerformanceStats {
	if len(values) == 0 {
		return nil
	}
	pct := func(key string) *float64 {
		v, ok := values[key]
		if !ok {
			return nil
		}
		v *= fractionToPercent
		return &v
	}
	stats := &domain.PerformanceStats{
		AnnualReturn: pct("annual_return"),
		AnnualVol:    pct("annual_vol"),
		MaxDrawdown:  pct("max_drawdown"),
	}
	if v, ok := values["sharpe"]; ok {
		stats.Sharpe = &v
	}
	return stats
}

func copyNumbers(dst map[string]float64, src map[string]interface{}, keys ...string) {
	for _, k := range keys {
		if v, ok := src[k].(float64); ok {
			dst[k] = v
		}
	}
}

// dig returns the first non-nil value found along any of the key paths
func dig(doc map[string]interface{}, paths ...[]string) interface{} {
	for _, path := range paths {
		var cur interface{} = doc
		found := true
		for _, key := range path {
			m, ok := cur.(map[string]interface{})
			if !ok {
				found = false
				break
			}
			if cur, ok = m[key]; !ok {
				found = false
				break
			}
		}
		if found && cur != nil {
			return cur
		}
	}
	return nil
}
