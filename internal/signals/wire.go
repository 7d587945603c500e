package signals

import (
	"encoding/json"
	"strings"

	"github.com/aristath/advisor/internal/domain"
)

// Upstream analysis documents express returns as fractions (0.06 = 6%).
const fractionToPercent = 100

// confidence accepts a number or a "high"/"medium"/"low" label
type confidence float64

func (c *confidence) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		switch strings.ToLower(strings.TrimSpace(label)) {
		case "high":
			*c = 0.8
		case "medium":
			*c = 0.6
		case "low":
			*c = 0.4
		default:
			*c = 0
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = confidence(v)
	return nil
}

// scenarioWire is a Bear/Base/Bull triple of fractional returns
type scenarioWire struct {
	Bear float64 `json:"bear"`
	Base float64 `json:"base"`
	Bull float64 `json:"bull"`
}

func (s scenarioWire) toDomain() domain.ScenarioReturns {
	return domain.ScenarioReturns{
		Bear: s.Bear * fractionToPercent,
		Base: s.Base * fractionToPercent,
		Bull: s.Bull * fractionToPercent,
	}
}

// macroWire is the macro model output
type macroWire struct {
	Bias       string                 `json:"bias"`
	Regime     string                 `json:"regime"`
	Confidence *confidence            `json:"confidence"`
	Scenarios  *scenarioWire          `json:"scenarios"`
	Context    map[string]interface{} `json:"context"`
}

// macroDocument is a macro_analysis file or service response. The signals
// may sit at the top level or under "signals".
type macroDocument struct {
	macroWire
	Signals      *macroWire             `json:"signals"`
	MacroContext map[string]interface{} `json:"macro_context"`
}

func (d macroDocument) toDomain() (*domain.MacroSignal, bool) {
	w := d.macroWire
	if d.Signals != nil {
		w = *d.Signals
	}
	if w.Confidence == nil && w.Bias == "" && w.Regime == "" {
		return nil, false
	}

	bias := w.Bias
	if bias == "" {
		bias = w.Regime
	}
	signal := &domain.MacroSignal{
		Bias:    domain.ParseBias(bias),
		Context: make(map[string]string),
	}
	if w.Confidence != nil {
		signal.Confidence = float64(*w.Confidence)
	}
	if w.Scenarios != nil {
		signal.Scenarios = w.Scenarios.toDomain()
	}
	for _, ctx := range []map[string]interface{}{d.MacroContext, w.Context} {
		for k, v := range ctx {
			if text := contextText(v); text != "" {
				signal.Context[k] = text
			}
		}
	}
	return signal, true
}

// contextText renders scalar context values; nested values are skipped
func contextText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		b, _ := json.Marshal(t)
		return string(b)
	case bool:
		if t {
			return "yes"
		}
		return "no"
	}
	return ""
}

// assetWire is one entry of an asset analysis ranking
type assetWire struct {
	Ticker         string      `json:"ticker"`
	Symbol         string      `json:"symbol"`
	Sector         string      `json:"sector"`
	Rank           *int        `json:"rank"`
	Score          *float64    `json:"score"`
	ExpectedReturn *float64    `json:"expected_return"`
	Signal         string      `json:"signal"`
	Sentiment      string      `json:"sentiment"`
	Confidence     *confidence `json:"confidence"`
	Reason         string      `json:"reason"`
	Summary        string      `json:"summary"`
	Label          string      `json:"label"`
	BondType       string      `json:"bond_type"`
	GoldType       string      `json:"gold_type"`
	PriceHistory   []float64   `json:"price_history"`
}

func (w assetWire) ticker() string {
	if w.Ticker != "" {
		return strings.TrimSpace(w.Ticker)
	}
	return strings.TrimSpace(w.Symbol)
}

func (w assetWire) toDomain(class domain.AssetClass) domain.AssetSignal {
	s := domain.AssetSignal{
		Ticker:     w.ticker(),
		AssetClass: class,
		Sector:     strings.TrimSpace(w.Sector),
		Rationale:  firstNonEmpty(w.Reason, w.Summary),
		Label:      firstNonEmpty(w.Label, w.BondType, w.GoldType),
	}

	if w.ExpectedReturn != nil {
		s.ExpectedReturn = *w.ExpectedReturn * fractionToPercent
	}

	switch {
	case w.Sentiment != "":
		s.Sentiment = domain.ParseSentiment(w.Sentiment)
	case class == domain.AssetClassGold && len(w.PriceHistory) > 0:
		s.Sentiment = TechnicalSentiment(w.PriceHistory)
	case w.Signal != "":
		s.Sentiment = sentimentFor(domain.ParseRecommendation(w.Signal))
	default:
		s.Sentiment = domain.SentimentNeutral
	}

	if w.Signal != "" {
		s.Recommendation = domain.ParseRecommendation(w.Signal)
	} else {
		s.Recommendation = recommendationFor(s.Sentiment)
	}

	switch {
	case w.Score != nil:
		s.Score = *w.Score
	case w.Confidence != nil:
		s.Score = float64(*w.Confidence) * 10
	default:
		s.Score = s.ExpectedReturn
	}
	return s
}

func sentimentFor(r domain.Recommendation) domain.Sentiment {
	switch r {
	case domain.RecommendationBuy:
		return domain.SentimentBullish
	case domain.RecommendationSell:
		return domain.SentimentBearish
	}
	return domain.SentimentNeutral
}

func recommendationFor(s domain.Sentiment) domain.Recommendation {
	switch s {
	case domain.SentimentBullish:
		return domain.RecommendationBuy
	case domain.SentimentBearish:
		return domain.RecommendationSell
	}
	return domain.RecommendationHold
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// assetDocument is an asset analysis file or service response. Rankings
// are read from the first non-empty known location.
type assetDocument struct {
	AnalysisType   string      `json:"analysis_type"`
	Signals        []assetWire `json:"signals"`
	SignalsSummary []assetWire `json:"signals_summary"`
	Horizons       struct {
		NextQuarter []assetWire `json:"next_quarter"`
	} `json:"horizons"`
	StockRanking struct {
		Ranking []assetWire `json:"ranking"`
	} `json:"stock_ranking"`
	Ranking   json.RawMessage `json:"ranking"`
	Scenarios *scenarioWire   `json:"scenarios"`
}

func (d assetDocument) entries() []assetWire {
	for _, list := range [][]assetWire{d.Signals, d.SignalsSummary, d.Horizons.NextQuarter, d.StockRanking.Ranking} {
		if len(list) > 0 {
			return list
		}
	}
	// "ranking" is a list in stock files but an object elsewhere
	var ranking []assetWire
	if len(d.Ranking) > 0 && json.Unmarshal(d.Ranking, &ranking) == nil {
		return ranking
	}
	return nil
}

func (d assetDocument) toDomain(class domain.AssetClass) []domain.AssetSignal {
	entries := d.entries()
	out := make([]domain.AssetSignal, 0, len(entries))
	for _, e := range entries {
		if e.ticker() == "" {
			continue
		}
		out = append(out, e.toDomain(class))
	}
	return out
}
