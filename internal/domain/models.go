// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"strings"
)

// RiskTolerance represents the investor's appetite for risk
type RiskTolerance string

const (
	RiskConservative RiskTolerance = "Conservative"
	RiskModerate     RiskTolerance = "Moderate"
	RiskAggressive   RiskTolerance = "Aggressive"
)

// RiskTolerances lists the recognized tolerances in ascending risk order
var RiskTolerances = []RiskTolerance{RiskConservative, RiskModerate, RiskAggressive}

// ParseRiskTolerance parses a tolerance case-insensitively ("moderate" -> Moderate)
func ParseRiskTolerance(s string) (RiskTolerance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "conservative":
		return RiskConservative, nil
	case "moderate":
		return RiskModerate, nil
	case "aggressive":
		return RiskAggressive, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnrecognizedRiskTolerance, s)
}

// AssetClass represents a portfolio bucket
type AssetClass string

const (
	AssetClassEquity AssetClass = "Equity"
	AssetClassBond   AssetClass = "Bond"
	AssetClassCash   AssetClass = "Cash"
	// AssetClassGold covers gold and other alternatives. It carries signals
	// but no policy weight of its own.
	AssetClassGold AssetClass = "Gold/Alternative"
)

// SignalClasses lists the classes that upstream analysis produces signals for
var SignalClasses = []AssetClass{AssetClassEquity, AssetClassBond, AssetClassGold}

// PolicyClasses lists the classes that receive a policy weight
var PolicyClasses = []AssetClass{AssetClassEquity, AssetClassBond, AssetClassCash}

// ParseAssetClass parses an asset class name, accepting common aliases
func ParseAssetClass(s string) (AssetClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equity", "equities", "stock", "stocks":
		return AssetClassEquity, nil
	case "bond", "bonds", "fixed income":
		return AssetClassBond, nil
	case "cash":
		return AssetClassCash, nil
	case "gold", "gold/alternative", "alternative", "alternatives", "commodities":
		return AssetClassGold, nil
	}
	return "", fmt.Errorf("unknown asset class %q", s)
}

// Recommendation is the upstream buy/hold/sell call for a ticker
type Recommendation string

const (
	RecommendationBuy  Recommendation = "Buy"
	RecommendationHold Recommendation = "Hold"
	RecommendationSell Recommendation = "Sell"
)

// Rank orders recommendations for ranking: Buy > Hold > Sell.
// Unknown values rank below Sell.
func (r Recommendation) Rank() int {
	switch r {
	case RecommendationBuy:
		return 3
	case RecommendationHold:
		return 2
	case RecommendationSell:
		return 1
	}
	return 0
}

// Direction maps Buy/Hold/Sell to +1/0/-1
func (r Recommendation) Direction() float64 {
	switch r {
	case RecommendationBuy:
		return 1
	case RecommendationSell:
		return -1
	}
	return 0
}

// ParseRecommendation normalizes upstream signal labels ("Strong Buy" -> Buy)
func ParseRecommendation(s string) Recommendation {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(v, "buy"):
		return RecommendationBuy
	case strings.Contains(v, "sell"):
		return RecommendationSell
	}
	return RecommendationHold
}

// Sentiment is the qualitative outlook of an asset
type Sentiment string

const (
	SentimentBullish Sentiment = "Bullish"
	SentimentNeutral Sentiment = "Neutral"
	SentimentBearish Sentiment = "Bearish"
)

// ParseSentiment normalizes a sentiment label, defaulting to Neutral
func ParseSentiment(s string) Sentiment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bullish", "positive", "buy":
		return SentimentBullish
	case "bearish", "negative", "sell":
		return SentimentBearish
	}
	return SentimentNeutral
}

// Bias is the directional market view of the macro model
type Bias string

const (
	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
	BiasNeutral Bias = "neutral"
)

// ParseBias normalizes a bias label, defaulting to neutral
func ParseBias(s string) Bias {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bullish", "bull", "up", "risk-on":
		return BiasBullish
	case "bearish", "bear", "down", "risk-off":
		return BiasBearish
	}
	return BiasNeutral
}

// Scenario names a one-year macro scenario
type Scenario string

const (
	ScenarioBear Scenario = "Bear"
	ScenarioBase Scenario = "Base"
	ScenarioBull Scenario = "Bull"
)

// Scenarios lists scenarios in report order
var Scenarios = []Scenario{ScenarioBear, ScenarioBase, ScenarioBull}

// ScenarioReturns holds signed percentage returns per scenario
type ScenarioReturns struct {
	Bear float64 `json:"bear" yaml:"bear" msgpack:"bear"`
	Base float64 `json:"base" yaml:"base" msgpack:"base"`
	Bull float64 `json:"bull" yaml:"bull" msgpack:"bull"`
}

// Get returns the return for a scenario
func (s ScenarioReturns) Get(scenario Scenario) float64 {
	switch scenario {
	case ScenarioBear:
		return s.Bear
	case ScenarioBull:
		return s.Bull
	}
	return s.Base
}
