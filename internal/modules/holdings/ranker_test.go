package holdings

import (
	"testing"

	"github.com/aristath/advisor/internal/domain"
	"github.com/stretchr/testify/assert"
)

func tickers(signals []domain.AssetSignal) []string {
	out := make([]string, 0, len(signals))
	for _, s := range signals {
		out = append(out, s.Ticker)
	}
	return out
}

func TestRank(t *testing.T) {
	tests := []struct {
		name     string
		signals  []domain.AssetSignal
		expected []string
	}{
		{
			name: "recommendation before score",
			signals: []domain.AssetSignal{
				{Ticker: "A", Recommendation: domain.RecommendationBuy, Score: 7.5},
				{Ticker: "B", Recommendation: domain.RecommendationBuy, Score: 7.0},
				{Ticker: "C", Recommendation: domain.RecommendationHold, Score: 9.0},
			},
			expected: []string{"A", "B", "C"},
		},
		{
			name: "sell ranks last",
			signals: []domain.AssetSignal{
				{Ticker: "S", Recommendation: domain.RecommendationSell, Score: 10},
				{Ticker: "H", Recommendation: domain.RecommendationHold, Score: 1},
				{Ticker: "B", Recommendation: domain.RecommendationBuy, Score: 0},
			},
			expected: []string{"B", "H", "S"},
		},
		{
			name: "ties keep input order",
			signals: []domain.AssetSignal{
				{Ticker: "X", Recommendation: domain.RecommendationBuy, Score: 5},
				{Ticker: "Y", Recommendation: domain.RecommendationBuy, Score: 5},
				{Ticker: "Z", Recommendation: domain.RecommendationBuy, Score: 5},
			},
			expected: []string{"X", "Y", "Z"},
		},
		{
			name:     "empty",
			signals:  nil,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tickers(Rank(tt.signals)))
		})
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	signals := []domain.AssetSignal{
		{Ticker: "C", Recommendation: domain.RecommendationHold, Score: 9.0},
		{Ticker: "A", Recommendation: domain.RecommendationBuy, Score: 7.5},
	}
	Rank(signals)
	assert.Equal(t, "C", signals[0].Ticker)
}

func TestTop_NoPadding(t *testing.T) {
	signals := []domain.AssetSignal{
		{Ticker: "A", Recommendation: domain.RecommendationBuy, Score: 1},
		{Ticker: "B", Recommendation: domain.RecommendationBuy, Score: 2},
	}
	assert.Equal(t, []string{"B", "A"}, tickers(Top(signals, 5)))
	assert.Equal(t, []string{"B"}, tickers(Top(signals, 1)))
	assert.Empty(t, Top(signals, 0))
}
