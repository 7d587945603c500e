package signals

import (
	"math"

	"github.com/aristath/advisor/internal/domain"
	"github.com/markcheno/go-talib"
)

const (
	smaPeriod = 20
	rsiPeriod = 14

	rsiOverbought = 70
	rsiOversold   = 30
)

// TechnicalSentiment derives a sentiment from a price history (oldest
// first) when the upstream analysis reported none: above its 20-period SMA
// and not overbought is Bullish, below it and not oversold is Bearish.
// Short histories are Neutral.
func TechnicalSentiment(closes []float64) domain.Sentiment {
	if len(closes) < smaPeriod || len(closes) < rsiPeriod+1 {
		return domain.SentimentNeutral
	}

	sma := last(talib.Sma(closes, smaPeriod))
	rsi := last(talib.Rsi(closes, rsiPeriod))
	price := closes[len(closes)-1]
	if math.IsNaN(sma) || math.IsNaN(rsi) || sma == 0 {
		return domain.SentimentNeutral
	}

	switch {
	case price > sma && rsi < rsiOverbought:
		return domain.SentimentBullish
	case price < sma && rsi > rsiOversold:
		return domain.SentimentBearish
	}
	return domain.SentimentNeutral
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}
