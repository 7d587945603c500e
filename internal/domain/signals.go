package domain

// MacroSignal is the macro model output for one run. Immutable once produced.
type MacroSignal struct {
	Confidence float64           `json:"confidence" msgpack:"confidence"` // 0-1
	Bias       Bias              `json:"bias" msgpack:"bias"`
	Scenarios  ScenarioReturns   `json:"scenarios" msgpack:"scenarios"`
	Context    map[string]string `json:"context,omitempty" msgpack:"context"`
}

// AssetSignal is one per-ticker output of an upstream analysis agent
type AssetSignal struct {
	Ticker         string         `json:"ticker" msgpack:"ticker"`
	AssetClass     AssetClass     `json:"asset_class" msgpack:"asset_class"`
	Sector         string         `json:"sector,omitempty" msgpack:"sector"`
	Recommendation Recommendation `json:"recommendation" msgpack:"recommendation"`
	Score          float64        `json:"score" msgpack:"score"`
	ExpectedReturn float64        `json:"expected_return" msgpack:"expected_return"` // %
	Sentiment      Sentiment      `json:"sentiment" msgpack:"sentiment"`
	Rationale      string         `json:"rationale,omitempty" msgpack:"rationale"`

	// Label is a display subtype, e.g. "Treasury" for bonds or "Physical Gold"
	Label string `json:"label,omitempty" msgpack:"label"`
}

// SignalSet bundles everything the allocator consumes for one run.
//
// A nil Macro or an entry in Unavailable is the "signal unavailable"
// sentinel: the allocator reports it as a warning and treats the missing
// data as empty (no tilt, zero scenario contribution).
type SignalSet struct {
	Macro  *MacroSignal
	Assets map[AssetClass][]AssetSignal

	// Unavailable records classes whose provider failed; values wrap ErrSignalUnavailable
	Unavailable map[AssetClass]error

	// ClassScenarios holds optional per-class scenario returns
	ClassScenarios map[AssetClass]ScenarioReturns

	// SectorSignals holds optional explicit sector strengths in [-1, 1]
	SectorSignals map[string]float64

	// Performance and Benchmark hold optional historical statistics of the
	// current portfolio and its reference index
	Performance *PerformanceStats
	Benchmark   *PerformanceStats

	// CurrentWeights is the current allocation reported by upstream analysis
	// (percent per class), used when the caller supplies none
	CurrentWeights map[AssetClass]float64
}

// PerformanceStats are annualized statistics in percent (Sharpe is a ratio).
// Nil fields were not reported.
type PerformanceStats struct {
	AnnualReturn *float64 `json:"annual_return,omitempty" msgpack:"annual_return"`
	AnnualVol    *float64 `json:"annual_vol,omitempty" msgpack:"annual_vol"`
	Sharpe       *float64 `json:"sharpe,omitempty" msgpack:"sharpe"`
	MaxDrawdown  *float64 `json:"max_drawdown,omitempty" msgpack:"max_drawdown"`
}

// Empty reports whether no statistic is set
func (p *PerformanceStats) Empty() bool {
	return p == nil || (p.AnnualReturn == nil && p.AnnualVol == nil && p.Sharpe == nil && p.MaxDrawdown == nil)
}

// NewSignalSet creates an empty signal set
func NewSignalSet() *SignalSet {
	return &SignalSet{
		Assets:         make(map[AssetClass][]AssetSignal),
		Unavailable:    make(map[AssetClass]error),
		ClassScenarios: make(map[AssetClass]ScenarioReturns),
		SectorSignals:  make(map[string]float64),
	}
}

// MarkUnavailable records a failed provider for a class
func (s *SignalSet) MarkUnavailable(class AssetClass, err error) {
	if s.Unavailable == nil {
		s.Unavailable = make(map[AssetClass]error)
	}
	s.Unavailable[class] = err
}

// IsUnavailable reports whether the provider for a class failed
func (s *SignalSet) IsUnavailable(class AssetClass) bool {
	if s == nil || s.Unavailable == nil {
		return false
	}
	_, ok := s.Unavailable[class]
	return ok
}

// SignalsFor returns the signals for a class (nil when none)
func (s *SignalSet) SignalsFor(class AssetClass) []AssetSignal {
	if s == nil || s.Assets == nil {
		return nil
	}
	return s.Assets[class]
}
