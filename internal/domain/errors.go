package domain

import "errors"

var (
	// ErrUnrecognizedRiskTolerance is returned when a profile names a tolerance
	// outside Conservative/Moderate/Aggressive. Fatal to the allocation step.
	ErrUnrecognizedRiskTolerance = errors.New("unrecognized risk tolerance")

	// ErrWeightSumInvariant signals a logic defect in the weight engine:
	// policy weights no longer sum to 100%. Never normalized away.
	ErrWeightSumInvariant = errors.New("policy weights do not sum to 100%")

	// ErrSignalUnavailable is wrapped by signal providers when upstream data
	// could not be obtained. The allocator degrades instead of failing.
	ErrSignalUnavailable = errors.New("signal unavailable")

	// ErrInvalidProfile wraps profile validation failures
	ErrInvalidProfile = errors.New("invalid user profile")
)

// WarningCode classifies non-fatal conditions reported in a recommendation
type WarningCode string

const (
	// WarningEmptySignalSet - an asset class has no eligible holdings after filtering
	WarningEmptySignalSet WarningCode = "EmptySignalSet"
	// WarningSignalUnavailable - a provider could not supply signals for a class
	WarningSignalUnavailable WarningCode = "SignalUnavailable"
	// WarningMacroUnavailable - no macro signal, so no tilt and no macro scenarios
	WarningMacroUnavailable WarningCode = "MacroUnavailable"
)

// Warning is a non-fatal condition surfaced alongside a recommendation
type Warning struct {
	Code       WarningCode `json:"code" msgpack:"code"`
	AssetClass AssetClass  `json:"asset_class,omitempty" msgpack:"asset_class"`
	Message    string      `json:"message" msgpack:"message"`
}
