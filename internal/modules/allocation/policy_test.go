package allocation

import (
	"errors"
	"testing"

	"github.com/aristath/advisor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultPolicyConfig_Valid(t *testing.T) {
	cfg := DefaultPolicyConfig()
	assert.NoError(t, cfg.Validate())

	cfg.HorizonBands = HorizonPolicyBands()
	assert.NoError(t, cfg.Validate())
}

func TestPolicyConfig_ValidateRejectsBadRows(t *testing.T) {
	cfg := DefaultPolicyConfig()
	cfg.Base = PolicyTable{
		domain.RiskConservative: {Equity: 30, Bond: 60, Cash: 10},
		domain.RiskModerate:     {Equity: 50, Bond: 45, Cash: 5},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Aggressive")

	cfg = DefaultPolicyConfig()
	cfg.Base[domain.RiskAggressive] = domain.PolicyWeights{Equity: 70, Bond: 30, Cash: 5}
	err = cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrWeightSumInvariant))
}

func TestPolicyConfig_ValidateTiltBounds(t *testing.T) {
	cfg := DefaultPolicyConfig()
	cfg.Tilt.MinConfidence = 1.2
	assert.Error(t, cfg.Validate())

	cfg = DefaultPolicyConfig()
	cfg.Tilt.MaxTilt = -1
	assert.Error(t, cfg.Validate())
}

func TestPolicyConfig_ValidateOrdersBands(t *testing.T) {
	cfg := DefaultPolicyConfig()
	bands := HorizonPolicyBands()
	cfg.HorizonBands = []HorizonBand{bands[2], bands[1], bands[0]}
	require.NoError(t, cfg.Validate())

	names := []string{}
	for _, b := range cfg.HorizonBands {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"short", "medium", "long"}, names)
}

func TestPolicyTable_UnmarshalYAML(t *testing.T) {
	doc := `
base:
  conservative: {equity: 20, bond: 70, cash: 10}
  Moderate: {equity: 40, bond: 50, cash: 10}
  AGGRESSIVE: {equity: 70, bond: 25, cash: 5}
macro_tilt:
  enabled: true
  max_tilt: 3
  min_confidence: 0.7
`
	var cfg PolicyConfig
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, domain.PolicyWeights{Equity: 20, Bond: 70, Cash: 10}, cfg.Base[domain.RiskConservative])
	assert.Equal(t, domain.PolicyWeights{Equity: 40, Bond: 50, Cash: 10}, cfg.Base[domain.RiskModerate])
	assert.Equal(t, domain.PolicyWeights{Equity: 70, Bond: 25, Cash: 5}, cfg.Base[domain.RiskAggressive])
	assert.Equal(t, 3.0, cfg.Tilt.MaxTilt)
}

func TestPolicyTable_UnmarshalYAMLUnknownTolerance(t *testing.T) {
	doc := `
base:
  reckless: {equity: 100, bond: 0, cash: 0}
`
	var cfg PolicyConfig
	err := yaml.Unmarshal([]byte(doc), &cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnrecognizedRiskTolerance))
}
