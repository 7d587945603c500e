package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Defaults(t *testing.T) {
	p := UserProfile{}.Normalize()

	assert.Equal(t, RiskModerate, p.RiskTolerance)
	assert.Equal(t, DefaultObjective, p.Objective)
	assert.Equal(t, DefaultHorizonYear, p.TimeHorizonYears)
	assert.Empty(t, p.SectorInclude)
	assert.Empty(t, p.SectorExclude)
}

func TestNormalize_CanonicalizesRisk(t *testing.T) {
	p := UserProfile{RiskTolerance: "aggressive"}.Normalize()
	assert.Equal(t, RiskAggressive, p.RiskTolerance)

	// Unknown values are kept so the allocator can reject them
	p = UserProfile{RiskTolerance: "yolo"}.Normalize()
	assert.Equal(t, RiskTolerance("yolo"), p.RiskTolerance)
}

func TestNormalize_ExclusionWins(t *testing.T) {
	p := UserProfile{
		SectorInclude: []string{"Technology", "Healthcare", "technology", " "},
		SectorExclude: []string{"healthcare", "Energy"},
	}.Normalize()

	assert.Equal(t, []string{"Technology"}, p.SectorInclude)
	assert.Equal(t, []string{"healthcare", "Energy"}, p.SectorExclude)
}

func TestValidate(t *testing.T) {
	p := UserProfile{RiskTolerance: RiskModerate, TimeHorizonYears: 10}.Normalize()
	assert.NoError(t, p.Validate())

	p.InvestmentAmount = -1
	err := p.Validate()
	assert.True(t, errors.Is(err, ErrInvalidProfile))
}

func TestValidate_NegativeHorizonIsNotDefaulted(t *testing.T) {
	p := UserProfile{RiskTolerance: RiskModerate, TimeHorizonYears: -30}.Normalize()

	assert.Equal(t, -30, p.TimeHorizonYears)
	assert.ErrorIs(t, p.Validate(), ErrInvalidProfile)
}
