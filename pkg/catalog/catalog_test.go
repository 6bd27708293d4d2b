package catalog

import (
	"errors"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := Default()

	t.Run("Procedure frequencies sum to one", func(t *testing.T) {
		frequencies := lo.Map(catalog.Procedures(), func(procedure ProcedureProfile, _ int) float64 { return procedure.Frequency })
		assert.Len(t, frequencies, 28)
		assert.InDelta(t, 1, floats.Sum(frequencies), 1e-9)
	})

	t.Run("Unit frequencies and mixes sum to one", func(t *testing.T) {
		units := catalog.Units()
		assert.InDelta(t, 1, floats.Sum(lo.Map(units, func(unit ClinicalUnitProfile, _ int) float64 { return unit.Frequency })), 1e-9)
		for _, unit := range units {
			assert.InDelta(t, 1, floats.Sum(lo.Map(unit.Mix, func(share ProcedureShare, _ int) float64 { return share.Probability })), 1e-9)
		}
	})

	t.Run("Unit mixes reproduce the direct distribution", func(t *testing.T) {
		marginal := make(map[ProcedureCode]float64)
		for _, unit := range catalog.Units() {
			for _, share := range unit.Mix {
				marginal[share.Code] += unit.Frequency * share.Probability
			}
		}
		for _, procedure := range catalog.Procedures() {
			assert.InDelta(t, procedure.Frequency, marginal[procedure.Code], 1e-9, procedure.Code.String())
		}
	})

	t.Run("Unit delay estimates aggregate the procedure estimates", func(t *testing.T) {
		for _, unit := range catalog.Units() {
			expected := 0.0
			for _, share := range unit.Mix {
				procedure, ok := catalog.Procedure(share.Code)
				require.True(t, ok)
				expected += share.Probability * procedure.DelayProbability
			}
			assert.InDelta(t, expected, unit.DelayProbability, 1e-9, unit.Name)
		}
	})

	t.Run("Legacy keys resolve to their codes", func(t *testing.T) {
		for _, procedure := range catalog.Procedures() {
			code, ok := ProcedureFromLegacyKey(procedure.Code.LegacyKey())
			assert.True(t, ok)
			assert.Equal(t, procedure.Code, code)
		}
		_, ok := ProcedureFromLegacyKey("111111111111111111111")
		assert.False(t, ok)
	})
}

func TestSampling(t *testing.T) {
	catalog := Default()

	t.Run("Zero selects the first entry", func(t *testing.T) {
		unit, err := catalog.SampleUnit(0)

		assert.Nil(t, err)
		assert.Equal(t, Procedure08, catalog.SampleProcedure(0))
		assert.Equal(t, GeneralSurgery, unit)
	})

	t.Run("Draws beyond the cumulative mass fall back to the last entry", func(t *testing.T) {
		unit, err := catalog.SampleUnit(1.5)
		assert.Nil(t, err)
		assert.Equal(t, Procedure28, catalog.SampleProcedure(1.5))
		assert.Equal(t, Otolaryngology, unit)

		code, err := catalog.SampleProcedureInUnit(Gynecology, 2)
		assert.Nil(t, err)
		assert.Equal(t, Procedure24, code)
	})

	t.Run("Boundaries belong to the lower entry", func(t *testing.T) {
		//** Arrange
		boundary := 27 / observedPatients

		//** Act
		atBoundary := catalog.SampleProcedure(boundary)
		pastBoundary := catalog.SampleProcedure(boundary + 1e-9)

		//** Assert
		assert.Equal(t, Procedure08, atBoundary)
		assert.Equal(t, Procedure04, pastBoundary)
	})

	t.Run("Unknown unit is rejected", func(t *testing.T) {
		_, err := catalog.SampleProcedureInUnit(UnitId(42), 0.5)
		var integrityErr *IntegrityError
		assert.True(t, errors.As(err, &integrityErr))
	})
}

func TestDelayProbability(t *testing.T) {
	catalog := Default()

	byProcedure, err := catalog.DelayProbability(Procedure27, Gynecology, DelayByProcedure)
	assert.Nil(t, err)
	assert.Equal(t, 0.0, byProcedure)

	byUnit, err := catalog.DelayProbability(Procedure27, Gynecology, DelayByUnit)
	assert.Nil(t, err)
	assert.InDelta(t, 8.5/18, byUnit, 1e-12)

	_, err = catalog.DelayProbability(Procedure27, Gynecology, DelayUnspecified)
	var configurationErr *ConfigurationError
	assert.True(t, errors.As(err, &configurationErr))
}

func TestValidation(t *testing.T) {
	valid := []ProcedureProfile{
		{Code: Procedure01, Frequency: 0.5, RoomOccupancy: 30, DelayProbability: 0.1},
		{Code: Procedure02, Frequency: 0.5, RoomOccupancy: 60, Dirty: true, DelayProbability: 0.2},
	}
	validUnits := []ClinicalUnitProfile{
		{Id: 1, Frequency: 1, Mix: []ProcedureShare{{Procedure01, 0.5}, {Procedure02, 0.5}}, DelayProbability: 0.15},
	}

	cases := map[string]struct {
		procedures []ProcedureProfile
		units      []ClinicalUnitProfile
	}{
		"Frequencies do not sum to one": {
			procedures: []ProcedureProfile{valid[0], {Code: Procedure02, Frequency: 0.4, RoomOccupancy: 60}},
			units:      validUnits,
		},
		"Negative frequency": {
			procedures: []ProcedureProfile{{Code: Procedure01, Frequency: 1.5, RoomOccupancy: 30}, {Code: Procedure02, Frequency: -0.5, RoomOccupancy: 60}},
			units:      validUnits,
		},
		"Zero duration": {
			procedures: []ProcedureProfile{valid[0], {Code: Procedure02, Frequency: 0.5}},
			units:      validUnits,
		},
		"Delay probability above one": {
			procedures: []ProcedureProfile{valid[0], {Code: Procedure02, Frequency: 0.5, RoomOccupancy: 60, DelayProbability: 1.2}},
			units:      validUnits,
		},
		"Duplicate procedure": {
			procedures: []ProcedureProfile{valid[0], valid[0]},
			units:      validUnits,
		},
		"Unknown code": {
			procedures: []ProcedureProfile{valid[0], {Code: ProcedureUnknown, Frequency: 0.5, RoomOccupancy: 60}},
			units:      validUnits,
		},
		"Mix references unknown procedure": {
			procedures: valid,
			units:      []ClinicalUnitProfile{{Id: 1, Frequency: 1, Mix: []ProcedureShare{{Procedure03, 1}}}},
		},
		"Mix does not sum to one": {
			procedures: valid,
			units:      []ClinicalUnitProfile{{Id: 1, Frequency: 1, Mix: []ProcedureShare{{Procedure01, 0.3}}}},
		},
		"Unit frequencies do not sum to one": {
			procedures: valid,
			units:      []ClinicalUnitProfile{{Id: 1, Frequency: 0.7, Mix: []ProcedureShare{{Procedure01, 1}}}},
		},
	}

	for name, testCase := range cases {
		t.Run(name, func(t *testing.T) {
			//** Act
			catalog, err := New(testCase.procedures, testCase.units)

			//** Assert
			assert.Nil(t, catalog)
			var integrityErr *IntegrityError
			assert.True(t, errors.As(err, &integrityErr))
		})
	}

	t.Run("Valid tables are accepted", func(t *testing.T) {
		catalog, err := New(valid, validUnits)
		assert.Nil(t, err)
		assert.NotNil(t, catalog)
	})

	t.Run("A catalog without units samples procedures only", func(t *testing.T) {
		//** Arrange
		catalog, err := New(valid, nil)
		assert.Nil(t, err)

		//** Act
		code := catalog.SampleProcedure(0.75)
		_, unitErr := catalog.SampleUnit(0.5)
		_, delayErr := catalog.DelayProbability(Procedure01, 1, DelayByUnit)

		//** Assert
		assert.Equal(t, Procedure02, code)
		assert.Empty(t, catalog.Units())
		var integrityErr *IntegrityError
		assert.True(t, errors.As(unitErr, &integrityErr))
		assert.True(t, errors.As(delayErr, &integrityErr))
	})
}
