package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairInstance() Instance {
	return Instance{
		Facility: openFacility(1, 1, 0, 270, 270),
		Patients: []Patient{
			{Id: 1, Priority: 10, Specialty: 1, OperatingTime: 50, Precedence: CleanDelayed, Delay: true},
			{Id: 2, Priority: 20, Specialty: 1, OperatingTime: 90, Precedence: CleanOnTime},
			{Id: 3, Priority: 5, Specialty: 1, OperatingTime: 40, Precedence: CleanOnTime},
		},
	}
}

func valuesOf(t *testing.T, formulation *Formulation, assigned map[string]float64) []float64 {
	values := make([]float64, len(formulation.Model.Variables))
	for name, value := range assigned {
		variable, ok := formulation.Model.VariableByName(name)
		require.True(t, ok, name)
		values[variable.Index] = value
	}
	return values
}

func TestExtract(t *testing.T) {
	formulation, err := Formulate(pairInstance(), ModelBuildOptions{})
	require.NoError(t, err)

	t.Run("Patients are ordered by start time", func(t *testing.T) {
		//** Arrange
		values := valuesOf(t, formulation, map[string]float64{
			"x_1_0_0":   1,
			"x_2_0_0":   0.9999999,
			"start_1":   90,
			"start_2":   0,
			"y_2_1_0_0": 1,
		})

		//** Act
		schedule, err := Extract(formulation, values, 0.5)

		//** Assert
		require.NoError(t, err)
		require.Len(t, schedule.RoomDays, 1)
		roomDay := schedule.RoomDays[0]
		assert.Equal(t, uint64(140), roomDay.Utilization)
		require.Len(t, roomDay.Patients, 2)
		assert.Equal(t, uint64(2), roomDay.Patients[0].Patient)
		assert.Equal(t, uint64(1), roomDay.Patients[1].Patient)
		assert.Equal(t, 90.0, roomDay.Patients[1].Start)
		assert.Equal(t, CleanDelayed, roomDay.Patients[1].Precedence)
		assert.Equal(t, []uint64{1, 2}, schedule.Operated())
		assert.Equal(t, roomDay.Patients, schedule.Slot(0, 0))
		assert.Nil(t, schedule.Slot(0, 1))
	})

	t.Run("Statistics summarize the operated patients", func(t *testing.T) {
		values := valuesOf(t, formulation, map[string]float64{"x_1_0_0": 1, "x_2_0_0": 1, "start_1": 90, "y_2_1_0_0": 1})

		schedule, err := Extract(formulation, values, 0.5)

		require.NoError(t, err)
		statistics := schedule.Statistics
		assert.Equal(t, 2, statistics.OperatedPatients)
		assert.Equal(t, 30.0, statistics.Objective)
		assert.Equal(t, [PrecedenceClasses]int{1, 1, 0, 0, 0, 0}, statistics.PrecedencePartition)
		assert.Equal(t, 1, statistics.DelayedPatients)
		assert.InDelta(t, 0.25, statistics.DelayScore, 1e-12)
	})

	t.Run("Empty solution yields an empty schedule", func(t *testing.T) {
		schedule, err := Extract(formulation, make([]float64, len(formulation.Model.Variables)), 0.75)

		require.NoError(t, err)
		assert.Empty(t, schedule.RoomDays)
		assert.Zero(t, schedule.Statistics.OperatedPatients)
		assert.Zero(t, schedule.Statistics.DelayScore)
	})

	t.Run("Halfway values cannot be decoded", func(t *testing.T) {
		values := valuesOf(t, formulation, map[string]float64{"x_1_0_0": 0.5})

		_, err := Extract(formulation, values, 0)

		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, "x_1_0_0", decodeErr.Variable)
	})

	t.Run("Binary values out of range cannot be decoded", func(t *testing.T) {
		values := valuesOf(t, formulation, map[string]float64{"x_3_0_0": 2})

		_, err := Extract(formulation, values, 0)

		var decodeErr *DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})

	t.Run("Value count must match the model", func(t *testing.T) {
		_, err := Extract(formulation, []float64{1, 0}, 0)

		var decodeErr *DecodeError
		assert.ErrorAs(t, err, &decodeErr)
	})
}
