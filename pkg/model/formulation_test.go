package model

import (
	"testing"

	"github.com/limaJavier/surgery-scheduling/pkg/milp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Five clean patients of the first specialty competing for a single room-day
func knapsackInstance(capacity uint64) Instance {
	durations := []uint64{50, 90, 30, 60, 40}
	priorities := []float64{10, 50, 20, 80, 15}

	patients := make([]Patient, len(durations))
	for i := range durations {
		patients[i] = Patient{
			Id:            uint64(i + 1),
			Priority:      priorities[i],
			Specialty:     1,
			OperatingTime: durations[i],
			Precedence:    CleanOnTime,
		}
	}
	return Instance{
		Facility: openFacility(1, 1, 0, capacity, capacity),
		Patients: patients,
	}
}

// A single-specialty facility where every room is usable every day
func openFacility(rooms, days, anesthetists, roomDayCapacity, anesthetistDayCapacity uint64) FacilityConfig {
	facility := NewFacility(rooms, days, anesthetists, roomDayCapacity, anesthetistDayCapacity)
	facility.Specialties = 1
	facility.Compatibility = DefaultCompatibility(1, rooms, days)
	return facility
}

func TestFormulate(t *testing.T) {
	t.Run("Variable and constraint counts", func(t *testing.T) {
		//** Arrange
		instance := Instance{
			Facility: openFacility(1, 1, 0, 270, 270),
			Patients: []Patient{
				{Id: 1, Priority: 10, Specialty: 1, OperatingTime: 50, Precedence: CleanOnTime},
				{Id: 2, Priority: 20, Specialty: 1, OperatingTime: 90, Precedence: DirtyOnTime},
			},
		}

		//** Act
		formulation, err := Formulate(instance, ModelBuildOptions{})

		//** Assert
		require.NoError(t, err)
		model := formulation.Model
		assert.True(t, model.Maximize)
		assert.Len(t, model.Variables, 6) // x: 2, start: 2, y: 2
		assert.Equal(t, map[string]int{
			"single_assignment":       2,
			"room_capacity":           1,
			"specialty_compatibility": 1,
			"end_of_day":              2,
			"time_ordering":           2,
			"priority_ordering":       1,
			"exclusive_precedence":    1,
		}, model.Families())
		assert.Equal(t, BigM{Specialty: 5, Ordering: 270}, formulation.BigM)
		assert.Zero(t, formulation.Anesthetists())

		for _, name := range []string{"x_1_0_0", "x_2_0_0", "start_1", "start_2", "y_1_2_0_0", "y_2_1_0_0"} {
			_, ok := model.VariableByName(name)
			assert.True(t, ok, name)
		}
		start, _ := model.VariableByName("start_2")
		assert.Equal(t, milp.Continuous, start.Kind)
		assert.Equal(t, 270.0, start.Upper)
	})

	t.Run("Anesthetist variables are declared only when anesthesia is needed", func(t *testing.T) {
		//** Arrange
		instance := Instance{
			Facility: openFacility(1, 2, 2, 270, 270),
			Patients: []Patient{
				{Id: 1, Priority: 10, Specialty: 1, OperatingTime: 50, Precedence: CleanOnTime, Anesthesia: true},
				{Id: 2, Priority: 20, Specialty: 1, OperatingTime: 90, Precedence: CleanOnTime, Anesthesia: true},
				{Id: 3, Priority: 30, Specialty: 1, OperatingTime: 60, Precedence: CleanOnTime},
			},
		}

		//** Act
		formulation, err := Formulate(instance, ModelBuildOptions{})
		withoutAnesthesia := instance
		withoutAnesthesia.Patients = instance.Patients[2:]
		disabled, disabledErr := Formulate(withoutAnesthesia, ModelBuildOptions{})

		//** Assert
		require.NoError(t, err)
		require.NoError(t, disabledErr)
		assert.Equal(t, uint64(2), formulation.Anesthetists())
		assert.Zero(t, disabled.Anesthetists())

		families := formulation.Model.Families()
		assert.Equal(t, 6, families["anesthesia_coverage"])  // patients x days
		assert.Equal(t, 4, families["anesthetist_budget"])   // anesthetists x days
		assert.Equal(t, 8, families["anesthetist_overlap"])  // anesthetists x ordered pairs x days
		assert.Equal(t, 4, families["anesthetist_exclusive"]) // anesthetists x unordered pairs x days
		_, ok := formulation.Pairing(0, 1, 1)
		assert.True(t, ok)
		_, ok = formulation.Pairing(0, 2, 1)
		assert.False(t, ok)
		assert.NotContains(t, disabled.Model.Families(), "anesthesia_coverage")
	})

	t.Run("Incompatible room-days are closed by the specialty constraint", func(t *testing.T) {
		instance := Instance{
			Facility: NewFacility(2, 1, 0, 270, 270),
			Patients: []Patient{
				{Id: 1, Priority: 10, Specialty: 1, OperatingTime: 50, Precedence: CleanOnTime},
			},
		}

		formulation, err := Formulate(instance, ModelBuildOptions{})

		require.NoError(t, err)
		closed := 0
		for _, constraint := range formulation.Model.Constraints {
			if constraint.Family == "specialty_compatibility" && constraint.RHS == 0 {
				closed++
			}
		}
		assert.Equal(t, 1, closed)
		_, ok := formulation.Ordering(0, 0, 0, 0)
		assert.False(t, ok)
	})

	t.Run("Fixed assignments pin the assignment variables", func(t *testing.T) {
		instance := Instance{
			Facility: openFacility(2, 2, 0, 270, 270),
			Patients: knapsackInstance(270).Patients,
		}

		formulation, err := Formulate(instance, ModelBuildOptions{FixedAssignment: map[uint64]Slot{3: {Room: 1, Day: 0}}})

		require.NoError(t, err)
		for room := range uint64(2) {
			for day := range uint64(2) {
				variable, _ := formulation.Assignment(2, room, day)
				expected := 0.0
				if room == 1 && day == 0 {
					expected = 1
				}
				assert.True(t, formulation.Model.Variables[variable].Fixed)
				assert.Equal(t, expected, formulation.Model.Variables[variable].Lower)
			}
		}
		assert.Equal(t, 4, formulation.Model.FixedVariables())
	})

	t.Run("Empty population builds an empty model", func(t *testing.T) {
		formulation, err := Formulate(Instance{Facility: openFacility(1, 1, 1, 270, 270)}, ModelBuildOptions{})

		require.NoError(t, err)
		assert.Empty(t, formulation.Model.Variables)
		assert.Empty(t, formulation.Model.Constraints)
	})
}

func TestFormulateRejectsBrokenInstances(t *testing.T) {
	cases := map[string]struct {
		mutate  func(instance *Instance)
		options ModelBuildOptions
	}{
		"Repeated patient id":        {mutate: func(instance *Instance) { instance.Patients[1].Id = 1 }},
		"Specialty outside range":    {mutate: func(instance *Instance) { instance.Patients[0].Specialty = 3 }},
		"Zero operating time":        {mutate: func(instance *Instance) { instance.Patients[0].OperatingTime = 0 }},
		"Invalid precedence":         {mutate: func(instance *Instance) { instance.Patients[0].Precedence = 0 }},
		"Specialty without a room":   {mutate: func(instance *Instance) { instance.Facility = NewFacility(1, 1, 0, 270, 270) }},
		"Zero room-day capacity":     {mutate: func(instance *Instance) { instance.Facility.RoomDayCapacity = 0 }},
		"Fixed unknown patient":      {mutate: func(instance *Instance) {}, options: ModelBuildOptions{FixedAssignment: map[uint64]Slot{9: {}}}},
		"Fixed slot outside horizon": {mutate: func(instance *Instance) {}, options: ModelBuildOptions{FixedAssignment: map[uint64]Slot{1: {Day: 1}}}},
	}

	for name, test := range cases {
		t.Run(name, func(t *testing.T) {
			//** Arrange
			instance := knapsackInstance(270)
			test.mutate(&instance)

			//** Act
			_, err := Formulate(instance, test.options)

			//** Assert
			var integrityErr *IntegrityError
			assert.ErrorAs(t, err, &integrityErr)
		})
	}

	t.Run("Broken facility is a configuration error", func(t *testing.T) {
		instance := knapsackInstance(270)
		instance.Facility.Rooms = 0

		_, err := Formulate(instance, ModelBuildOptions{})

		var configurationErr *ConfigurationError
		assert.ErrorAs(t, err, &configurationErr)
	})
}

func TestLPExport(t *testing.T) {
	formulation, err := Formulate(knapsackInstance(150), ModelBuildOptions{})
	require.NoError(t, err)

	lp := formulation.Model.ToLP()

	assert.Contains(t, lp, "Maximize")
	assert.Contains(t, lp, "Binaries")
	assert.Contains(t, lp, "x_4_0_0")
	assert.Contains(t, lp, "room_capacity_0_0:")
	assert.Contains(t, lp, "0 <= start_1 <= 150")
}
