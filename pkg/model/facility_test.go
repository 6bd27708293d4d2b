package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCompatibility(t *testing.T) {
	t.Run("Rooms are split in contiguous blocks", func(t *testing.T) {
		facility := NewFacility(4, 5, 1, 270, 270)

		for day := range facility.Days {
			assert.True(t, facility.Compatible(1, 0, day))
			assert.True(t, facility.Compatible(1, 1, day))
			assert.False(t, facility.Compatible(1, 2, day))
			assert.True(t, facility.Compatible(2, 2, day))
			assert.True(t, facility.Compatible(2, 3, day))
			assert.False(t, facility.Compatible(2, 0, day))
		}
	})

	t.Run("Out of range arguments are incompatible", func(t *testing.T) {
		facility := NewFacility(2, 1, 0, 270, 270)

		assert.False(t, facility.Compatible(0, 0, 0))
		assert.False(t, facility.Compatible(3, 0, 0))
		assert.False(t, facility.Compatible(1, 2, 0))
		assert.False(t, facility.Compatible(1, 0, 1))
	})

	t.Run("A single room serves only the first specialty", func(t *testing.T) {
		facility := NewFacility(1, 1, 0, 270, 270)

		assert.True(t, facility.Compatible(1, 0, 0))
		assert.False(t, facility.Compatible(2, 0, 0))
	})
}

func TestFacilityValidation(t *testing.T) {
	cases := map[string]func(facility *FacilityConfig){
		"No rooms":                 func(facility *FacilityConfig) { facility.Rooms = 0 },
		"No days":                  func(facility *FacilityConfig) { facility.Days = 0 },
		"No specialties":           func(facility *FacilityConfig) { facility.Specialties = 0 },
		"Missing specialty matrix": func(facility *FacilityConfig) { facility.Compatibility = facility.Compatibility[:1] },
		"Short room row":           func(facility *FacilityConfig) { facility.Compatibility[0] = facility.Compatibility[0][:1] },
		"Short day row":            func(facility *FacilityConfig) { facility.Compatibility[1][0] = facility.Compatibility[1][0][:2] },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			facility := NewFacility(2, 3, 0, 270, 270)
			mutate(&facility)

			var configurationErr *ConfigurationError
			assert.ErrorAs(t, facility.Validate(), &configurationErr)
		})
	}
}

func TestInstanceJson(t *testing.T) {
	t.Run("Written instances read back unchanged", func(t *testing.T) {
		//** Arrange
		instance := knapsackInstance(150)
		instance.Id = "knapsack"
		file := filepath.Join(t.TempDir(), "instance.json")

		//** Act
		require.NoError(t, instance.WriteJson(file))
		read, err := InstanceFromJson(file)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, instance, read)
	})

	t.Run("Processing fills the facility and precedence defaults", func(t *testing.T) {
		//** Arrange
		instance := Instance{
			Facility: FacilityConfig{Rooms: 2, Days: 1, RoomDayCapacity: 270},
			Patients: []Patient{
				{Id: 2, Priority: 10, Specialty: 1, OperatingTime: 60, Covid: true},
				{Id: 1, Priority: 20, Specialty: 1, OperatingTime: 60, Delay: true},
			},
		}

		//** Act
		processed, err := ProcessInstance(instance)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, uint64(DefaultSpecialties), processed.Facility.Specialties)
		assert.True(t, processed.Facility.Compatible(2, 1, 0))
		assert.Equal(t, uint64(1), processed.Patients[0].Id)
		assert.Equal(t, CleanDelayed, processed.Patients[0].Precedence)
		assert.Equal(t, CovidOnTime, processed.Patients[1].Precedence)
		assert.Equal(t, uint64(2), instance.Patients[0].Id, "input must not be reordered")
	})

	t.Run("Repeated ids are rejected", func(t *testing.T) {
		instance := knapsackInstance(150)
		instance.Patients[1].Id = instance.Patients[0].Id

		_, err := ProcessInstance(instance)

		var integrityErr *IntegrityError
		assert.ErrorAs(t, err, &integrityErr)
	})
}
