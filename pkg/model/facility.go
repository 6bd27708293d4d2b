package model

import "fmt"

const DefaultSpecialties = 2

type FacilityConfig struct {
	Specialties            uint64     `json:"specialties"`
	Rooms                  uint64     `json:"rooms"`
	Days                   uint64     `json:"days"`
	Anesthetists           uint64     `json:"anesthetists"` // Zero disables the anesthetist subsystem
	RoomDayCapacity        uint64     `json:"roomDayCapacity"`
	AnesthetistDayCapacity uint64     `json:"anesthetistDayCapacity"`
	Compatibility          [][][]bool `json:"compatibility"` // Compatibility[specialty-1][room][day]
}

// NewFacility builds a two-specialty facility with the default room split
func NewFacility(rooms, days, anesthetists, roomDayCapacity, anesthetistDayCapacity uint64) FacilityConfig {
	return FacilityConfig{
		Specialties:            DefaultSpecialties,
		Rooms:                  rooms,
		Days:                   days,
		Anesthetists:           anesthetists,
		RoomDayCapacity:        roomDayCapacity,
		AnesthetistDayCapacity: anesthetistDayCapacity,
		Compatibility:          DefaultCompatibility(DefaultSpecialties, rooms, days),
	}
}

// DefaultCompatibility assigns rooms to specialties in contiguous blocks, every day of the horizon
func DefaultCompatibility(specialties, rooms, days uint64) [][][]bool {
	compatibility := make([][][]bool, specialties)
	for specialty := range specialties {
		compatibility[specialty] = make([][]bool, rooms)
		for room := range rooms {
			compatibility[specialty][room] = make([]bool, days)
			owner := room * specialties / rooms
			for day := range days {
				compatibility[specialty][room][day] = owner == specialty
			}
		}
	}
	return compatibility
}

// Compatible reports whether the 1-based specialty may operate in the room on the day
func (facility FacilityConfig) Compatible(specialty, room, day uint64) bool {
	if specialty == 0 || specialty > facility.Specialties || room >= facility.Rooms || day >= facility.Days {
		return false
	}
	return facility.Compatibility[specialty-1][room][day]
}

// Validate checks the facility dimensions
func (facility FacilityConfig) Validate() error {
	switch {
	case facility.Specialties == 0:
		return &ConfigurationError{Parameter: "specialties", Reason: "at least one specialty is required"}
	case facility.Rooms == 0:
		return &ConfigurationError{Parameter: "rooms", Reason: "at least one room is required"}
	case facility.Days == 0:
		return &ConfigurationError{Parameter: "days", Reason: "at least one day is required"}
	case uint64(len(facility.Compatibility)) != facility.Specialties:
		return &ConfigurationError{Parameter: "compatibility", Reason: fmt.Sprintf("expected %d specialties, got %d", facility.Specialties, len(facility.Compatibility))}
	}

	for specialty, rooms := range facility.Compatibility {
		if uint64(len(rooms)) != facility.Rooms {
			return &ConfigurationError{Parameter: "compatibility", Reason: fmt.Sprintf("specialty %d lists %d rooms, expected %d", specialty+1, len(rooms), facility.Rooms)}
		}
		for room, days := range rooms {
			if uint64(len(days)) != facility.Days {
				return &ConfigurationError{Parameter: "compatibility", Reason: fmt.Sprintf("specialty %d room %d lists %d days, expected %d", specialty+1, room, len(days), facility.Days)}
			}
		}
	}
	return nil
}
