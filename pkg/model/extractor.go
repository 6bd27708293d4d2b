package model

import (
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"
)

const halfwayTolerance = 1e-9

type ScheduledPatient struct {
	Patient     uint64          `json:"patient"`
	Start       float64         `json:"start"`       // Minute of the room-day at which the surgery starts
	Anesthetist uint64          `json:"anesthetist"` // 1-based, zero when no anesthetist is assigned
	Duration    uint64          `json:"duration"`
	Precedence  PrecedenceClass `json:"precedence"`
}

type RoomDay struct {
	Room        uint64             `json:"room"`
	Day         uint64             `json:"day"`
	Patients    []ScheduledPatient `json:"patients"`    // Ordered by start
	Utilization uint64             `json:"utilization"` // Scheduled minutes
}

type Statistics struct {
	OperatedPatients    int                    `json:"operatedPatients"`
	Objective           float64                `json:"objective"`
	PrecedencePartition [PrecedenceClasses]int `json:"precedencePartition"` // Operated patients per class
	DelayedPatients     int                    `json:"delayedPatients"`
	DelayWeight         float64                `json:"delayWeight"`
	DelayScore          float64                `json:"delayScore"` // Reporting only, it does not drive the objective
}

// Schedule lists the occupied room-days ordered by day and room
type Schedule struct {
	RoomDays   []RoomDay  `json:"roomDays"`
	Statistics Statistics `json:"statistics"`
}

// Slot returns the ordered patients of a room-day
func (schedule Schedule) Slot(room, day uint64) []ScheduledPatient {
	roomDay, ok := lo.Find(schedule.RoomDays, func(roomDay RoomDay) bool {
		return roomDay.Room == room && roomDay.Day == day
	})
	if !ok {
		return nil
	}
	return roomDay.Patients
}

// Operated returns the ids of every scheduled patient, sorted
func (schedule Schedule) Operated() []uint64 {
	ids := lo.FlatMap(schedule.RoomDays, func(roomDay RoomDay, _ int) []uint64 {
		return lo.Map(roomDay.Patients, func(patient ScheduledPatient, _ int) uint64 { return patient.Patient })
	})
	slices.Sort(ids)
	return ids
}

// Extract turns raw solver values, indexed as the model's variables, into a schedule
func Extract(formulation *Formulation, values []float64, delayWeight float64) (Schedule, error) {
	model := formulation.Model
	if len(values) != len(model.Variables) {
		return Schedule{}, &DecodeError{Reason: fmt.Sprintf("expected %d values, got %d", len(model.Variables), len(values))}
	}

	binary := func(variable int) (bool, error) {
		value := values[variable]
		if math.Abs(math.Abs(value-math.Trunc(value))-0.5) <= halfwayTolerance {
			return false, &DecodeError{Variable: model.Variables[variable].Name, Value: value, Reason: "value is halfway between integers"}
		}
		rounded := math.Round(value)
		if rounded != 0 && rounded != 1 {
			return false, &DecodeError{Variable: model.Variables[variable].Name, Value: value, Reason: "binary value out of range"}
		}
		return rounded == 1, nil
	}

	instance := formulation.Instance
	roomDays := make(map[Slot][]ScheduledPatient)
	for position, patient := range instance.Patients {
		for room := range formulation.rooms {
			for day := range formulation.days {
				variable, _ := formulation.Assignment(uint64(position), room, day)
				assigned, err := binary(variable)
				if err != nil {
					return Schedule{}, err
				} else if !assigned {
					continue
				}

				anesthetist := uint64(0)
				for candidate := range formulation.anesthetists {
					coverage, _ := formulation.Coverage(candidate, uint64(position), day)
					covered, err := binary(coverage)
					if err != nil {
						return Schedule{}, err
					} else if covered {
						anesthetist = candidate + 1
						break
					}
				}

				slot := Slot{Room: room, Day: day}
				roomDays[slot] = append(roomDays[slot], ScheduledPatient{
					Patient:     patient.Id,
					Start:       values[formulation.Start(uint64(position))],
					Anesthetist: anesthetist,
					Duration:    patient.OperatingTime,
					Precedence:  patient.Precedence,
				})
			}
		}
	}

	schedule := Schedule{RoomDays: make([]RoomDay, 0, len(roomDays))}
	for slot, patients := range roomDays {
		slices.SortFunc(patients, func(a, b ScheduledPatient) int {
			if comparison := compare(a.Start, b.Start); comparison != 0 {
				return comparison
			}
			return compare(a.Patient, b.Patient)
		})
		schedule.RoomDays = append(schedule.RoomDays, RoomDay{
			Room:        slot.Room,
			Day:         slot.Day,
			Patients:    patients,
			Utilization: lo.SumBy(patients, func(patient ScheduledPatient) uint64 { return patient.Duration }),
		})
	}
	slices.SortFunc(schedule.RoomDays, func(a, b RoomDay) int {
		if comparison := compare(a.Day, b.Day); comparison != 0 {
			return comparison
		}
		return compare(a.Room, b.Room)
	})

	schedule.Statistics = computeStatistics(instance, schedule, delayWeight)
	return schedule, nil
}

func computeStatistics(instance Instance, schedule Schedule, delayWeight float64) Statistics {
	operated := schedule.Operated()
	statistics := Statistics{
		OperatedPatients: len(operated),
		DelayWeight:      delayWeight,
	}

	for _, id := range operated {
		patient, _ := instance.PatientById(id)
		statistics.Objective += patient.Priority
		statistics.PrecedencePartition[patient.Precedence-1]++
		if patient.Delay {
			statistics.DelayedPatients++
		}
	}

	// The delay term is normalized by the number of delay-prone patients in the whole population
	delayed := lo.CountBy(instance.Patients, func(patient Patient) bool { return patient.Delay })
	normalization := 1 / (1 + float64(delayed))
	statistics.DelayScore = delayWeight * normalization * float64(statistics.DelayedPatients)

	return statistics
}
