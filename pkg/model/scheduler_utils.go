package model

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/limaJavier/surgery-scheduling/pkg/milp"
)

const verificationTolerance = 1e-6

func buildModel(model *milp.Model, families []func(state constraintState) []milp.Constraint, state constraintState) {
	type collectedFamily struct {
		position    int
		constraints []milp.Constraint
	}

	constraintsChannel := make(chan collectedFamily) // Channel to collect constraints

	// Execute constraint families on different goroutines to improve performance
	for position, family := range families {
		go func(position int, family func(state constraintState) []milp.Constraint) {
			constraintsChannel <- collectedFamily{position, family(state)}
		}(position, family)
	}

	// Collect generated constraints, keeping them in family order so the model is deterministic
	collected := make([][]milp.Constraint, len(families))
	collectedFamilies := 0
	for family := range constraintsChannel {
		collected[family.position] = family.constraints

		// Check whether all families have been collected to properly close the channel
		if collectedFamilies++; collectedFamilies == len(families) {
			close(constraintsChannel)
		}
	}

	for _, constraints := range collected {
		for _, constraint := range constraints {
			model.AddConstraint(constraint)
		}
	}
}

// Runs the fix-solve-extract stages on a formulated model
func solveFormulation(formulation *Formulation, solver milp.Solver, options SchedulerOptions, buildTime time.Duration) (Result, error) {
	logger := options.logger()
	model := formulation.Model

	result := Result{
		Status:      milp.StatusUnknown,
		BuildTime:   buildTime,
		Variables:   len(model.Variables),
		Constraints: len(model.Constraints),
		Families:    model.Families(),
	}

	//** Fix implied variables
	if options.Fixing {
		result.Fixing = Fix(formulation, DefaultFixingRules()...)
		logger.Debug().Interface("fixed", result.Fixing.Counts).Int("total", result.Fixing.Total).Msg("fixed implied variables")
	}

	if len(model.Variables) == 0 {
		result.Status = milp.Optimal
		result.Schedule = emptySchedule(formulation.Instance, options.DelayWeight)
		return result, nil
	}

	//** Solve model
	solution, err := solver.Solve(model, options.Solver)
	result.SolveTime = solution.Elapsed
	result.Status = solution.Status
	result.Gap = solution.Gap

	var infeasibleErr *milp.InfeasibleError
	var timeLimitErr *milp.TimeLimitError
	switch {
	case errors.As(err, &infeasibleErr):
		logger.Info().Str("model", model.Name).Msg("model is infeasible")
		result.Reason = infeasibleErr.Error()
		result.Schedule = emptySchedule(formulation.Instance, options.DelayWeight)
		return result, nil
	case errors.As(err, &timeLimitErr):
		result.TimeLimitHit = true
		if !timeLimitErr.HasSolution {
			logger.Warn().Dur("limit", timeLimitErr.Limit).Msg("time limit reached without a schedule")
			result.Reason = timeLimitErr.Error()
			result.Schedule = emptySchedule(formulation.Instance, options.DelayWeight)
			return result, nil
		}
		logger.Warn().Dur("limit", timeLimitErr.Limit).Float64("gap", solution.Gap).Msg("time limit reached, keeping the best schedule found")
	case err != nil:
		return Result{}, fmt.Errorf("solver failed on model %s: %w", model.Name, err)
	}

	//** Extract schedule
	schedule, err := Extract(formulation, solution.Values, options.DelayWeight)
	if err != nil {
		return Result{}, err
	}
	result.Schedule = schedule

	logger.Debug().
		Str("status", result.Status.String()).
		Float64("objective", schedule.Statistics.Objective).
		Int("operated", schedule.Statistics.OperatedPatients).
		Dur("solve", result.SolveTime).
		Msg("model solved")

	return result, nil
}

func emptySchedule(instance Instance, delayWeight float64) Schedule {
	schedule := Schedule{RoomDays: []RoomDay{}}
	schedule.Statistics = computeStatistics(instance, schedule, delayWeight)
	return schedule
}

// verify checks a schedule against the instance, returning the first violation found
func verify(schedule Schedule, instance Instance) error {
	facility := instance.Facility
	capacity := float64(facility.RoomDayCapacity)

	operated := make(map[uint64]bool)
	anesthetistWork := make(map[[2]uint64][]ScheduledPatient) // Per (anesthetist, day)

	for _, roomDay := range schedule.RoomDays {
		room, day := roomDay.Room, roomDay.Day
		if room >= facility.Rooms || day >= facility.Days {
			return fmt.Errorf("room-day (%d, %d) is outside the facility", room, day)
		}

		used := uint64(0)
		for i, scheduled := range roomDay.Patients {
			patient, ok := instance.PatientById(scheduled.Patient)
			end := scheduled.Start + float64(patient.OperatingTime)

			// Check that:
			// - Patient exists and is operated only once
			// - Patient's specialty may use the room on the day
			// - Surgery starts and ends within the room-day
			// - Surgery does not overlap the previous one
			// - A strictly preceding class is never operated after the patient
			switch {
			case !ok:
				return fmt.Errorf("patient %d does not exist", scheduled.Patient)
			case operated[patient.Id]:
				return fmt.Errorf("patient %d is operated more than once", patient.Id)
			case !facility.Compatible(patient.Specialty, room, day):
				return fmt.Errorf("patient %d of specialty %d cannot use room %d on day %d", patient.Id, patient.Specialty, room, day)
			case scheduled.Start < -verificationTolerance || end > capacity+verificationTolerance:
				return fmt.Errorf("patient %d runs from %v to %v outside the room-day", patient.Id, scheduled.Start, end)
			}

			if i > 0 {
				previous := roomDay.Patients[i-1]
				previousPatient, _ := instance.PatientById(previous.Patient)
				if previous.Start+float64(previousPatient.OperatingTime) > scheduled.Start+verificationTolerance {
					return fmt.Errorf("patients %d and %d overlap in room %d on day %d", previous.Patient, patient.Id, room, day)
				}
				if Precedes(patient.Precedence, previousPatient.Precedence) {
					return fmt.Errorf("patient %d (%v) is operated after patient %d (%v)", patient.Id, patient.Precedence, previous.Patient, previousPatient.Precedence)
				}
			}

			if facility.Anesthetists > 0 && patient.Anesthesia {
				if scheduled.Anesthetist == 0 || scheduled.Anesthetist > facility.Anesthetists {
					return fmt.Errorf("patient %d needs an anesthetist, got %d", patient.Id, scheduled.Anesthetist)
				}
				key := [2]uint64{scheduled.Anesthetist, day}
				anesthetistWork[key] = append(anesthetistWork[key], scheduled)
			} else if scheduled.Anesthetist != 0 {
				return fmt.Errorf("patient %d needs no anesthetist, got %d", patient.Id, scheduled.Anesthetist)
			}

			operated[patient.Id] = true
			used += patient.OperatingTime
		}

		if float64(used) > capacity {
			return fmt.Errorf("room %d on day %d is used %d minutes, capacity is %d", room, day, used, facility.RoomDayCapacity)
		}
	}

	for key, surgeries := range anesthetistWork {
		anesthetist, day := key[0], key[1]
		slices.SortFunc(surgeries, func(a, b ScheduledPatient) int { return compare(a.Start, b.Start) })

		worked := uint64(0)
		for i, surgery := range surgeries {
			worked += surgery.Duration
			if i > 0 && surgeries[i-1].Start+float64(surgeries[i-1].Duration) > surgery.Start+verificationTolerance {
				return fmt.Errorf("anesthetist %d covers overlapping patients %d and %d on day %d", anesthetist, surgeries[i-1].Patient, surgery.Patient, day)
			}
		}
		if worked > facility.AnesthetistDayCapacity {
			return fmt.Errorf("anesthetist %d works %d minutes on day %d, capacity is %d", anesthetist, worked, day, facility.AnesthetistDayCapacity)
		}
	}

	return nil
}
