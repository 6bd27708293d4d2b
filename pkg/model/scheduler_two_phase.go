package model

import (
	"time"

	"github.com/limaJavier/surgery-scheduling/pkg/milp"
	"github.com/samber/lo"
)

// twoPhaseScheduler first selects and places patients ignoring anesthetists, then re-optimizes start times and
// anesthetist coverage with the placement fixed. The second phase may be infeasible even when the full model is not.
type twoPhaseScheduler struct {
	solver  milp.Solver
	options SchedulerOptions
}

func NewTwoPhaseScheduler(solver milp.Solver, options SchedulerOptions) Scheduler {
	return &twoPhaseScheduler{
		solver:  solver,
		options: options,
	}
}

func (scheduler *twoPhaseScheduler) Build(instance Instance) (Result, error) {
	logger := scheduler.options.logger()

	//** Phase one: placement without anesthetists
	begin := time.Now()
	placementInstance := instance
	placementInstance.Facility.Anesthetists = 0
	placement, err := Formulate(placementInstance, scheduler.options.Build)
	if err != nil {
		return Result{}, err
	}
	placementResult, err := solveFormulation(placement, scheduler.solver, scheduler.options, time.Since(begin))
	if err != nil {
		return Result{}, err
	}
	logger.Debug().Int("operated", placementResult.Schedule.Statistics.OperatedPatients).Msg("placement phase finished")

	if instance.Facility.Anesthetists == 0 || placementResult.Reason != "" {
		return placementResult, nil
	}

	//** Phase two: anesthetist coverage over the placed patients
	begin = time.Now()
	fixed := make(map[uint64]Slot)
	for _, roomDay := range placementResult.Schedule.RoomDays {
		for _, scheduled := range roomDay.Patients {
			fixed[scheduled.Patient] = Slot{Room: roomDay.Room, Day: roomDay.Day}
		}
	}
	coverageInstance := instance
	coverageInstance.Patients = lo.Filter(instance.Patients, func(patient Patient, _ int) bool {
		_, ok := fixed[patient.Id]
		return ok
	})

	coverage, err := Formulate(coverageInstance, ModelBuildOptions{FixedAssignment: fixed})
	if err != nil {
		return Result{}, err
	}
	coverageResult, err := solveFormulation(coverage, scheduler.solver, scheduler.options, time.Since(begin))
	if err != nil {
		return Result{}, err
	}

	result := coverageResult
	result.BuildTime += placementResult.BuildTime
	result.SolveTime += placementResult.SolveTime
	result.Variables += placementResult.Variables
	result.Constraints += placementResult.Constraints
	result.Families = mergeCounts(result.Families, placementResult.Families)
	result.Fixing = FixReport{
		Counts: mergeCounts(result.Fixing.Counts, placementResult.Fixing.Counts),
		Total:  result.Fixing.Total + placementResult.Fixing.Total,
	}
	result.TimeLimitHit = result.TimeLimitHit || placementResult.TimeLimitHit
	result.Gap = max(result.Gap, placementResult.Gap)
	if result.Status == milp.Optimal && placementResult.Status != milp.Optimal {
		result.Status = placementResult.Status
	}
	if result.Reason != "" {
		logger.Info().Str("reason", result.Reason).Msg("anesthetists cannot cover the placement")
	}

	// Statistics are normalized over the whole population, not only the placed patients
	result.Schedule.Statistics = computeStatistics(instance, result.Schedule, scheduler.options.DelayWeight)
	return result, nil
}

func (scheduler *twoPhaseScheduler) Verify(schedule Schedule, instance Instance) bool {
	if err := verify(schedule, instance); err != nil {
		logger := scheduler.options.logger()
		logger.Warn().Err(err).Msg("schedule verification failed")
		return false
	}
	return true
}

func mergeCounts(first, second map[string]int) map[string]int {
	if first == nil && second == nil {
		return nil
	}
	merged := make(map[string]int, len(first)+len(second))
	for key, count := range first {
		merged[key] += count
	}
	for key, count := range second {
		merged[key] += count
	}
	return merged
}
