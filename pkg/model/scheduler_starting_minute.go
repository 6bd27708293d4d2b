package model

import (
	"time"

	"github.com/limaJavier/surgery-scheduling/pkg/milp"
)

// startingMinuteScheduler solves the whole model, anesthetists included, in a single phase
type startingMinuteScheduler struct {
	solver  milp.Solver
	options SchedulerOptions
}

func NewStartingMinuteScheduler(solver milp.Solver, options SchedulerOptions) Scheduler {
	return &startingMinuteScheduler{
		solver:  solver,
		options: options,
	}
}

func (scheduler *startingMinuteScheduler) Build(instance Instance) (Result, error) {
	logger := scheduler.options.logger()

	//** Formulate model
	begin := time.Now()
	formulation, err := Formulate(instance, scheduler.options.Build)
	if err != nil {
		return Result{}, err
	}
	buildTime := time.Since(begin)

	logger.Debug().
		Str("instance", instance.Id).
		Int("variables", len(formulation.Model.Variables)).
		Int("constraints", len(formulation.Model.Constraints)).
		Dur("build", buildTime).
		Msg("model formulated")

	//** Fix, solve and extract
	return solveFormulation(formulation, scheduler.solver, scheduler.options, buildTime)
}

func (scheduler *startingMinuteScheduler) Verify(schedule Schedule, instance Instance) bool {
	if err := verify(schedule, instance); err != nil {
		logger := scheduler.options.logger()
		logger.Warn().Err(err).Msg("schedule verification failed")
		return false
	}
	return true
}
