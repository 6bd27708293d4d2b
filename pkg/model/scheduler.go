package model

import (
	"time"

	"github.com/limaJavier/surgery-scheduling/pkg/milp"
	"github.com/rs/zerolog"
)

type Scheduler interface {
	Build(
		instance Instance,
	) (Result, error)

	Verify(
		schedule Schedule,
		instance Instance,
	) bool
}

type SchedulerOptions struct {
	Solver      milp.Options
	Fixing      bool              // Apply the default fixing rules before solving
	Build       ModelBuildOptions // Fixed assignment for partial re-optimization
	DelayWeight float64
	Logger      *zerolog.Logger // Nil disables logging
}

func (options SchedulerOptions) logger() zerolog.Logger {
	if options.Logger == nil {
		return zerolog.Nop()
	}
	return *options.Logger
}

// Result of a scheduler run. Model sizes, families and fixings add up every phase the scheduler solved.
type Result struct {
	Schedule     Schedule       `json:"schedule"`
	Status       milp.Status    `json:"status"`
	TimeLimitHit bool           `json:"timeLimitHit"`
	Gap          float64        `json:"gap"`
	Reason       string         `json:"reason,omitempty"` // Why no schedule was produced
	BuildTime    time.Duration  `json:"buildTime"`
	SolveTime    time.Duration  `json:"solveTime"`
	Variables    int            `json:"variables"`
	Constraints  int            `json:"constraints"`
	Families     map[string]int `json:"families"`
	Fixing       FixReport      `json:"fixing"`
}
