package milp

import (
	"fmt"
	"time"
)

type Status uint8

const (
	StatusUnknown Status = iota
	Optimal
	Feasible
	Infeasible
	TimeLimitHit
)

func (status Status) String() string {
	switch status {
	case Optimal:
		return "optimal"
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	case TimeLimitHit:
		return "time limit"
	default:
		return "unknown"
	}
}

func (status Status) MarshalText() ([]byte, error) {
	return []byte(status.String()), nil
}

func (status *Status) UnmarshalText(text []byte) error {
	for candidate := StatusUnknown; candidate <= TimeLimitHit; candidate++ {
		if candidate.String() == string(text) {
			*status = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown solution status %q", text)
}

type Options struct {
	TimeLimit time.Duration // Zero means no limit
	Gap       float64       // Relative optimality gap at which the search may stop
}

// Solution holds the raw variable values indexed exactly as the model's variables
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Elapsed   time.Duration
	Gap       float64
}

func (solution Solution) HasValues() bool {
	return len(solution.Values) > 0
}

type Solver interface {
	Solve(model *Model, options Options) (Solution, error)
}

type InfeasibleError struct {
	Model string
}

func (err *InfeasibleError) Error() string {
	return fmt.Sprintf("model %s is infeasible", err.Model)
}

// TimeLimitError is recoverable: when HasSolution is set the returned solution carries the incumbent
type TimeLimitError struct {
	Limit       time.Duration
	HasSolution bool
}

func (err *TimeLimitError) Error() string {
	if err.HasSolution {
		return fmt.Sprintf("time limit of %v reached with a feasible solution", err.Limit)
	}
	return fmt.Sprintf("time limit of %v reached without a feasible solution", err.Limit)
}
