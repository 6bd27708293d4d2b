package milp

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

type cbcSolver struct{}

func NewCbcSolver() Solver {
	return &cbcSolver{}
}

var cbcGapPattern = regexp.MustCompile(`Gap:\s+([-+0-9.eE]+)`)

func (solver *cbcSolver) Solve(model *Model, options Options) (Solution, error) {
	cbcPath := getExecutablePath("cbcPath", "cbc")

	modelFile, err := writeTempFile("model-*.lp", model.ToLP())
	if err != nil {
		return Solution{}, fmt.Errorf("failed to write LP model to temporary file: %w", err)
	}
	defer os.Remove(modelFile)

	outputFile, err := writeTempFile("cbc_solution-*.txt", "")
	if err != nil {
		return Solution{}, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(outputFile)

	args := []string{modelFile}
	if options.TimeLimit > 0 {
		args = append(args, "sec", strconv.FormatFloat(options.TimeLimit.Seconds(), 'f', -1, 64))
	}
	if options.Gap > 0 {
		args = append(args, "ratio", strconv.FormatFloat(options.Gap, 'f', -1, 64))
	}
	args = append(args, "solve", "solu", outputFile)

	cmd := exec.Command(cbcPath, args...)
	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	begin := time.Now()
	if err := cmd.Run(); err != nil {
		return Solution{}, fmt.Errorf("an error occurred during cbc execution: %w : %v", err, stderr.String())
	}
	elapsed := time.Since(begin)

	output, err := os.ReadFile(outputFile)
	if err != nil {
		return Solution{}, fmt.Errorf("failed to read output file: %w", err)
	}

	solution, err := solver.parseSolution(model, string(output))
	if err != nil {
		return Solution{}, err
	}
	solution.Elapsed = elapsed
	if solution.Status == Optimal {
		solution.Gap = 0
	} else {
		solution.Gap = parseFloatMatch(cbcGapPattern, stdOut.String(), solution.Gap)
	}

	return finishSolution(model, solution, options)
}

// Parses a cbc "solu" file: a status line followed by "index name value reducedCost" rows, where only non-zero values are listed
func (solver *cbcSolver) parseSolution(model *Model, solverOutput string) (Solution, error) {
	lines := lo.Filter(strings.Split(solverOutput, "\n"), func(line string, _ int) bool {
		return strings.TrimSpace(line) != ""
	})
	if len(lines) == 0 {
		return Solution{}, fmt.Errorf("cbc produced an empty solution file")
	}

	header := strings.ToLower(lines[0])
	solution := Solution{Status: StatusUnknown}
	hasValues := true
	switch {
	case strings.HasPrefix(header, "optimal"):
		solution.Status = Optimal
	case strings.Contains(header, "infeasible"):
		solution.Status = Infeasible
		hasValues = false
	case strings.HasPrefix(header, "stopped on time") || strings.HasPrefix(header, "stopped on iterations") || strings.HasPrefix(header, "stopped on nodes"):
		solution.Status = TimeLimitHit
		hasValues = !strings.Contains(header, "no integer solution")
	case strings.HasPrefix(header, "stopped on ratio") || strings.HasPrefix(header, "stopped on gap"):
		solution.Status = Feasible
	default:
		return Solution{}, fmt.Errorf("unrecognized cbc status line: %q", lines[0])
	}
	if !hasValues {
		return solution, nil
	}

	named := make(map[string]float64)
	for _, line := range lines[1:] {
		fields := strings.Fields(strings.ReplaceAll(line, "**", ""))
		if len(fields) < 3 {
			continue
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Solution{}, fmt.Errorf("invalid value in cbc output line %q: %w", line, err)
		}
		named[fields[1]] = value
	}

	solution.Values = valuesByName(model, named)
	solution.Objective = model.ObjectiveValue(solution.Values)
	return solution, nil
}

// Turns a parsed solution into the Solver contract: infeasibility and time limits become typed errors
func finishSolution(model *Model, solution Solution, options Options) (Solution, error) {
	switch solution.Status {
	case Infeasible:
		return solution, &InfeasibleError{Model: model.Name}
	case TimeLimitHit:
		return solution, &TimeLimitError{Limit: options.TimeLimit, HasSolution: solution.HasValues()}
	}
	return solution, nil
}
