package milp

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type highsSolver struct{}

func NewHighsSolver() Solver {
	return &highsSolver{}
}

var highsGapPattern = regexp.MustCompile(`Gap\s+([0-9.eE+-]+)%`)

func (solver *highsSolver) Solve(model *Model, options Options) (Solution, error) {
	highsPath := getExecutablePath("highsPath", "highs")

	modelFile, err := writeTempFile("model-*.lp", model.ToLP())
	if err != nil {
		return Solution{}, fmt.Errorf("failed to write LP model to temporary file: %w", err)
	}
	defer os.Remove(modelFile)

	optionsFile, err := writeTempFile("highs_options-*.txt", fmt.Sprintf("mip_rel_gap = %v\n", options.Gap))
	if err != nil {
		return Solution{}, fmt.Errorf("failed to write options to temporary file: %w", err)
	}
	defer os.Remove(optionsFile)

	outputFile, err := writeTempFile("highs_solution-*.txt", "")
	if err != nil {
		return Solution{}, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(outputFile)

	args := []string{"--model_file", modelFile, "--options_file", optionsFile, "--solution_file", outputFile}
	if options.TimeLimit > 0 {
		args = append(args, "--time_limit", strconv.FormatFloat(options.TimeLimit.Seconds(), 'f', -1, 64))
	}

	cmd := exec.Command(highsPath, args...)
	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	begin := time.Now()
	if err := cmd.Run(); err != nil {
		return Solution{}, fmt.Errorf("an error occurred during highs execution: %w : %v", err, stderr.String())
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
	if solution.Status != Optimal {
		solution.Gap = parseFloatMatch(highsGapPattern, stdOut.String(), math.Inf(1)*100) / 100
	}

	return finishSolution(model, solution, options)
}

// Parses a highs raw solution file: "Model status" block, then "# Columns n" followed by n "name value" rows
func (solver *highsSolver) parseSolution(model *Model, solverOutput string) (Solution, error) {
	lines := strings.Split(strings.ReplaceAll(solverOutput, "\r\n", "\n"), "\n")

	solution := Solution{Status: StatusUnknown}
	named := make(map[string]float64)
	primalAvailable := false
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "Model status" && i+1 < len(lines):
			i++
			status, err := solver.parseStatus(strings.TrimSpace(lines[i]))
			if err != nil {
				return Solution{}, err
			}
			solution.Status = status
		case line == "# Primal solution values" && i+1 < len(lines):
			i++
			primalAvailable = strings.TrimSpace(lines[i]) == "Feasible"
		case strings.HasPrefix(line, "# Columns") && primalAvailable:
			columns, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "# Columns")))
			if err != nil {
				return Solution{}, fmt.Errorf("invalid column count in highs output %q: %w", line, err)
			}
			for j := 0; j < columns && i+1 < len(lines); j++ {
				i++
				fields := strings.Fields(lines[i])
				if len(fields) < 2 {
					return Solution{}, fmt.Errorf("invalid column line in highs output %q", lines[i])
				}
				value, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return Solution{}, fmt.Errorf("invalid value in highs output line %q: %w", lines[i], err)
				}
				named[fields[0]] = value
			}
			primalAvailable = false
		}
	}

	if solution.Status == StatusUnknown {
		return Solution{}, fmt.Errorf("highs solution file carries no model status")
	}
	if solution.Status != Infeasible && len(named) > 0 {
		solution.Values = valuesByName(model, named)
		solution.Objective = model.ObjectiveValue(solution.Values)
	}
	return solution, nil
}

func (solver *highsSolver) parseStatus(status string) (Status, error) {
	switch status {
	case "Optimal":
		return Optimal, nil
	case "Infeasible", "Primal infeasible or unbounded":
		return Infeasible, nil
	case "Time limit reached", "Iteration limit reached", "Solution limit reached":
		return TimeLimitHit, nil
	case "Interrupted by user":
		return Feasible, nil
	}
	return StatusUnknown, fmt.Errorf("unrecognized highs model status %q", status)
}
