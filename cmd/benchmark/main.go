package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/limaJavier/surgery-scheduling/pkg/model"
	"github.com/samber/lo"
)

const (
	executablePath = "../../bin/schedule"
	resultsFile    = "benchmark_results.csv"
)

type ResultType int

const (
	solved ResultType = iota
	noSchedule
	verificationFailed
)

var resultTypes = map[ResultType]string{
	solved:             "solved",
	noSchedule:         "no-schedule",
	verificationFailed: "verification-failed",
}

// Scenario is one generated instance configuration of the sweep
type Scenario struct {
	Patients         int
	CovidProbability float64
	DelayWeight      float64
	Anesthetists     uint64
	Seed             uint64
}

type BenchmarkResult struct {
	Solver        string
	Scheduler     string
	Scenario      Scenario
	Duration      int64
	Memory        float32
	CpuPercentage int64
	Result        ResultType
	Objective     float64
	Operated      int
	DelayScore    float64
	TimeLimitHit  bool
}

func main() {
	scenarios := getScenarios()
	schedulers := []string{"single", "two-phase"}
	solvers := []string{"cbc", "highs"}
	results := make([]BenchmarkResult, 0, len(scenarios)*len(schedulers)*len(solvers))

	for _, scenario := range scenarios {
		for _, scheduler := range schedulers {
			for _, solver := range solvers {
				fmt.Printf("Benchmarking %d patients (covid %v, delay weight %v, anesthetists %d) with scheduler \"%v\" and solver \"%v\"\n",
					scenario.Patients, scenario.CovidProbability, scenario.DelayWeight, scenario.Anesthetists, scheduler, solver)

				results = append(results, measure(scenario, scheduler, solver))
			}
		}
	}

	toCsv(results)
}

// The sweep of the historical experiments: covid share, delay weight and population size
func getScenarios() []Scenario {
	scenarios := make([]Scenario, 0)
	for _, patients := range []int{20, 40, 60} {
		for _, covid := range []float64{0.1, 0.2, 0.3} {
			for _, delayWeight := range []float64{0.25, 0.5, 0.75} {
				for _, anesthetists := range []uint64{0, 1} {
					scenarios = append(scenarios, Scenario{
						Patients:         patients,
						CovidProbability: covid,
						DelayWeight:      delayWeight,
						Anesthetists:     anesthetists,
						Seed:             52876,
					})
				}
			}
		}
	}
	return scenarios
}

func measure(scenario Scenario, scheduler, solver string) BenchmarkResult {
	outFile := filepath.Join(os.TempDir(), fmt.Sprintf("benchmark_%d_%v_%v_%d_%v_%v.json",
		scenario.Patients, scenario.CovidProbability, scenario.DelayWeight, scenario.Anesthetists, scheduler, solver))
	defer os.Remove(outFile)

	cmd := exec.Command("/usr/bin/time", "-v", executablePath,
		"-patients", fmt.Sprint(scenario.Patients),
		"-covid", fmt.Sprint(scenario.CovidProbability),
		"-delay-weight", fmt.Sprint(scenario.DelayWeight),
		"-anesthetists", fmt.Sprint(scenario.Anesthetists),
		"-seed", fmt.Sprint(scenario.Seed),
		"-scheduler", scheduler,
		"-solver", solver,
		"-out", outFile,
	)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	result := BenchmarkResult{Solver: solver, Scheduler: scheduler, Scenario: scenario}

	cmd.Run()
	switch cmd.ProcessState.ExitCode() {
	case 10:
		result.Result = solved
	case 20:
		result.Result = noSchedule
	case 15:
		result.Result = verificationFailed
	default:
		log.Fatalf("an error occurred during the execution of \"schedule\" with %d patients, scheduler \"%v\", solver \"%v\": %v\n", scenario.Patients, scheduler, solver, stdErr.String())
	}

	if result.Result == solved {
		readSchedule(outFile, &result)
	}

	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) string {
		line, ok := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			log.Fatalf("Substring \"%v\" could not be found", substr)
		}
		return line
	}

	result.Duration = parseDurationLine(getLine("wall clock"))
	result.Memory = parseMemoryLine(getLine("maximum resident set size"))
	result.CpuPercentage = parseCpuPercentageLine(getLine("percent of cpu"))

	return result
}

func readSchedule(file string, result *BenchmarkResult) {
	content, err := os.ReadFile(file)
	if err != nil {
		log.Fatalf("cannot read schedule output: %v", err)
	}

	var output struct {
		Result model.Result `json:"result"`
	}
	if err := json.Unmarshal(content, &output); err != nil {
		log.Fatalf("cannot parse schedule output: %v", err)
	}

	statistics := output.Result.Schedule.Statistics
	result.Objective = statistics.Objective
	result.Operated = statistics.OperatedPatients
	result.DelayScore = statistics.DelayScore
	result.TimeLimitHit = output.Result.TimeLimitHit
}

func toCsv(results []BenchmarkResult) {
	file, err := os.Create(resultsFile)
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Solver", "Scheduler", "Patients", "Covid", "DelayWeight", "Anesthetists", "Seed", "Duration(ms)", "Memory(MB)", "CPU(%)", "Result", "Objective", "Operated", "DelayScore", "TimeLimitHit"}
	if err := writer.Write(header); err != nil {
		log.Panicf("cannot write CSV header: %v", err)
	}

	for _, result := range results {
		record := []string{
			result.Solver,
			result.Scheduler,
			fmt.Sprintf("%d", result.Scenario.Patients),
			fmt.Sprintf("%v", result.Scenario.CovidProbability),
			fmt.Sprintf("%v", result.Scenario.DelayWeight),
			fmt.Sprintf("%d", result.Scenario.Anesthetists),
			fmt.Sprintf("%d", result.Scenario.Seed),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.CpuPercentage),
			resultTypes[result.Result],
			fmt.Sprintf("%.2f", result.Objective),
			fmt.Sprintf("%d", result.Operated),
			fmt.Sprintf("%.4f", result.DelayScore),
			fmt.Sprintf("%v", result.TimeLimitHit),
		}
		if err := writer.Write(record); err != nil {
			log.Panicf("cannot write CSV record: %v", err)
		}
	}
}

func parseDurationLine(line string) int64 {
	durationStr := strings.Split(line, "(h:mm:ss or m:ss):")[1][1:]
	return parseDuration(durationStr)
}

func parseDuration(durationStr string) int64 {
	parts := strings.Split(durationStr, ":")
	secondsStr := parts[len(parts)-1]
	secondsParts := strings.Split(secondsStr, ".")

	var duration int64
	if len(parts) == 3 { // h:mm:ss
		hours := lo.Must(strconv.Atoi(parts[0]))
		minutes := lo.Must(strconv.Atoi(parts[1]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(hours*3600+minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else if len(parts) == 2 { // m:ss
		minutes := lo.Must(strconv.Atoi(parts[0]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else {
		log.Fatalf("unexpected duration format: %v", durationStr)
	}
	return duration
}

func parseMemoryLine(line string) float32 {
	memoryStr := strings.Split(line, ":")[1][1:]
	return float32(lo.Must(strconv.ParseFloat(memoryStr, 32))) / 1024
}

func parseCpuPercentageLine(line string) int64 {
	percentageStr := strings.Split(line, ":")[1][1:]
	percentageStr = percentageStr[:len(percentageStr)-1]
	return int64(lo.Must(strconv.Atoi(percentageStr)))
}
