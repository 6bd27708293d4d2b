package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/limaJavier/surgery-scheduling/pkg/catalog"
	"github.com/limaJavier/surgery-scheduling/pkg/generator"
	"github.com/limaJavier/surgery-scheduling/pkg/milp"
	"github.com/limaJavier/surgery-scheduling/pkg/model"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	exitSolved       = 10
	exitVerification = 15
	exitNoSchedule   = 20

	solverConfigVariable = "SURGERY_SOLVER_CONFIG"
)

var (
	validSolvers    = []string{"cbc", "highs", "exhaustive"}
	validSchedulers = []string{"single", "two-phase"}
	solvers         = map[string]func() milp.Solver{
		"cbc":        milp.NewCbcSolver,
		"highs":      milp.NewHighsSolver,
		"exhaustive": milp.NewExhaustiveSolver,
	}
	schedulers = map[string]func(milp.Solver, model.SchedulerOptions) model.Scheduler{
		"single":    model.NewStartingMinuteScheduler,
		"two-phase": model.NewTwoPhaseScheduler,
	}
)

type output struct {
	Instance string       `json:"instance"`
	Seed     uint64       `json:"seed"`
	Patients int          `json:"patients"`
	Solver   string       `json:"solver"`
	Result   model.Result `json:"result"`
}

func main() {
	defaults := generator.DefaultParams()

	// Define arguments
	instancePathPtr := flag.String("instance", "", "Path to an instance JSON file; if empty, an instance is generated")
	patientsPtr := flag.Int("patients", 60, "Number of patients to generate")
	daysPtr := flag.Uint64("days", 5, "Days in the planning horizon")
	roomsPtr := flag.Uint64("rooms", 4, "Operating rooms")
	anesthetistsPtr := flag.Uint64("anesthetists", 1, "Anesthetists; 0 disables anesthetist planning")
	capacityPtr := flag.Uint64("capacity", 270, "Minutes available per room-day")
	anesthesiaCapacityPtr := flag.Uint64("anesthesia-capacity", 270, "Minutes available per anesthetist-day")
	covidPtr := flag.Float64("covid", defaults.CovidProbability, "Probability of a covid patient")
	anesthesiaPtr := flag.Float64("anesthesia", defaults.AnesthesiaProbability, "Probability of a patient needing an anesthetist")
	specialtyPtr := flag.Float64("specialty-balance", defaults.SpecialtyProbability, "Probability of a patient of the second specialty")
	priorityLowPtr := flag.Float64("priority-low", defaults.Priority.Low, "Lower bound of the priority distribution")
	priorityHighPtr := flag.Float64("priority-high", defaults.Priority.High, "Upper bound of the priority distribution")
	priorityMeanPtr := flag.Float64("priority-mean", defaults.Priority.Mean, "Mean of the priority distribution")
	priorityStdDevPtr := flag.Float64("priority-stddev", defaults.Priority.StdDev, "Standard deviation of the priority distribution")
	samplingPtr := flag.String("sampling", "procedure", `Category sampling: "procedure" draws the procedure directly, "unit" draws the clinical unit first`)
	delayPtr := flag.String("delay", "procedure", `Delay estimation: "procedure" or "unit" (requires unit sampling)`)
	delayWeightPtr := flag.Float64("delay-weight", 0.5, "Weight of the delay score reported in the statistics")
	seedPtr := flag.Uint64("seed", 52876, "Seed of the instance generator")
	solverPtr := flag.String("solver", "cbc", `Solver to use. Allowed values are: "cbc", "highs", "exhaustive"`)
	schedulerPtr := flag.String("scheduler", "single", `Scheduler to use. Allowed values are: "single", "two-phase"`)
	timeLimitPtr := flag.Duration("time-limit", 300*time.Second, "Solver time limit; 0 disables it")
	gapPtr := flag.Float64("gap", 0.01, "Relative optimality gap")
	fixPtr := flag.Bool("fix", true, "Fix implied variables before solving")
	generateOnlyPtr := flag.Bool("generate-only", false, "Write the generated instance and exit")
	lpPathPtr := flag.String("lp", "", "Path where the formulated model is written in LP format")
	outFilePathPtr := flag.String("out", "", "Path to the file where the output will be written; if empty, it'll be written into the Standard Output")
	verbosePtr := flag.Bool("verbose", false, "Log every pipeline stage")
	flag.Parse()

	logger := newLogger(*verbosePtr)

	if err := godotenv.Load(); err != nil {
		logger.Debug().Err(err).Msg("no .env file loaded")
	}
	setConfigPath(&logger)

	solverStr := strings.ToLower(*solverPtr)
	schedulerStr := strings.ToLower(*schedulerPtr)
	sampling, samplingOk := generator.ParseSamplingMode(strings.ToLower(*samplingPtr))
	delayEstimation, delayOk := catalog.ParseDelayEstimation(strings.ToLower(*delayPtr))

	// Validate arguments
	if !slices.Contains(validSolvers, solverStr) {
		logger.Fatal().Msgf("%v is not a valid solver", solverStr)
	} else if !slices.Contains(validSchedulers, schedulerStr) {
		logger.Fatal().Msgf("%v is not a valid scheduler", schedulerStr)
	} else if !samplingOk {
		logger.Fatal().Msgf("%v is not a valid sampling mode", *samplingPtr)
	} else if !delayOk {
		logger.Fatal().Msgf("%v is not a valid delay estimation", *delayPtr)
	} else if *gapPtr < 0 || *gapPtr >= 1 {
		logger.Fatal().Msgf("gap must be in [0, 1): %v", *gapPtr)
	}

	// Extract or generate the instance
	var instance model.Instance
	var err error
	if *instancePathPtr != "" {
		instance, err = model.InstanceFromJson(*instancePathPtr)
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot parse instance file")
		}
	} else {
		params := generator.DistributionParams{
			Priority: generator.TruncatedNormal{
				Low:    *priorityLowPtr,
				High:   *priorityHighPtr,
				Mean:   *priorityMeanPtr,
				StdDev: *priorityStdDevPtr,
			},
			CovidProbability:      *covidPtr,
			SpecialtyProbability:  *specialtyPtr,
			AnesthesiaProbability: *anesthesiaPtr,
			Sampling:              sampling,
			DelayEstimation:       delayEstimation,
		}
		facility := model.NewFacility(*roomsPtr, *daysPtr, *anesthetistsPtr, *capacityPtr, *anesthesiaCapacityPtr)

		instance, err = generator.NewGenerator(catalog.Default()).Instance(*patientsPtr, facility, params, *seedPtr)
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot generate instance")
		}
		logger.Info().Str("instance", instance.Id).Int("patients", len(instance.Patients)).Uint64("seed", instance.Seed).Msg("instance generated")
	}

	if *generateOnlyPtr {
		writeOutput(&logger, instance, *outFilePathPtr)
		os.Exit(exitSolved)
	}

	if *lpPathPtr != "" {
		writeLP(&logger, instance, *fixPtr, *lpPathPtr)
	}

	// Initialize engines
	options := model.SchedulerOptions{
		Solver:      milp.Options{TimeLimit: *timeLimitPtr, Gap: *gapPtr},
		Fixing:      *fixPtr,
		DelayWeight: *delayWeightPtr,
		Logger:      &logger,
	}
	scheduler := schedulers[schedulerStr](solvers[solverStr](), options)

	// Build schedule
	result, err := scheduler.Build(instance)
	if err != nil {
		logger.Fatal().Err(err).Msg("an error occurred during schedule construction")
	}

	logger.Info().
		Str("status", result.Status.String()).
		Int("variables", result.Variables).
		Int("constraints", result.Constraints).
		Int("fixed", result.Fixing.Total).
		Dur("build", result.BuildTime).
		Dur("solve", result.SolveTime).
		Msg("schedule built")

	if result.Reason != "" {
		logger.Warn().Str("reason", result.Reason).Msg("no schedule produced")
		os.Exit(exitNoSchedule)
	}

	// Verify schedule correctness
	if !scheduler.Verify(result.Schedule, instance) {
		os.Exit(exitVerification)
	}

	writeOutput(&logger, output{
		Instance: instance.Id,
		Seed:     instance.Seed,
		Patients: len(instance.Patients),
		Solver:   solverStr,
		Result:   result,
	}, *outFilePathPtr)

	logger.Info().
		Float64("objective", result.Schedule.Statistics.Objective).
		Int("operated", result.Schedule.Statistics.OperatedPatients).
		Float64("delayScore", result.Schedule.Statistics.DelayScore).
		Msg("schedule verified")
	os.Exit(exitSolved)
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).Level(level).With().Timestamp().Caller().Logger()
}

func writeLP(logger *zerolog.Logger, instance model.Instance, fix bool, file string) {
	formulation, err := model.Formulate(instance, model.ModelBuildOptions{})
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot formulate instance")
	}
	if fix {
		model.Fix(formulation, model.DefaultFixingRules()...)
	}
	if err := os.WriteFile(file, []byte(formulation.Model.ToLP()), 0666); err != nil {
		logger.Fatal().Err(err).Msg("an error occurred while writing the LP file")
	}
	logger.Info().Str("file", file).Int("families", len(formulation.Model.Families())).Msg("model exported")
}

func writeOutput(logger *zerolog.Logger, value any, file string) {
	// Marshal output into json
	bytes, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("an error occurred while building output json")
	}

	// Verify outfile is empty, if so then write the results to the Standard Output
	if file == "" {
		fmt.Println(string(bytes))
	} else if err := os.WriteFile(file, bytes, 0666); err != nil {
		logger.Fatal().Err(err).Msg("an error occurred while writing to the output file")
	}
}

// Solver paths come from SURGERY_SOLVER_CONFIG, or from a config.json next to the executable
func setConfigPath(logger *zerolog.Logger) {
	if configPath := os.Getenv(solverConfigVariable); configPath != "" {
		milp.ConfigPath = configPath
		return
	}

	execPath, err := os.Executable()
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot determine executable path")
	}
	execPath = path.Dir(execPath)

	// Verify config.json exists
	files, err := os.ReadDir(execPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot read executable's directory")
	}
	fileNames := lo.Map(files, func(file os.DirEntry, _ int) string { return file.Name() })

	if !slices.Contains(fileNames, "config.json") {
		logger.Debug().Strs("files", fileNames).Msg("config.json was not found, solvers are looked up in PATH")
		return
	}

	milp.ConfigPath = execPath + "/config.json"
}
