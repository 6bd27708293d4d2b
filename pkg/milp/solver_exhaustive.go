package milp

import (
	"fmt"
	"math"
	"slices"
	"time"
)

const (
	exhaustiveTolerance = 1e-9
	deadlineCheckPeriod = 1024
)

// exhaustiveSolver enumerates every assignment of the free binary variables with bound pruning. Continuous variables may
// only appear as single bounds or as differences s1 - s2, which are solved at the leaves as a difference-constraint system.
// It is meant for small models only.
type exhaustiveSolver struct{}

func NewExhaustiveSolver() Solver {
	return &exhaustiveSolver{}
}

type occurrence struct {
	constraint  int // Index within search.pure
	coefficient float64
}

type differenceEdge struct {
	from, to int
	weight   float64
}

type exhaustiveSearch struct {
	model    *Model
	deadline time.Time
	sign     float64 // +1 when maximizing, -1 when minimizing

	values    []float64
	branching []int

	// Pure binary constraints are tracked incrementally: the assigned activity plus the range the free variables can still add
	pure        []Constraint
	occurrences [][]occurrence
	activity    []float64
	minRest     []float64
	maxRest     []float64

	objectiveCoefficients []float64
	objectiveCurrent      float64
	objectiveRest         float64

	continuous     []int
	continuousNode map[int]int
	mixed          []Constraint

	found         bool
	best          []float64
	bestObjective float64
	nodes         uint64
	timedOut      bool
}

func (solver *exhaustiveSolver) Solve(model *Model, options Options) (Solution, error) {
	begin := time.Now()
	search, err := newExhaustiveSearch(model)
	if err != nil {
		return Solution{}, err
	}
	if options.TimeLimit > 0 {
		search.deadline = begin.Add(options.TimeLimit)
	}

	rootBound := search.objectiveCurrent + search.objectiveRest
	if search.consistent() {
		search.explore(0)
	}

	solution := Solution{Elapsed: time.Since(begin)}
	switch {
	case search.found && !search.timedOut:
		solution.Status = Optimal
	case search.found:
		solution.Status = TimeLimitHit
		solution.Gap = (rootBound - search.bestObjective) / math.Max(math.Abs(search.bestObjective), exhaustiveTolerance)
	case search.timedOut:
		solution.Status = TimeLimitHit
		solution.Gap = math.Inf(1)
	default:
		solution.Status = Infeasible
	}
	if search.found {
		solution.Values = search.best
		solution.Objective = model.ObjectiveValue(search.best)
	}

	return finishSolution(model, solution, options)
}

func newExhaustiveSearch(model *Model) (*exhaustiveSearch, error) {
	search := &exhaustiveSearch{
		model:                 model,
		sign:                  1,
		values:                make([]float64, len(model.Variables)),
		occurrences:           make([][]occurrence, len(model.Variables)),
		objectiveCoefficients: make([]float64, len(model.Variables)),
		continuousNode:        make(map[int]int),
		bestObjective:         math.Inf(-1),
	}
	if !model.Maximize {
		search.sign = -1
	}

	for _, term := range model.Objective {
		search.objectiveCoefficients[term.Variable] += search.sign * term.Coefficient
	}

	for _, variable := range model.Variables {
		switch variable.Kind {
		case Integer:
			return nil, fmt.Errorf("exhaustive solver does not support general integer variable %s", variable.Name)
		case Continuous:
			if search.objectiveCoefficients[variable.Index] != 0 {
				return nil, fmt.Errorf("exhaustive solver does not support continuous variable %s in the objective", variable.Name)
			}
			search.continuousNode[variable.Index] = len(search.continuous)
			search.continuous = append(search.continuous, variable.Index)
		case Binary:
			coefficient := search.objectiveCoefficients[variable.Index]
			if variable.Fixed {
				search.values[variable.Index] = variable.Lower
				search.objectiveCurrent += coefficient * variable.Lower
			} else {
				search.branching = append(search.branching, variable.Index)
				search.objectiveRest += math.Max(0, coefficient)
			}
		}
	}

	for _, constraint := range model.Constraints {
		continuousTerms := 0
		for _, term := range constraint.Terms {
			if model.Variables[term.Variable].Kind == Continuous {
				continuousTerms++
			}
		}

		switch continuousTerms {
		case 0:
			search.addPure(constraint)
		case 1:
			search.mixed = append(search.mixed, constraint)
		case 2:
			if !search.isDifference(constraint) {
				return nil, fmt.Errorf("exhaustive solver requires constraint %s to relate continuous variables as a difference", constraint.Name)
			}
			search.mixed = append(search.mixed, constraint)
		default:
			return nil, fmt.Errorf("exhaustive solver does not support constraint %s with %d continuous terms", constraint.Name, continuousTerms)
		}
	}

	return search, nil
}

func (search *exhaustiveSearch) addPure(constraint Constraint) {
	index := len(search.pure)
	search.pure = append(search.pure, constraint)

	activity, minRest, maxRest := 0.0, 0.0, 0.0
	for _, term := range constraint.Terms {
		variable := search.model.Variables[term.Variable]
		if variable.Fixed {
			activity += term.Coefficient * variable.Lower
			continue
		}
		minRest += math.Min(0, term.Coefficient)
		maxRest += math.Max(0, term.Coefficient)
		search.occurrences[term.Variable] = append(search.occurrences[term.Variable], occurrence{index, term.Coefficient})
	}
	search.activity = append(search.activity, activity)
	search.minRest = append(search.minRest, minRest)
	search.maxRest = append(search.maxRest, maxRest)
}

func (search *exhaustiveSearch) isDifference(constraint Constraint) bool {
	coefficients := make([]float64, 0, 2)
	for _, term := range constraint.Terms {
		if search.model.Variables[term.Variable].Kind == Continuous {
			coefficients = append(coefficients, term.Coefficient)
		}
	}
	return coefficients[0] != 0 && coefficients[0] == -coefficients[1]
}

// Checks every pure constraint against the fixed variables alone
func (search *exhaustiveSearch) consistent() bool {
	for index := range search.pure {
		if !search.attainable(index) {
			return false
		}
	}
	return true
}

func (search *exhaustiveSearch) attainable(index int) bool {
	constraint := search.pure[index]
	lowest := search.activity[index] + search.minRest[index]
	highest := search.activity[index] + search.maxRest[index]
	switch constraint.Sense {
	case LessOrEqual:
		return lowest <= constraint.RHS+exhaustiveTolerance
	case GreaterOrEqual:
		return highest >= constraint.RHS-exhaustiveTolerance
	default:
		return lowest <= constraint.RHS+exhaustiveTolerance && highest >= constraint.RHS-exhaustiveTolerance
	}
}

func (search *exhaustiveSearch) explore(depth int) {
	if search.timedOut {
		return
	}
	search.nodes++
	if !search.deadline.IsZero() && search.nodes%deadlineCheckPeriod == 0 && time.Now().After(search.deadline) {
		search.timedOut = true
		return
	}
	if search.found && search.objectiveCurrent+search.objectiveRest <= search.bestObjective+exhaustiveTolerance {
		return
	}
	if depth == len(search.branching) {
		search.leaf()
		return
	}

	variable := search.branching[depth]
	order := [2]float64{0, 1}
	if search.objectiveCoefficients[variable] > 0 {
		order = [2]float64{1, 0}
	}

	for _, value := range order {
		if search.assign(variable, value) {
			search.explore(depth + 1)
		}
		search.unassign(variable, value)
	}
}

func (search *exhaustiveSearch) assign(variable int, value float64) bool {
	coefficient := search.objectiveCoefficients[variable]
	search.objectiveRest -= math.Max(0, coefficient)
	search.objectiveCurrent += coefficient * value
	search.values[variable] = value

	feasible := true
	for _, occurrence := range search.occurrences[variable] {
		index := occurrence.constraint
		search.activity[index] += occurrence.coefficient * value
		search.minRest[index] -= math.Min(0, occurrence.coefficient)
		search.maxRest[index] -= math.Max(0, occurrence.coefficient)
		if !search.attainable(index) {
			feasible = false
		}
	}
	return feasible
}

func (search *exhaustiveSearch) unassign(variable int, value float64) {
	coefficient := search.objectiveCoefficients[variable]
	search.objectiveRest += math.Max(0, coefficient)
	search.objectiveCurrent -= coefficient * value
	search.values[variable] = 0

	for _, occurrence := range search.occurrences[variable] {
		index := occurrence.constraint
		search.activity[index] -= occurrence.coefficient * value
		search.minRest[index] += math.Min(0, occurrence.coefficient)
		search.maxRest[index] += math.Max(0, occurrence.coefficient)
	}
}

// Solves the continuous variables under the current binary assignment and records an improving incumbent
func (search *exhaustiveSearch) leaf() {
	if !search.solveDifferences() {
		return
	}
	search.found = true
	search.bestObjective = search.objectiveCurrent
	search.best = slices.Clone(search.values)
}

// Builds the difference-constraint graph (node len(continuous) is the origin) and runs Bellman-Ford from a virtual source
func (search *exhaustiveSearch) solveDifferences() bool {
	if len(search.continuous) == 0 {
		return true
	}

	origin := len(search.continuous)
	edges := make([]differenceEdge, 0, 2*len(search.continuous)+len(search.mixed))
	for node, index := range search.continuous {
		variable := search.model.Variables[index]
		if !isInfinite(variable.Upper) {
			edges = append(edges, differenceEdge{from: origin, to: node, weight: variable.Upper})
		}
		edges = append(edges, differenceEdge{from: node, to: origin, weight: -variable.Lower})
	}

	for _, constraint := range search.mixed {
		residual := constraint.RHS
		continuousTerms := make([]Term, 0, 2)
		for _, term := range constraint.Terms {
			if _, ok := search.continuousNode[term.Variable]; ok {
				continuousTerms = append(continuousTerms, term)
			} else {
				residual -= term.Coefficient * search.values[term.Variable]
			}
		}

		switch constraint.Sense {
		case LessOrEqual:
			edges = search.appendInequality(edges, continuousTerms, residual, 1)
		case GreaterOrEqual:
			edges = search.appendInequality(edges, continuousTerms, residual, -1)
		default:
			edges = search.appendInequality(edges, continuousTerms, residual, 1)
			edges = search.appendInequality(edges, continuousTerms, residual, -1)
		}
	}

	distances := make([]float64, origin+1)
	for iteration := 0; ; iteration++ {
		relaxed := false
		for _, edge := range edges {
			if distances[edge.from]+edge.weight < distances[edge.to]-exhaustiveTolerance {
				distances[edge.to] = distances[edge.from] + edge.weight
				relaxed = true
			}
		}
		if !relaxed {
			break
		}
		if iteration >= origin+1 { // Negative cycle
			return false
		}
	}

	for node, index := range search.continuous {
		search.values[index] = distances[node] - distances[origin]
	}
	return true
}

// Appends the edges of direction * (terms) <= direction * residual
func (search *exhaustiveSearch) appendInequality(edges []differenceEdge, terms []Term, residual, direction float64) []differenceEdge {
	residual *= direction
	origin := len(search.continuous)

	if len(terms) == 1 {
		coefficient := direction * terms[0].Coefficient
		node := search.continuousNode[terms[0].Variable]
		if coefficient > 0 { // s <= residual / coefficient
			return append(edges, differenceEdge{from: origin, to: node, weight: residual / coefficient})
		} // s >= residual / coefficient
		return append(edges, differenceEdge{from: node, to: origin, weight: -residual / coefficient})
	}

	first, second := terms[0], terms[1]
	coefficient := direction * first.Coefficient
	firstNode, secondNode := search.continuousNode[first.Variable], search.continuousNode[second.Variable]
	if coefficient > 0 { // s1 - s2 <= residual / coefficient
		return append(edges, differenceEdge{from: secondNode, to: firstNode, weight: residual / coefficient})
	} // s2 - s1 <= residual / -coefficient
	return append(edges, differenceEdge{from: firstNode, to: secondNode, weight: -residual / coefficient})
}
