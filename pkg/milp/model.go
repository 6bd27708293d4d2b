package milp

import (
	"fmt"
	"log"
	"math"

	"github.com/samber/lo"
)

type VariableKind uint8

const (
	Binary VariableKind = iota
	Continuous
	Integer
)

func (kind VariableKind) String() string {
	switch kind {
	case Binary:
		return "binary"
	case Continuous:
		return "continuous"
	default:
		return "integer"
	}
}

type Variable struct {
	Index int
	Name  string
	Kind  VariableKind
	Lower float64
	Upper float64
	Fixed bool // Lower == Upper was imposed before solving
}

type Term struct {
	Variable    int
	Coefficient float64
}

type Sense uint8

const (
	LessOrEqual Sense = iota
	GreaterOrEqual
	Equal
)

func (sense Sense) String() string {
	switch sense {
	case LessOrEqual:
		return "<="
	case GreaterOrEqual:
		return ">="
	default:
		return "="
	}
}

type Constraint struct {
	Name   string
	Family string
	Terms  []Term
	Sense  Sense
	RHS    float64
}

// Activity evaluates the constraint's left-hand side under the given values
func (constraint Constraint) Activity(values []float64) float64 {
	return lo.SumBy(constraint.Terms, func(term Term) float64 {
		return term.Coefficient * values[term.Variable]
	})
}

// Satisfied checks the constraint within the given absolute tolerance
func (constraint Constraint) Satisfied(values []float64, tolerance float64) bool {
	activity := constraint.Activity(values)
	switch constraint.Sense {
	case LessOrEqual:
		return activity <= constraint.RHS+tolerance
	case GreaterOrEqual:
		return activity >= constraint.RHS-tolerance
	default:
		return math.Abs(activity-constraint.RHS) <= tolerance
	}
}

// Model is a mixed-integer linear program over named variables
type Model struct {
	Name        string
	Maximize    bool
	Variables   []Variable
	Constraints []Constraint
	Objective   []Term

	names map[string]int
}

func NewModel(name string, maximize bool) *Model {
	return &Model{
		Name:     name,
		Maximize: maximize,
		names:    make(map[string]int),
	}
}

// AddVariable declares a variable and returns its index. Binary variables ignore the given bounds.
func (model *Model) AddVariable(name string, kind VariableKind, lower, upper float64) int {
	if _, ok := model.names[name]; ok {
		log.Panicf("variable %q is already declared", name)
	}
	if kind == Binary {
		lower, upper = 0, 1
	}

	index := len(model.Variables)
	model.Variables = append(model.Variables, Variable{
		Index: index,
		Name:  name,
		Kind:  kind,
		Lower: lower,
		Upper: upper,
	})
	model.names[name] = index
	return index
}

func (model *Model) AddConstraint(constraint Constraint) {
	if len(constraint.Terms) == 0 {
		log.Panicf("constraint %q has no terms", constraint.Name)
	}
	model.Constraints = append(model.Constraints, constraint)
}

func (model *Model) AddObjectiveTerm(variable int, coefficient float64) {
	model.Objective = append(model.Objective, Term{Variable: variable, Coefficient: coefficient})
}

// Fix pins a variable to a value. It reports whether the variable was not fixed before.
func (model *Model) Fix(variable int, value float64) bool {
	target := &model.Variables[variable]
	if target.Fixed {
		if target.Lower != value {
			log.Panicf("variable %q is already fixed to %v, cannot fix it to %v", target.Name, target.Lower, value)
		}
		return false
	}
	target.Lower, target.Upper, target.Fixed = value, value, true
	return true
}

func (model *Model) VariableByName(name string) (Variable, bool) {
	index, ok := model.names[name]
	if !ok {
		return Variable{}, false
	}
	return model.Variables[index], true
}

func (model *Model) FixedVariables() int {
	return lo.CountBy(model.Variables, func(variable Variable) bool { return variable.Fixed })
}

func (model *Model) ObjectiveValue(values []float64) float64 {
	return lo.SumBy(model.Objective, func(term Term) float64 {
		return term.Coefficient * values[term.Variable]
	})
}

// Check verifies bounds, integrality and every constraint, returning the first violation found
func (model *Model) Check(values []float64, tolerance float64) error {
	if len(values) != len(model.Variables) {
		return fmt.Errorf("expected %d values, got %d", len(model.Variables), len(values))
	}

	for _, variable := range model.Variables {
		value := values[variable.Index]
		if value < variable.Lower-tolerance || value > variable.Upper+tolerance {
			return fmt.Errorf("variable %s = %v is outside [%v, %v]", variable.Name, value, variable.Lower, variable.Upper)
		}
		if variable.Kind != Continuous && math.Abs(value-math.Round(value)) > tolerance {
			return fmt.Errorf("%s variable %s = %v is fractional", variable.Kind, variable.Name, value)
		}
	}

	for _, constraint := range model.Constraints {
		if !constraint.Satisfied(values, tolerance) {
			return fmt.Errorf("constraint %s is violated: %v %v %v", constraint.Name, constraint.Activity(values), constraint.Sense, constraint.RHS)
		}
	}
	return nil
}

// Families counts constraints per family
func (model *Model) Families() map[string]int {
	return lo.CountValuesBy(model.Constraints, func(constraint Constraint) string { return constraint.Family })
}
