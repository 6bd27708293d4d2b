package milp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func knapsack() *Model {
	model := NewModel("knapsack", true)
	weights := []float64{50, 90, 30, 60, 40}
	profits := []float64{10, 50, 20, 80, 15}

	terms := make([]Term, 0, len(weights))
	for i := range weights {
		variable := model.AddVariable("x_"+string(rune('a'+i)), Binary, 0, 1)
		model.AddObjectiveTerm(variable, profits[i])
		terms = append(terms, Term{Variable: variable, Coefficient: weights[i]})
	}
	model.AddConstraint(Constraint{Name: "capacity", Family: "capacity", Terms: terms, Sense: LessOrEqual, RHS: 150})
	return model
}

func TestModel(t *testing.T) {
	t.Run("Binary variables ignore requested bounds", func(t *testing.T) {
		model := NewModel("bounds", true)
		index := model.AddVariable("b", Binary, -4, 9)
		assert.Equal(t, 0.0, model.Variables[index].Lower)
		assert.Equal(t, 1.0, model.Variables[index].Upper)
	})

	t.Run("Duplicate names panic", func(t *testing.T) {
		model := NewModel("duplicates", true)
		model.AddVariable("b", Binary, 0, 1)
		assert.Panics(t, func() { model.AddVariable("b", Continuous, 0, 1) })
	})

	t.Run("Fixing is idempotent and reported once", func(t *testing.T) {
		//** Arrange
		model := knapsack()

		//** Act
		first := model.Fix(1, 1)
		second := model.Fix(1, 1)

		//** Assert
		assert.True(t, first)
		assert.False(t, second)
		assert.Equal(t, 1, model.FixedVariables())
		assert.Panics(t, func() { model.Fix(1, 0) })
	})

	t.Run("Check reports violations", func(t *testing.T) {
		model := knapsack()
		assert.Nil(t, model.Check([]float64{0, 1, 0, 1, 0}, 1e-9))
		assert.ErrorContains(t, model.Check([]float64{1, 1, 0, 1, 0}, 1e-9), "capacity")
		assert.ErrorContains(t, model.Check([]float64{0, 0.5, 0, 1, 0}, 1e-9), "fractional")
		assert.NotNil(t, model.Check([]float64{0, 1}, 1e-9))
	})

	t.Run("Families are counted", func(t *testing.T) {
		model := knapsack()
		assert.Equal(t, map[string]int{"capacity": 1}, model.Families())
	})
}

func TestToLP(t *testing.T) {
	//** Arrange
	model := knapsack()
	start := model.AddVariable("start_a", Continuous, 0, 270)
	model.AddConstraint(Constraint{
		Name:  "ordering",
		Terms: []Term{{Variable: start, Coefficient: 1}, {Variable: 0, Coefficient: -270}},
		Sense: GreaterOrEqual,
		RHS:   -220,
	})
	model.Fix(4, 0)

	//** Act
	lp := model.ToLP()

	//** Assert
	assert.True(t, strings.HasPrefix(lp, "\\ knapsack\nMaximize\n"))
	assert.Contains(t, lp, " obj: + 10 x_a + 50 x_b + 20 x_c + 80 x_d + 15 x_e\n")
	assert.Contains(t, lp, " capacity: + 50 x_a + 90 x_b + 30 x_c + 60 x_d + 40 x_e <= 150\n")
	assert.Contains(t, lp, " ordering: + 1 start_a - 270 x_a >= -220\n")
	assert.Contains(t, lp, " x_e = 0\n")
	assert.Contains(t, lp, " 0 <= start_a <= 270\n")
	assert.Contains(t, lp, "Binaries\n x_a x_b x_c x_d x_e\n")
	assert.NotContains(t, lp, "Generals")
	assert.True(t, strings.HasSuffix(lp, "End\n"))
}

func TestToLPWrapsLongLines(t *testing.T) {
	model := NewModel("wide", true)
	terms := make([]Term, 0, 100)
	for i := range 100 {
		variable := model.AddVariable("variable_with_a_long_name_"+strings.Repeat("z", i%7)+string(rune('a'+i%26))+string(rune('a'+i/26)), Binary, 0, 1)
		terms = append(terms, Term{Variable: variable, Coefficient: 1})
	}
	model.AddConstraint(Constraint{Name: "wide", Terms: terms, Sense: LessOrEqual, RHS: 1})

	for _, line := range strings.Split(model.ToLP(), "\n") {
		assert.LessOrEqual(t, len(line), 255)
	}
}
