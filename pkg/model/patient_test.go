package model

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassOf(t *testing.T) {
	cases := []struct {
		covid, dirty, delay bool
		expected            PrecedenceClass
	}{
		{false, false, false, CleanOnTime},
		{false, false, true, CleanDelayed},
		{false, true, false, DirtyOnTime},
		{false, true, true, DirtyDelayed},
		{true, false, false, CovidOnTime},
		{true, false, true, CovidDelayed},
		{true, true, false, CovidOnTime},
		{true, true, true, CovidDelayed},
	}

	for _, test := range cases {
		assert.Equal(t, test.expected, ClassOf(test.covid, test.dirty, test.delay), "covid=%v dirty=%v delay=%v", test.covid, test.dirty, test.delay)
	}
}

func TestPrecedenceIsStrictOrder(t *testing.T) {
	random := func() PrecedenceClass { return PrecedenceClass(rand.Intn(PrecedenceClasses) + 1) }

	for range 200 {
		a, b, c := random(), random(), random()

		assert.False(t, Precedes(a, a), "irreflexive")
		assert.False(t, Precedes(a, b) && Precedes(b, a), "asymmetric")
		if Precedes(a, b) && Precedes(b, c) {
			assert.True(t, Precedes(a, c), "transitive")
		}
	}
}

func TestPrecedenceClassValidity(t *testing.T) {
	assert.False(t, PrecedenceClass(0).Valid())
	assert.True(t, CleanOnTime.Valid())
	assert.True(t, CovidDelayed.Valid())
	assert.False(t, PrecedenceClass(7).Valid())
	assert.Equal(t, "dirty-delayed", DirtyDelayed.String())
	assert.Equal(t, "class(9)", PrecedenceClass(9).String())
}
