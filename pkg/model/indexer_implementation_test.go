package model

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexAndAttributesDeterministic(t *testing.T) {
	//** Arrange
	scenarios := [][]uint64{
		{3, 3, 3, 3},
		{20, 5, 10, 5},
		{15, 7, 7, 1},
		{1, 4, 5, 45},
	}

	for _, scenario := range scenarios {
		//** Act
		indexer := newIndexer(scenario...)

		indices := make([]uint64, 0, indexer.Size())
		for patient1 := range scenario[0] {
			for patient2 := range scenario[1] {
				for room := range scenario[2] {
					for day := range scenario[3] {
						indices = append(indices, indexer.Index(patient1, patient2, room, day))
					}
				}
			}
		}

		//** Assert
		assert.Equal(t, scenario[0]*scenario[1]*scenario[2]*scenario[3], indexer.Size())
		slices.Sort(indices)
		assert.Len(t, slices.Compact(indices), int(indexer.Size()), "indices must be unique")
		for _, index := range indices {
			assert.Less(t, index, indexer.Size())
			assert.Equal(t, index, indexer.Index(indexer.Attributes(index)...))
		}
	}
}

func TestIndexAndAttributesNonDeterministic(t *testing.T) {
	for range 10 {
		//** Arrange
		patients := uint64(rand.Intn(20) + 1)
		rooms := uint64(rand.Intn(5) + 1)
		days := uint64(rand.Intn(5) + 1)
		indexer := newIndexer(patients, rooms, days)

		patient, room, day := uint64(rand.Intn(int(patients))), uint64(rand.Intn(int(rooms))), uint64(rand.Intn(int(days)))

		//** Act
		attributes := indexer.Attributes(indexer.Index(patient, room, day))

		//** Assert
		assert.Equal(t, []uint64{patient, room, day}, attributes)
	}
}

func TestIndexOutsideDomainPanics(t *testing.T) {
	indexer := newIndexer(2, 3)

	assert.Panics(t, func() { indexer.Index(2, 0) })
	assert.Panics(t, func() { indexer.Index(0, 3) })
	assert.Panics(t, func() { indexer.Index(0) })
}

func TestConstrainedPermutations(t *testing.T) {
	t.Run("Unconstrained generator enumerates the whole product", func(t *testing.T) {
		generator := newPermutationGenerator(3, 2, 2)

		permutations := generator.ConstrainedPermutations(nil)

		assert.Len(t, permutations, 12)
		assert.Equal(t, []uint64{0, 0, 0}, permutations[0])
		assert.Equal(t, []uint64{2, 1, 1}, permutations[len(permutations)-1])
	})

	t.Run("Constraints prune partial permutations", func(t *testing.T) {
		generator := newPermutationGenerator(4, 4)

		permutations := generator.ConstrainedPermutations([]func(permutation []uint64) bool{
			func(permutation []uint64) bool {
				patient1, patient2 := permutation[0], permutation[1]
				return patient1 == math.MaxUint64 || patient2 == math.MaxUint64 || patient1 < patient2
			},
		})

		assert.Len(t, permutations, 6)
		for _, permutation := range permutations {
			assert.Less(t, permutation[0], permutation[1])
		}
	})
}
