package model

import (
	"fmt"
	"math"

	"github.com/limaJavier/surgery-scheduling/pkg/milp"
)

type constraintState struct {
	evaluator   predicateEvaluator
	formulation *Formulation

	slotGenerator permutationGenerator // (patient, room, day)
	pairGenerator permutationGenerator // (patient1, patient2, room, day)
}

func (state constraintState) patient(position uint64) Patient {
	return state.formulation.Instance.Patients[position]
}

func (state constraintState) assignment(patient, room, day uint64) int {
	variable, _ := state.formulation.Assignment(patient, room, day)
	return variable
}

// Sum_{k,t} x(i,k,t) <= 1
func singleAssignmentConstraints(state constraintState) []milp.Constraint {
	formulation := state.formulation
	constraints := make([]milp.Constraint, 0, formulation.patients)

	for patient := range formulation.patients {
		terms := make([]milp.Term, 0, formulation.rooms*formulation.days)
		for room := range formulation.rooms {
			for day := range formulation.days {
				terms = append(terms, milp.Term{Variable: state.assignment(patient, room, day), Coefficient: 1})
			}
		}
		constraints = append(constraints, milp.Constraint{
			Name:   fmt.Sprintf("single_assignment_%d", state.patient(patient).Id),
			Family: "single_assignment",
			Terms:  terms,
			Sense:  milp.LessOrEqual,
			RHS:    1,
		})
	}

	return constraints
}

// Sum_i p(i) x(i,k,t) <= s
func roomCapacityConstraints(state constraintState) []milp.Constraint {
	formulation := state.formulation
	constraints := make([]milp.Constraint, 0, formulation.rooms*formulation.days)
	if formulation.patients == 0 {
		return constraints
	}

	for room := range formulation.rooms {
		for day := range formulation.days {
			terms := make([]milp.Term, 0, formulation.patients)
			for patient := range formulation.patients {
				terms = append(terms, milp.Term{Variable: state.assignment(patient, room, day), Coefficient: float64(state.patient(patient).OperatingTime)})
			}
			constraints = append(constraints, milp.Constraint{
				Name:   fmt.Sprintf("room_capacity_%d_%d", room, day),
				Family: "room_capacity",
				Terms:  terms,
				Sense:  milp.LessOrEqual,
				RHS:    float64(formulation.Instance.Facility.RoomDayCapacity),
			})
		}
	}

	return constraints
}

// Sum_{i in j} x(i,k,t) <= M tau(j,k,t)
func specialtyCompatibilityConstraints(state constraintState) []milp.Constraint {
	formulation := state.formulation
	facility := formulation.Instance.Facility
	constraints := make([]milp.Constraint, 0)

	for specialty := uint64(1); specialty <= facility.Specialties; specialty++ {
		for room := range formulation.rooms {
			for day := range formulation.days {
				terms := make([]milp.Term, 0)
				for patient := range formulation.patients {
					if state.patient(patient).Specialty == specialty {
						terms = append(terms, milp.Term{Variable: state.assignment(patient, room, day), Coefficient: 1})
					}
				}
				if len(terms) == 0 {
					continue
				}

				compatible := 0.0
				if facility.Compatible(specialty, room, day) {
					compatible = 1
				}
				constraints = append(constraints, milp.Constraint{
					Name:   fmt.Sprintf("specialty_compatibility_%d_%d_%d", specialty, room, day),
					Family: "specialty_compatibility",
					Terms:  terms,
					Sense:  milp.LessOrEqual,
					RHS:    formulation.BigM.Specialty * compatible,
				})
			}
		}
	}

	return constraints
}

// start(i) + M x(i,k,t) <= s - p(i) + M
func endOfDayConstraints(state constraintState) []milp.Constraint {
	formulation := state.formulation
	bigM := formulation.BigM.Ordering
	capacity := float64(formulation.Instance.Facility.RoomDayCapacity)

	permutations := state.slotGenerator.ConstrainedPermutations([]func(permutation []uint64) bool{
		// Allowed(i, k, t) = 1
		func(permutation []uint64) bool {
			patient, room, day := permutation[0], permutation[1], permutation[2]

			return patient == math.MaxUint64 ||
				room == math.MaxUint64 ||
				day == math.MaxUint64 ||

				// Actual predicate
				state.evaluator.Allowed(patient, room, day)
		},
	})

	constraints := make([]milp.Constraint, 0, len(permutations))
	for _, permutation := range permutations {
		patient, room, day := permutation[0], permutation[1], permutation[2]
		constraints = append(constraints, milp.Constraint{
			Name:   fmt.Sprintf("end_of_day_%d_%d_%d", state.patient(patient).Id, room, day),
			Family: "end_of_day",
			Terms: []milp.Term{
				{Variable: formulation.Start(patient), Coefficient: 1},
				{Variable: state.assignment(patient, room, day), Coefficient: bigM},
			},
			Sense: milp.LessOrEqual,
			RHS:   capacity - float64(state.patient(patient).OperatingTime) + bigM,
		})
	}

	return constraints
}

// Pairs of distinct patients that may share the room on the day
func sharedSlots(state constraintState, extra func(patient1, patient2 uint64) bool) [][]uint64 {
	return state.pairGenerator.ConstrainedPermutations([]func(permutation []uint64) bool{
		// Extra pair predicate
		func(permutation []uint64) bool {
			patient1, patient2 := permutation[0], permutation[1]

			return patient1 == math.MaxUint64 ||
				patient2 == math.MaxUint64 ||

				// Actual predicate
				(patient1 != patient2 && extra(patient1, patient2))
		},
		// Shareable(i1, i2, k, t) = 1
		func(permutation []uint64) bool {
			patient1, patient2, room, day := permutation[0], permutation[1], permutation[2], permutation[3]

			return patient1 == math.MaxUint64 ||
				patient2 == math.MaxUint64 ||
				room == math.MaxUint64 ||
				day == math.MaxUint64 ||

				// Actual predicate
				state.evaluator.Shareable(patient1, patient2, room, day)
		},
	})
}

// start(i1) - start(i2) + M x(i1,k,t) + M x(i2,k,t) + M y(i1,i2,k,t) <= 3M - p(i1)
func timeOrderingConstraints(state constraintState) []milp.Constraint {
	formulation := state.formulation
	bigM := formulation.BigM.Ordering

	permutations := sharedSlots(state, func(patient1, patient2 uint64) bool { return true })

	constraints := make([]milp.Constraint, 0, len(permutations))
	for _, permutation := range permutations {
		patient1, patient2, room, day := permutation[0], permutation[1], permutation[2], permutation[3]
		ordering, _ := formulation.Ordering(patient1, patient2, room, day)
		constraints = append(constraints, milp.Constraint{
			Name:   fmt.Sprintf("time_ordering_%d_%d_%d_%d", state.patient(patient1).Id, state.patient(patient2).Id, room, day),
			Family: "time_ordering",
			Terms: []milp.Term{
				{Variable: formulation.Start(patient1), Coefficient: 1},
				{Variable: formulation.Start(patient2), Coefficient: -1},
				{Variable: state.assignment(patient1, room, day), Coefficient: bigM},
				{Variable: state.assignment(patient2, room, day), Coefficient: bigM},
				{Variable: ordering, Coefficient: bigM},
			},
			Sense: milp.LessOrEqual,
			RHS:   3*bigM - float64(state.patient(patient1).OperatingTime),
		})
	}

	return constraints
}

// start(i1) - start(i2) + M x(i1,k,t) + M x(i2,k,t) <= 2M, whenever u(i1,i2) = 1
func priorityOrderingConstraints(state constraintState) []milp.Constraint {
	formulation := state.formulation
	bigM := formulation.BigM.Ordering

	permutations := sharedSlots(state, state.evaluator.Precedes)

	constraints := make([]milp.Constraint, 0, len(permutations))
	for _, permutation := range permutations {
		patient1, patient2, room, day := permutation[0], permutation[1], permutation[2], permutation[3]
		constraints = append(constraints, milp.Constraint{
			Name:   fmt.Sprintf("priority_ordering_%d_%d_%d_%d", state.patient(patient1).Id, state.patient(patient2).Id, room, day),
			Family: "priority_ordering",
			Terms: []milp.Term{
				{Variable: formulation.Start(patient1), Coefficient: 1},
				{Variable: formulation.Start(patient2), Coefficient: -1},
				{Variable: state.assignment(patient1, room, day), Coefficient: bigM},
				{Variable: state.assignment(patient2, room, day), Coefficient: bigM},
			},
			Sense: milp.LessOrEqual,
			RHS:   2 * bigM,
		})
	}

	return constraints
}

// y(i1,i2,k,t) + y(i2,i1,k,t) = 1
func exclusivePrecedenceConstraints(state constraintState) []milp.Constraint {
	formulation := state.formulation

	permutations := sharedSlots(state, func(patient1, patient2 uint64) bool { return patient1 < patient2 })

	constraints := make([]milp.Constraint, 0, len(permutations))
	for _, permutation := range permutations {
		patient1, patient2, room, day := permutation[0], permutation[1], permutation[2], permutation[3]
		forward, _ := formulation.Ordering(patient1, patient2, room, day)
		backward, _ := formulation.Ordering(patient2, patient1, room, day)
		constraints = append(constraints, milp.Constraint{
			Name:   fmt.Sprintf("exclusive_precedence_%d_%d_%d_%d", state.patient(patient1).Id, state.patient(patient2).Id, room, day),
			Family: "exclusive_precedence",
			Terms: []milp.Term{
				{Variable: forward, Coefficient: 1},
				{Variable: backward, Coefficient: 1},
			},
			Sense: milp.Equal,
			RHS:   1,
		})
	}

	return constraints
}

// Sum_a beta(a,i,t) - a(i) Sum_k x(i,k,t) = 0
func anesthesiaCoverageConstraints(state constraintState) []milp.Constraint {
	formulation := state.formulation
	constraints := make([]milp.Constraint, 0, formulation.patients*formulation.days)

	for patient := range formulation.patients {
		for day := range formulation.days {
			terms := make([]milp.Term, 0, formulation.anesthetists+formulation.rooms)
			for anesthetist := range formulation.anesthetists {
				coverage, _ := formulation.Coverage(anesthetist, patient, day)
				terms = append(terms, milp.Term{Variable: coverage, Coefficient: 1})
			}
			if state.evaluator.NeedsAnesthesia(patient) {
				for room := range formulation.rooms {
					terms = append(terms, milp.Term{Variable: state.assignment(patient, room, day), Coefficient: -1})
				}
			}
			constraints = append(constraints, milp.Constraint{
				Name:   fmt.Sprintf("anesthesia_coverage_%d_%d", state.patient(patient).Id, day),
				Family: "anesthesia_coverage",
				Terms:  terms,
				Sense:  milp.Equal,
				RHS:    0,
			})
		}
	}

	return constraints
}

// Sum_i p(i) beta(a,i,t) <= An
func anesthetistBudgetConstraints(state constraintState) []milp.Constraint {
	formulation := state.formulation
	constraints := make([]milp.Constraint, 0, formulation.anesthetists*formulation.days)

	for anesthetist := range formulation.anesthetists {
		for day := range formulation.days {
			terms := make([]milp.Term, 0, formulation.patients)
			for patient := range formulation.patients {
				coverage, _ := formulation.Coverage(anesthetist, patient, day)
				terms = append(terms, milp.Term{Variable: coverage, Coefficient: float64(state.patient(patient).OperatingTime)})
			}
			constraints = append(constraints, milp.Constraint{
				Name:   fmt.Sprintf("anesthetist_budget_%d_%d", anesthetist, day),
				Family: "anesthetist_budget",
				Terms:  terms,
				Sense:  milp.LessOrEqual,
				RHS:    float64(formulation.Instance.Facility.AnesthetistDayCapacity),
			})
		}
	}

	return constraints
}

// Pairs of distinct anesthesia patients, per anesthetist and day
func anesthesiaPairs(state constraintState, extra func(patient1, patient2 uint64) bool) [][]uint64 {
	formulation := state.formulation
	generator := newPermutationGenerator(formulation.anesthetists, formulation.patients, formulation.patients, formulation.days)

	return generator.ConstrainedPermutations([]func(permutation []uint64) bool{
		// NeedsAnesthesia(i1) = 1
		func(permutation []uint64) bool {
			patient1 := permutation[1]
			return patient1 == math.MaxUint64 || state.evaluator.NeedsAnesthesia(patient1)
		},
		// NeedsAnesthesia(i2) = 1, i1 != i2
		func(permutation []uint64) bool {
			patient1, patient2 := permutation[1], permutation[2]

			return patient1 == math.MaxUint64 ||
				patient2 == math.MaxUint64 ||

				// Actual predicate
				(patient1 != patient2 && state.evaluator.NeedsAnesthesia(patient2) && extra(patient1, patient2))
		},
	})
}

// start(i1) - start(i2) + M beta(a,i1,t) + M beta(a,i2,t) + M lambda(i1,i2,t) <= 3M - p(i1)
func anesthetistOverlapConstraints(state constraintState) []milp.Constraint {
	formulation := state.formulation
	bigM := formulation.BigM.Ordering

	permutations := anesthesiaPairs(state, func(patient1, patient2 uint64) bool { return true })

	constraints := make([]milp.Constraint, 0, len(permutations))
	for _, permutation := range permutations {
		anesthetist, patient1, patient2, day := permutation[0], permutation[1], permutation[2], permutation[3]
		coverage1, _ := formulation.Coverage(anesthetist, patient1, day)
		coverage2, _ := formulation.Coverage(anesthetist, patient2, day)
		pairing, _ := formulation.Pairing(patient1, patient2, day)
		constraints = append(constraints, milp.Constraint{
			Name:   fmt.Sprintf("anesthetist_overlap_%d_%d_%d_%d", anesthetist, state.patient(patient1).Id, state.patient(patient2).Id, day),
			Family: "anesthetist_overlap",
			Terms: []milp.Term{
				{Variable: formulation.Start(patient1), Coefficient: 1},
				{Variable: formulation.Start(patient2), Coefficient: -1},
				{Variable: coverage1, Coefficient: bigM},
				{Variable: coverage2, Coefficient: bigM},
				{Variable: pairing, Coefficient: bigM},
			},
			Sense: milp.LessOrEqual,
			RHS:   3*bigM - float64(state.patient(patient1).OperatingTime),
		})
	}

	return constraints
}

// lambda(i1,i2,t) + lambda(i2,i1,t) - beta(a,i1,t) - beta(a,i2,t) >= -1
func anesthetistExclusiveConstraints(state constraintState) []milp.Constraint {
	formulation := state.formulation

	permutations := anesthesiaPairs(state, func(patient1, patient2 uint64) bool { return patient1 < patient2 })

	constraints := make([]milp.Constraint, 0, len(permutations))
	for _, permutation := range permutations {
		anesthetist, patient1, patient2, day := permutation[0], permutation[1], permutation[2], permutation[3]
		coverage1, _ := formulation.Coverage(anesthetist, patient1, day)
		coverage2, _ := formulation.Coverage(anesthetist, patient2, day)
		forward, _ := formulation.Pairing(patient1, patient2, day)
		backward, _ := formulation.Pairing(patient2, patient1, day)
		constraints = append(constraints, milp.Constraint{
			Name:   fmt.Sprintf("anesthetist_exclusive_%d_%d_%d_%d", anesthetist, state.patient(patient1).Id, state.patient(patient2).Id, day),
			Family: "anesthetist_exclusive",
			Terms: []milp.Term{
				{Variable: forward, Coefficient: 1},
				{Variable: backward, Coefficient: 1},
				{Variable: coverage1, Coefficient: -1},
				{Variable: coverage2, Coefficient: -1},
			},
			Sense: milp.GreaterOrEqual,
			RHS:   -1,
		})
	}

	return constraints
}
