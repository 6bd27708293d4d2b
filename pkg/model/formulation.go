package model

import (
	"fmt"
	"math"

	"github.com/limaJavier/surgery-scheduling/pkg/milp"
	"github.com/samber/lo"
)

type Slot struct {
	Room uint64 `json:"room"`
	Day  uint64 `json:"day"`
}

type ModelBuildOptions struct {
	// Patients listed here (by id) are scheduled in the given slot; every other patient is free. An empty map builds the
	// full model.
	FixedAssignment map[uint64]Slot
}

type BigM struct {
	Specialty float64 // Upper bound on the patients a room-day can hold
	Ordering  float64 // Deactivates start-time constraints
}

// Formulation is a formulated scheduling model together with the tables that map its variables back to the instance.
// Patients are addressed by their position in the instance.
type Formulation struct {
	Model    *milp.Model
	Instance Instance
	Options  ModelBuildOptions
	BigM     BigM

	patients, rooms, days, anesthetists uint64

	assignmentIndexer indexer // (patient, room, day)
	orderingIndexer   indexer // (patient1, patient2, room, day)
	coverageIndexer   indexer // (anesthetist, patient, day)
	pairingIndexer    indexer // (patient1, patient2, day)

	assignments []int
	starts      []int
	orderings   map[uint64]int
	coverages   []int
	pairings    map[uint64]int
}

// Formulate translates the instance into a mixed-integer program maximizing the scheduled priority
func Formulate(instance Instance, options ModelBuildOptions) (*Formulation, error) {
	if err := validateInstance(instance, options); err != nil {
		return nil, err
	}

	facility := instance.Facility
	patients := uint64(len(instance.Patients))
	anesthetists := facility.Anesthetists
	if !lo.SomeBy(instance.Patients, func(patient Patient) bool { return patient.Anesthesia }) {
		anesthetists = 0
	}

	formulation := &Formulation{
		Model:             milp.NewModel(fmt.Sprintf("surgery_scheduling_%s", instanceName(instance)), true),
		Instance:          instance,
		Options:           options,
		BigM:              computeBigM(instance),
		patients:          patients,
		rooms:             facility.Rooms,
		days:              facility.Days,
		anesthetists:      anesthetists,
		assignmentIndexer: newIndexer(patients, facility.Rooms, facility.Days),
		orderingIndexer:   newIndexer(patients, patients, facility.Rooms, facility.Days),
		coverageIndexer:   newIndexer(max(anesthetists, 1), patients, facility.Days),
		pairingIndexer:    newIndexer(patients, patients, facility.Days),
		orderings:         make(map[uint64]int),
		pairings:          make(map[uint64]int),
	}

	evaluator := newPredicateEvaluator(instance, options)

	//** Declare variables
	formulation.declareVariables(evaluator)

	//** Fix the imposed assignment
	for position, patient := range instance.Patients {
		slot, ok := options.FixedAssignment[patient.Id]
		if !ok {
			continue
		}
		for room := range formulation.rooms {
			for day := range formulation.days {
				variable, _ := formulation.Assignment(uint64(position), room, day)
				formulation.Model.Fix(variable, lo.Ternary(room == slot.Room && day == slot.Day, 1.0, 0.0))
			}
		}
	}

	//** Objective
	for position, patient := range instance.Patients {
		for room := range formulation.rooms {
			for day := range formulation.days {
				variable, _ := formulation.Assignment(uint64(position), room, day)
				formulation.Model.AddObjectiveTerm(variable, patient.Priority)
			}
		}
	}

	//** Constraints
	families := []func(state constraintState) []milp.Constraint{
		singleAssignmentConstraints,
		roomCapacityConstraints,
		specialtyCompatibilityConstraints,
		endOfDayConstraints,
		timeOrderingConstraints,
		priorityOrderingConstraints,
		exclusivePrecedenceConstraints,
	}
	if anesthetists > 0 {
		families = append(families,
			anesthesiaCoverageConstraints,
			anesthetistBudgetConstraints,
			anesthetistOverlapConstraints,
			anesthetistExclusiveConstraints,
		)
	}

	state := constraintState{
		evaluator:     evaluator,
		formulation:   formulation,
		slotGenerator: newPermutationGenerator(patients, facility.Rooms, facility.Days),
		pairGenerator: newPermutationGenerator(patients, patients, facility.Rooms, facility.Days),
	}
	buildModel(formulation.Model, families, state)

	return formulation, nil
}

func (formulation *Formulation) declareVariables(evaluator predicateEvaluator) {
	model := formulation.Model
	patients := formulation.Instance.Patients
	capacity := float64(formulation.Instance.Facility.RoomDayCapacity)

	formulation.assignments = make([]int, formulation.assignmentIndexer.Size())
	for position, patient := range patients {
		for room := range formulation.rooms {
			for day := range formulation.days {
				index := formulation.assignmentIndexer.Index(uint64(position), room, day)
				formulation.assignments[index] = model.AddVariable(fmt.Sprintf("x_%d_%d_%d", patient.Id, room, day), milp.Binary, 0, 1)
			}
		}
	}

	formulation.starts = make([]int, formulation.patients)
	for position, patient := range patients {
		formulation.starts[position] = model.AddVariable(fmt.Sprintf("start_%d", patient.Id), milp.Continuous, 0, capacity)
	}

	// Both orientations of a pair are declared consecutively
	for position1 := range formulation.patients {
		for position2 := position1 + 1; position2 < formulation.patients; position2++ {
			for room := range formulation.rooms {
				for day := range formulation.days {
					if !evaluator.Shareable(position1, position2, room, day) {
						continue
					}
					id1, id2 := patients[position1].Id, patients[position2].Id
					formulation.orderings[formulation.orderingIndexer.Index(position1, position2, room, day)] =
						model.AddVariable(fmt.Sprintf("y_%d_%d_%d_%d", id1, id2, room, day), milp.Binary, 0, 1)
					formulation.orderings[formulation.orderingIndexer.Index(position2, position1, room, day)] =
						model.AddVariable(fmt.Sprintf("y_%d_%d_%d_%d", id2, id1, room, day), milp.Binary, 0, 1)
				}
			}
		}
	}

	if formulation.anesthetists == 0 {
		return
	}

	formulation.coverages = make([]int, formulation.coverageIndexer.Size())
	for anesthetist := range formulation.anesthetists {
		for position, patient := range patients {
			for day := range formulation.days {
				index := formulation.coverageIndexer.Index(anesthetist, uint64(position), day)
				formulation.coverages[index] = model.AddVariable(fmt.Sprintf("beta_%d_%d_%d", anesthetist, patient.Id, day), milp.Binary, 0, 1)
			}
		}
	}

	for position1 := range formulation.patients {
		for position2 := position1 + 1; position2 < formulation.patients; position2++ {
			if !evaluator.NeedsAnesthesia(position1) || !evaluator.NeedsAnesthesia(position2) {
				continue
			}
			for day := range formulation.days {
				id1, id2 := patients[position1].Id, patients[position2].Id
				formulation.pairings[formulation.pairingIndexer.Index(position1, position2, day)] =
					model.AddVariable(fmt.Sprintf("lambda_%d_%d_%d", id1, id2, day), milp.Binary, 0, 1)
				formulation.pairings[formulation.pairingIndexer.Index(position2, position1, day)] =
					model.AddVariable(fmt.Sprintf("lambda_%d_%d_%d", id2, id1, day), milp.Binary, 0, 1)
			}
		}
	}
}

// Assignment returns the x variable of the patient in the room on the day
func (formulation *Formulation) Assignment(patient, room, day uint64) (int, bool) {
	if patient >= formulation.patients || room >= formulation.rooms || day >= formulation.days {
		return 0, false
	}
	return formulation.assignments[formulation.assignmentIndexer.Index(patient, room, day)], true
}

func (formulation *Formulation) Start(patient uint64) int {
	return formulation.starts[patient]
}

// Ordering returns the y variable stating patient1 is operated before patient2 in the room on the day
func (formulation *Formulation) Ordering(patient1, patient2, room, day uint64) (int, bool) {
	if patient1 >= formulation.patients || patient2 >= formulation.patients || room >= formulation.rooms || day >= formulation.days {
		return 0, false
	}
	variable, ok := formulation.orderings[formulation.orderingIndexer.Index(patient1, patient2, room, day)]
	return variable, ok
}

// Coverage returns the beta variable stating the anesthetist covers the patient on the day
func (formulation *Formulation) Coverage(anesthetist, patient, day uint64) (int, bool) {
	if anesthetist >= formulation.anesthetists || patient >= formulation.patients || day >= formulation.days {
		return 0, false
	}
	return formulation.coverages[formulation.coverageIndexer.Index(anesthetist, patient, day)], true
}

// Pairing returns the lambda variable stating patient1 is anesthetized before patient2 on the day
func (formulation *Formulation) Pairing(patient1, patient2, day uint64) (int, bool) {
	if patient1 >= formulation.patients || patient2 >= formulation.patients || day >= formulation.days {
		return 0, false
	}
	variable, ok := formulation.pairings[formulation.pairingIndexer.Index(patient1, patient2, day)]
	return variable, ok
}

// Precedes is the precedence parameter u between two patient positions
func (formulation *Formulation) Precedes(patient1, patient2 uint64) bool {
	return Precedes(formulation.Instance.Patients[patient1].Precedence, formulation.Instance.Patients[patient2].Precedence)
}

func (formulation *Formulation) Anesthetists() uint64 {
	return formulation.anesthetists
}

func computeBigM(instance Instance) BigM {
	capacity := float64(instance.Facility.RoomDayCapacity)
	if len(instance.Patients) == 0 {
		return BigM{Specialty: 0, Ordering: capacity}
	}

	durations := lo.Map(instance.Patients, func(patient Patient, _ int) float64 { return float64(patient.OperatingTime) })
	return BigM{
		Specialty: math.Floor(capacity / lo.Min(durations)),
		Ordering:  math.Max(capacity, lo.Max(durations)),
	}
}

func validateInstance(instance Instance, options ModelBuildOptions) error {
	facility := instance.Facility
	if err := facility.Validate(); err != nil {
		return err
	}
	if facility.RoomDayCapacity == 0 {
		return &IntegrityError{Reason: "room-day capacity must be positive"}
	}
	if facility.Anesthetists > 0 && facility.AnesthetistDayCapacity == 0 {
		return &IntegrityError{Reason: "anesthetist-day capacity must be positive"}
	}

	for specialty := uint64(1); specialty <= facility.Specialties; specialty++ {
		if !routable(facility, specialty) {
			return &IntegrityError{Reason: fmt.Sprintf("specialty %d has no compatible room-day", specialty)}
		}
	}

	ids := make(map[uint64]bool, len(instance.Patients))
	for _, patient := range instance.Patients {
		switch {
		case ids[patient.Id]:
			return &IntegrityError{Reason: fmt.Sprintf("patient id %d is repeated", patient.Id)}
		case patient.Specialty == 0 || patient.Specialty > facility.Specialties:
			return &IntegrityError{Reason: fmt.Sprintf("patient %d has specialty %d outside [1, %d]", patient.Id, patient.Specialty, facility.Specialties)}
		case patient.OperatingTime == 0:
			return &IntegrityError{Reason: fmt.Sprintf("patient %d has a non-positive operating time", patient.Id)}
		case !patient.Precedence.Valid():
			return &IntegrityError{Reason: fmt.Sprintf("patient %d has invalid precedence class %d", patient.Id, patient.Precedence)}
		}
		ids[patient.Id] = true
	}

	for id, slot := range options.FixedAssignment {
		patient, ok := instance.PatientById(id)
		switch {
		case !ok:
			return &IntegrityError{Reason: fmt.Sprintf("fixed assignment references unknown patient %d", id)}
		case slot.Room >= facility.Rooms || slot.Day >= facility.Days:
			return &IntegrityError{Reason: fmt.Sprintf("fixed slot (%d, %d) of patient %d is outside the facility", slot.Room, slot.Day, id)}
		case !facility.Compatible(patient.Specialty, slot.Room, slot.Day):
			return &IntegrityError{Reason: fmt.Sprintf("fixed slot (%d, %d) is incompatible with the specialty of patient %d", slot.Room, slot.Day, id)}
		}
	}
	return nil
}

func routable(facility FacilityConfig, specialty uint64) bool {
	for room := range facility.Rooms {
		for day := range facility.Days {
			if facility.Compatible(specialty, room, day) {
				return true
			}
		}
	}
	return false
}

func instanceName(instance Instance) string {
	if instance.Id == "" {
		return "anonymous"
	}
	return instance.Id
}
