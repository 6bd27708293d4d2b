package model

type predicateEvaluatorStandard struct {
	instance Instance
	fixed    map[uint64]Slot // Fixed slot per patient position
}

func newPredicateEvaluator(instance Instance, options ModelBuildOptions) predicateEvaluator {
	evaluator := predicateEvaluatorStandard{
		instance: instance,
		fixed:    make(map[uint64]Slot),
	}

	for position, patient := range instance.Patients {
		if slot, ok := options.FixedAssignment[patient.Id]; ok {
			evaluator.fixed[uint64(position)] = slot
		}
	}

	return &evaluator
}

func (evaluator *predicateEvaluatorStandard) Compatible(patient, room, day uint64) bool {
	return evaluator.instance.Facility.Compatible(evaluator.instance.Patients[patient].Specialty, room, day)
}

func (evaluator *predicateEvaluatorStandard) Allowed(patient, room, day uint64) bool {
	if slot, ok := evaluator.fixed[patient]; ok && (slot.Room != room || slot.Day != day) {
		return false
	}
	return evaluator.Compatible(patient, room, day)
}

func (evaluator *predicateEvaluatorStandard) Precedes(patient1, patient2 uint64) bool {
	return Precedes(evaluator.instance.Patients[patient1].Precedence, evaluator.instance.Patients[patient2].Precedence)
}

func (evaluator *predicateEvaluatorStandard) Shareable(patient1, patient2, room, day uint64) bool {
	return patient1 != patient2 && evaluator.Allowed(patient1, room, day) && evaluator.Allowed(patient2, room, day)
}

func (evaluator *predicateEvaluatorStandard) NeedsAnesthesia(patient uint64) bool {
	return evaluator.instance.Patients[patient].Anesthesia
}

func (evaluator *predicateEvaluatorStandard) Fixed(patient uint64) bool {
	_, ok := evaluator.fixed[patient]
	return ok
}
