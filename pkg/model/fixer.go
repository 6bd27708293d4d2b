package model

import "github.com/samber/lo"

// FixingRule pins variables whose value is implied by the instance data. Apply returns how many variables it fixed.
type FixingRule struct {
	Name  string
	Apply func(formulation *Formulation) int
}

type FixReport struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

func DefaultFixingRules() []FixingRule {
	return []FixingRule{
		{Name: "precedence_orderings", Apply: FixPrecedenceOrderings},
		{Name: "incompatible_assignments", Apply: FixIncompatibleAssignments},
		{Name: "anesthesia_assignments", Apply: FixAnesthesiaAssignments},
	}
}

// Fix applies the rules in order on the formulation's model. It never solves.
func Fix(formulation *Formulation, rules ...FixingRule) FixReport {
	report := FixReport{Counts: make(map[string]int, len(rules))}
	for _, rule := range rules {
		count := rule.Apply(formulation)
		report.Counts[rule.Name] += count
		report.Total += count
	}
	return report
}

// FixPrecedenceOrderings sets y(i1,i2,k,t) = 1 and y(i2,i1,k,t) = 0 whenever i1 strictly precedes i2
func FixPrecedenceOrderings(formulation *Formulation) int {
	fixed := 0
	for patient1 := range formulation.patients {
		for patient2 := range formulation.patients {
			if !formulation.Precedes(patient1, patient2) {
				continue
			}
			for room := range formulation.rooms {
				for day := range formulation.days {
					forward, ok := formulation.Ordering(patient1, patient2, room, day)
					if !ok {
						continue
					}
					backward, _ := formulation.Ordering(patient2, patient1, room, day)
					fixed += lo.Ternary(formulation.Model.Fix(forward, 1), 1, 0)
					fixed += lo.Ternary(formulation.Model.Fix(backward, 0), 1, 0)
				}
			}
		}
	}
	return fixed
}

// FixIncompatibleAssignments sets x(i,k,t) = 0 whenever the patient's specialty cannot use the room on the day
func FixIncompatibleAssignments(formulation *Formulation) int {
	fixed := 0
	facility := formulation.Instance.Facility
	for position, patient := range formulation.Instance.Patients {
		for room := range formulation.rooms {
			for day := range formulation.days {
				if facility.Compatible(patient.Specialty, room, day) {
					continue
				}
				variable, _ := formulation.Assignment(uint64(position), room, day)
				fixed += lo.Ternary(formulation.Model.Fix(variable, 0), 1, 0)
			}
		}
	}
	return fixed
}

// FixAnesthesiaAssignments sets beta(a,i,t) = 0 for patients that need no anesthetist
func FixAnesthesiaAssignments(formulation *Formulation) int {
	fixed := 0
	for position, patient := range formulation.Instance.Patients {
		if patient.Anesthesia {
			continue
		}
		for anesthetist := range formulation.anesthetists {
			for day := range formulation.days {
				variable, ok := formulation.Coverage(anesthetist, uint64(position), day)
				if !ok {
					continue
				}
				fixed += lo.Ternary(formulation.Model.Fix(variable, 0), 1, 0)
			}
		}
	}
	return fixed
}
