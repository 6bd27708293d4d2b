package model

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/limaJavier/surgery-scheduling/pkg/catalog"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

// Instance is a population of patients together with the facility they compete for
type Instance struct {
	Id       string         `json:"id"`
	Seed     uint64         `json:"seed"`
	Facility FacilityConfig `json:"facility"`
	Patients []Patient      `json:"patients"`
}

func InstanceFromJson(file string) (Instance, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Instance{}, err
	}

	var inputJson map[string]any
	err = json.Unmarshal(bytes, &inputJson)
	if err != nil {
		return Instance{}, err
	}

	var instance Instance
	if err := mapstructure.Decode(inputJson, &instance); err != nil {
		return Instance{}, fmt.Errorf("cannot decode instance: %w", err)
	}
	return ProcessInstance(instance)
}

// ProcessInstance normalizes a decoded instance: missing compatibility matrices take the default split,
// missing precedence classes are derived from the patient flags, and patients are ordered by id
func ProcessInstance(instance Instance) (Instance, error) {
	if instance.Facility.Specialties == 0 {
		instance.Facility.Specialties = DefaultSpecialties
	}
	if len(instance.Facility.Compatibility) == 0 {
		instance.Facility.Compatibility = DefaultCompatibility(instance.Facility.Specialties, instance.Facility.Rooms, instance.Facility.Days)
	}
	if err := instance.Facility.Validate(); err != nil {
		return Instance{}, err
	}

	procedures := catalog.Default()
	instance.Patients = slices.Clone(instance.Patients)
	for i, patient := range instance.Patients {
		if patient.Precedence == 0 {
			profile, _ := procedures.Procedure(patient.Procedure)
			instance.Patients[i].Precedence = ClassOf(patient.Covid, profile.Dirty, patient.Delay)
		} else if !patient.Precedence.Valid() {
			return Instance{}, &IntegrityError{Reason: fmt.Sprintf("patient %d has invalid precedence class %d", patient.Id, patient.Precedence)}
		}
	}
	slices.SortFunc(instance.Patients, func(a, b Patient) int {
		return compare(a.Id, b.Id)
	})

	if duplicates := lo.FindDuplicatesBy(instance.Patients, func(patient Patient) uint64 { return patient.Id }); len(duplicates) > 0 {
		return Instance{}, &IntegrityError{Reason: fmt.Sprintf("patient id %d is repeated", duplicates[0].Id)}
	}
	return instance, nil
}

func (instance Instance) WriteJson(file string) error {
	bytes, err := json.MarshalIndent(instance, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, bytes, 0666)
}

// PatientById returns the patient with the given id
func (instance Instance) PatientById(id uint64) (Patient, bool) {
	return lo.Find(instance.Patients, func(patient Patient) bool {
		return patient.Id == id
	})
}

func compare[T uint64 | float64](a, b T) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}
