package generator

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/limaJavier/surgery-scheduling/pkg/catalog"
	"github.com/limaJavier/surgery-scheduling/pkg/model"
)

// Namespace of the deterministic instance identifiers
var instanceNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("surgery-scheduling/instance"))

type Generator interface {
	// Generate draws n patients from the shared random source
	Generate(n int, facility model.FacilityConfig, params DistributionParams, rng *rand.Rand) ([]model.Patient, error)

	// GenerateSeeded draws n patients from a fresh source seeded with seed
	GenerateSeeded(n int, facility model.FacilityConfig, params DistributionParams, seed uint64) ([]model.Patient, error)

	// Instance wraps a seeded population into an instance with a deterministic id
	Instance(n int, facility model.FacilityConfig, params DistributionParams, seed uint64) (model.Instance, error)
}

type stochasticGenerator struct {
	catalog *catalog.Catalog
}

func NewGenerator(procedures *catalog.Catalog) Generator {
	return &stochasticGenerator{catalog: procedures}
}

func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func (generator *stochasticGenerator) Generate(n int, facility model.FacilityConfig, params DistributionParams, rng *rand.Rand) ([]model.Patient, error) {
	if n < 0 {
		return nil, &model.ConfigurationError{Parameter: "patients", Reason: fmt.Sprintf("%d is negative", n)}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := facility.Validate(); err != nil {
		return nil, err
	}
	if facility.Specialties < 2 && params.SpecialtyProbability > 0 {
		return nil, &model.ConfigurationError{Parameter: "specialtyProbability", Reason: "a second specialty is drawn but the facility has one"}
	}

	patients := make([]model.Patient, 0, n)
	for id := 1; id <= n; id++ {
		patient, err := generator.draw(uint64(id), facility, params, rng)
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	return patients, nil
}

func (generator *stochasticGenerator) GenerateSeeded(n int, facility model.FacilityConfig, params DistributionParams, seed uint64) ([]model.Patient, error) {
	return generator.Generate(n, facility, params, NewSource(seed))
}

func (generator *stochasticGenerator) Instance(n int, facility model.FacilityConfig, params DistributionParams, seed uint64) (model.Instance, error) {
	patients, err := generator.GenerateSeeded(n, facility, params, seed)
	if err != nil {
		return model.Instance{}, err
	}

	name := fmt.Sprintf("%d|%d|%+v|%+v", seed, n, facility, params)
	return model.Instance{
		Id:       uuid.NewSHA1(instanceNamespace, []byte(name)).String(),
		Seed:     seed,
		Facility: facility,
		Patients: patients,
	}, nil
}

// Draws one patient. The order of the draws on the source is part of the reproducibility contract.
func (generator *stochasticGenerator) draw(id uint64, facility model.FacilityConfig, params DistributionParams, rng *rand.Rand) (model.Patient, error) {
	//** Category
	var unit catalog.UnitId
	var code catalog.ProcedureCode
	switch params.Sampling {
	case UnitFirst:
		var err error
		if unit, err = generator.catalog.SampleUnit(rng.Float64()); err != nil {
			return model.Patient{}, err
		}
		if code, err = generator.catalog.SampleProcedureInUnit(unit, rng.Float64()); err != nil {
			return model.Patient{}, err
		}
	default:
		code = generator.catalog.SampleProcedure(rng.Float64())
	}
	procedure, _ := generator.catalog.Procedure(code)

	//** Priority
	priority := params.Priority.Quantile(rng.Float64())

	//** Flags
	covid := rng.Float64() < params.CovidProbability
	specialty := uint64(1)
	if rng.Float64() < params.SpecialtyProbability {
		specialty = 2
	}
	anesthesia := false
	if facility.Anesthetists > 0 {
		anesthesia = rng.Float64() < params.AnesthesiaProbability
	}

	//** Delay
	delayProbability, err := generator.catalog.DelayProbability(code, unit, params.DelayEstimation)
	if err != nil {
		return model.Patient{}, err
	}
	delay := rng.Float64() < delayProbability

	return model.Patient{
		Id:            id,
		Priority:      priority,
		Specialty:     specialty,
		OperatingTime: procedure.RoomOccupancy,
		Covid:         covid,
		Delay:         delay,
		Anesthesia:    anesthesia,
		Precedence:    model.ClassOf(covid, procedure.Dirty, delay),
		Procedure:     code,
		Unit:          unit,
	}, nil
}
