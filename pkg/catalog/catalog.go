package catalog

import (
	"fmt"
	"slices"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

const massTolerance = 1e-6

// Catalog holds the immutable procedure and clinical-unit tables together with their cumulative distributions
type Catalog struct {
	procedures []ProcedureProfile
	units      []ClinicalUnitProfile

	procedureIndex map[ProcedureCode]int
	unitIndex      map[UnitId]int
	unitOf         map[ProcedureCode]UnitId

	procedureCumulative []float64
	unitCumulative      []float64
	mixCumulative       [][]float64
}

// New validates the tables and builds a catalog from them. Both tables are copied; units may be empty.
func New(procedures []ProcedureProfile, units []ClinicalUnitProfile) (*Catalog, error) {
	if err := validateProcedures(procedures); err != nil {
		return nil, err
	}

	procedureIndex := make(map[ProcedureCode]int, len(procedures))
	for i, procedure := range procedures {
		procedureIndex[procedure.Code] = i
	}

	if err := validateUnits(units, procedureIndex); err != nil {
		return nil, err
	}

	catalog := &Catalog{
		procedures:     slices.Clone(procedures),
		units:          make([]ClinicalUnitProfile, len(units)),
		procedureIndex: procedureIndex,
		unitIndex:      make(map[UnitId]int, len(units)),
		unitOf:         make(map[ProcedureCode]UnitId),
		mixCumulative:  make([][]float64, len(units)),
	}

	catalog.procedureCumulative = cumulative(lo.Map(procedures, func(procedure ProcedureProfile, _ int) float64 {
		return procedure.Frequency
	}))
	catalog.unitCumulative = cumulative(lo.Map(units, func(unit ClinicalUnitProfile, _ int) float64 {
		return unit.Frequency
	}))

	for i, unit := range units {
		unit.Mix = slices.Clone(unit.Mix)
		catalog.units[i] = unit
		catalog.unitIndex[unit.Id] = i
		catalog.mixCumulative[i] = cumulative(lo.Map(unit.Mix, func(share ProcedureShare, _ int) float64 {
			return share.Probability
		}))
		for _, share := range unit.Mix {
			if _, ok := catalog.unitOf[share.Code]; !ok {
				catalog.unitOf[share.Code] = unit.Id
			}
		}
	}

	return catalog, nil
}

func (catalog *Catalog) Procedures() []ProcedureProfile {
	return slices.Clone(catalog.procedures)
}

func (catalog *Catalog) Units() []ClinicalUnitProfile {
	return lo.Map(catalog.units, func(unit ClinicalUnitProfile, _ int) ClinicalUnitProfile {
		unit.Mix = slices.Clone(unit.Mix)
		return unit
	})
}

func (catalog *Catalog) Procedure(code ProcedureCode) (ProcedureProfile, bool) {
	index, ok := catalog.procedureIndex[code]
	if !ok {
		return ProcedureProfile{}, false
	}
	return catalog.procedures[index], true
}

func (catalog *Catalog) Unit(id UnitId) (ClinicalUnitProfile, bool) {
	index, ok := catalog.unitIndex[id]
	if !ok {
		return ClinicalUnitProfile{}, false
	}
	unit := catalog.units[index]
	unit.Mix = slices.Clone(unit.Mix)
	return unit, true
}

// UnitOf returns the first unit whose mix contains the procedure
func (catalog *Catalog) UnitOf(code ProcedureCode) (UnitId, bool) {
	unit, ok := catalog.unitOf[code]
	return unit, ok
}

// SampleProcedure maps a uniform draw u in [0, 1) into a procedure of the direct table
func (catalog *Catalog) SampleProcedure(u float64) ProcedureCode {
	return catalog.procedures[selectCumulative(catalog.procedureCumulative, u)].Code
}

// SampleUnit maps a uniform draw u in [0, 1) into a clinical unit. A catalog without units cannot sample one.
func (catalog *Catalog) SampleUnit(u float64) (UnitId, error) {
	if len(catalog.units) == 0 {
		return 0, &IntegrityError{Table: "units", Reason: "catalog has no clinical units"}
	}
	return catalog.units[selectCumulative(catalog.unitCumulative, u)].Id, nil
}

// SampleProcedureInUnit maps a uniform draw u in [0, 1) into a procedure of the unit's mix
func (catalog *Catalog) SampleProcedureInUnit(unit UnitId, u float64) (ProcedureCode, error) {
	index, ok := catalog.unitIndex[unit]
	if !ok {
		return ProcedureUnknown, &IntegrityError{Table: "units", Reason: fmt.Sprintf("unit %v does not exist", unit)}
	}
	mix := catalog.units[index].Mix
	return mix[selectCumulative(catalog.mixCumulative[index], u)].Code, nil
}

// DelayProbability returns the delay estimate of a patient under the declared estimation
func (catalog *Catalog) DelayProbability(code ProcedureCode, unit UnitId, estimation DelayEstimation) (float64, error) {
	switch estimation {
	case DelayByProcedure:
		procedure, ok := catalog.Procedure(code)
		if !ok {
			return 0, &IntegrityError{Table: "procedures", Reason: fmt.Sprintf("procedure %v does not exist", code)}
		}
		return procedure.DelayProbability, nil
	case DelayByUnit:
		index, ok := catalog.unitIndex[unit]
		if !ok {
			return 0, &IntegrityError{Table: "units", Reason: fmt.Sprintf("unit %v does not exist", unit)}
		}
		return catalog.units[index].DelayProbability, nil
	default:
		return 0, &ConfigurationError{Parameter: "delayEstimation", Reason: fmt.Sprintf("unknown delay estimation %v", estimation)}
	}
}

func cumulative(masses []float64) []float64 {
	return floats.CumSum(make([]float64, len(masses)), masses)
}

// Selects the first entry whose cumulative mass reaches u, falling back to the last entry when rounding leaves u above every sum
func selectCumulative(cumulative []float64, u float64) int {
	index := sort.SearchFloat64s(cumulative, u)
	if index >= len(cumulative) {
		return len(cumulative) - 1
	}
	return index
}

func validateProcedures(procedures []ProcedureProfile) error {
	if len(procedures) == 0 {
		return &IntegrityError{Table: "procedures", Reason: "table is empty"}
	}

	seen := make(map[ProcedureCode]bool, len(procedures))
	masses := make([]float64, 0, len(procedures))
	for _, procedure := range procedures {
		switch {
		case !procedure.Code.Valid():
			return &IntegrityError{Table: "procedures", Reason: fmt.Sprintf("unknown procedure code %d", procedure.Code)}
		case seen[procedure.Code]:
			return &IntegrityError{Table: "procedures", Reason: fmt.Sprintf("duplicate procedure %v", procedure.Code)}
		case procedure.Frequency < 0:
			return &IntegrityError{Table: "procedures", Reason: fmt.Sprintf("negative frequency for %v", procedure.Code)}
		case procedure.RoomOccupancy == 0:
			return &IntegrityError{Table: "procedures", Reason: fmt.Sprintf("non-positive room occupancy for %v", procedure.Code)}
		case !isProbability(procedure.DelayProbability):
			return &IntegrityError{Table: "procedures", Reason: fmt.Sprintf("delay probability of %v is outside [0, 1]", procedure.Code)}
		}
		seen[procedure.Code] = true
		masses = append(masses, procedure.Frequency)
	}

	if total := floats.Sum(masses); !scalar.EqualWithinAbs(total, 1, massTolerance) {
		return &IntegrityError{Table: "procedures", Reason: fmt.Sprintf("frequencies sum to %v", total)}
	}
	return nil
}

func validateUnits(units []ClinicalUnitProfile, procedureIndex map[ProcedureCode]int) error {
	// Procedure-first sampling needs no units
	if len(units) == 0 {
		return nil
	}

	seen := make(map[UnitId]bool, len(units))
	masses := make([]float64, 0, len(units))
	for _, unit := range units {
		switch {
		case seen[unit.Id]:
			return &IntegrityError{Table: "units", Reason: fmt.Sprintf("duplicate unit %v", unit.Id)}
		case unit.Frequency < 0:
			return &IntegrityError{Table: "units", Reason: fmt.Sprintf("negative frequency for unit %v", unit.Id)}
		case !isProbability(unit.DelayProbability):
			return &IntegrityError{Table: "units", Reason: fmt.Sprintf("delay probability of unit %v is outside [0, 1]", unit.Id)}
		case len(unit.Mix) == 0:
			return &IntegrityError{Table: "units", Reason: fmt.Sprintf("unit %v has an empty mix", unit.Id)}
		}
		seen[unit.Id] = true
		masses = append(masses, unit.Frequency)

		mixed := make(map[ProcedureCode]bool, len(unit.Mix))
		shares := make([]float64, 0, len(unit.Mix))
		for _, share := range unit.Mix {
			if _, ok := procedureIndex[share.Code]; !ok {
				return &IntegrityError{Table: "units", Reason: fmt.Sprintf("unit %v references unknown procedure %v", unit.Id, share.Code)}
			} else if mixed[share.Code] {
				return &IntegrityError{Table: "units", Reason: fmt.Sprintf("unit %v lists procedure %v twice", unit.Id, share.Code)}
			} else if share.Probability < 0 {
				return &IntegrityError{Table: "units", Reason: fmt.Sprintf("negative share of %v in unit %v", share.Code, unit.Id)}
			}
			mixed[share.Code] = true
			shares = append(shares, share.Probability)
		}
		if total := floats.Sum(shares); !scalar.EqualWithinAbs(total, 1, massTolerance) {
			return &IntegrityError{Table: "units", Reason: fmt.Sprintf("mix of unit %v sums to %v", unit.Id, total)}
		}
	}

	if total := floats.Sum(masses); !scalar.EqualWithinAbs(total, 1, massTolerance) {
		return &IntegrityError{Table: "units", Reason: fmt.Sprintf("frequencies sum to %v", total)}
	}
	return nil
}

func isProbability(value float64) bool {
	return value >= 0 && value <= 1
}
