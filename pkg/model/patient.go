package model

import (
	"fmt"

	"github.com/limaJavier/surgery-scheduling/pkg/catalog"
)

// PrecedenceClass orders patients inside a room-day: lower classes must be operated first
type PrecedenceClass uint8

const (
	CleanOnTime PrecedenceClass = iota + 1
	CleanDelayed
	DirtyOnTime
	DirtyDelayed
	CovidOnTime
	CovidDelayed
)

const PrecedenceClasses = 6

// ClassOf derives the precedence class of a patient. Covid dominates dirty.
func ClassOf(covid, dirty, delay bool) PrecedenceClass {
	class := CleanOnTime
	if covid {
		class = CovidOnTime
	} else if dirty {
		class = DirtyOnTime
	}
	if delay {
		class++
	}
	return class
}

// Precedes is the strict order between classes: a must be operated before b
func Precedes(a, b PrecedenceClass) bool {
	return a < b
}

func (class PrecedenceClass) Valid() bool {
	return class >= CleanOnTime && class <= CovidDelayed
}

func (class PrecedenceClass) String() string {
	switch class {
	case CleanOnTime:
		return "clean"
	case CleanDelayed:
		return "clean-delayed"
	case DirtyOnTime:
		return "dirty"
	case DirtyDelayed:
		return "dirty-delayed"
	case CovidOnTime:
		return "covid"
	case CovidDelayed:
		return "covid-delayed"
	}
	return fmt.Sprintf("class(%d)", uint8(class))
}

type Patient struct {
	Id            uint64                `json:"id"`
	Priority      float64               `json:"priority"`
	Specialty     uint64                `json:"specialty"`     // 1-based
	OperatingTime uint64                `json:"operatingTime"` // Minutes, cleaning included
	Covid         bool                  `json:"covid"`
	Delay         bool                  `json:"delay"`
	Anesthesia    bool                  `json:"anesthesia"`
	Precedence    PrecedenceClass       `json:"precedence"`
	Procedure     catalog.ProcedureCode `json:"procedure"`
	Unit          catalog.UnitId        `json:"unit"` // Zero when the procedure was drawn directly
}
