package catalog

import "fmt"

// ProcedureCode identifies a surgical procedure of the catalog
type ProcedureCode uint8

const (
	ProcedureUnknown ProcedureCode = iota
	Procedure01
	Procedure02
	Procedure03
	Procedure04
	Procedure05
	Procedure06
	Procedure07
	Procedure08
	Procedure09
	Procedure10
	Procedure11
	Procedure12
	Procedure13
	Procedure14
	Procedure15
	Procedure16
	Procedure17
	Procedure18
	Procedure19
	Procedure20
	Procedure21
	Procedure22
	Procedure23
	Procedure24
	Procedure25
	Procedure26
	Procedure27
	Procedure28
)

// Historical bit-string keys of the empirical tables, indexed by code
var legacyKeys = [...]string{
	ProcedureUnknown: "",
	Procedure01:      "100000000000000000000",
	Procedure02:      "010000000000000000000",
	Procedure03:      "001000000000000000000",
	Procedure04:      "000100000000000000000",
	Procedure05:      "000010000000000000000",
	Procedure06:      "000001000100000000000",
	Procedure07:      "000001010000000000000",
	Procedure08:      "000000100000000000000",
	Procedure09:      "000000100010000000000",
	Procedure10:      "000000000000001000000",
	Procedure11:      "100000100000000000000",
	Procedure12:      "000000001000000000000",
	Procedure13:      "000001100000000000000",
	Procedure14:      "000000000000000100000",
	Procedure15:      "000100100000000000000",
	Procedure16:      "100001000000000001100",
	Procedure17:      "100001100000000000000",
	Procedure18:      "000000101000000000000",
	Procedure19:      "000000000000001000010",
	Procedure20:      "000001100100000100000",
	Procedure21:      "000001000000000100000",
	Procedure22:      "000000000010000000000",
	Procedure23:      "000000000001100000000",
	Procedure24:      "000000010000000010000",
	Procedure25:      "000000000000000000101",
	Procedure26:      "100000101000000000000",
	Procedure27:      "000000000001110000000",
	Procedure28:      "000000000000000000100",
}

func (code ProcedureCode) Valid() bool {
	return code > ProcedureUnknown && code <= Procedure28
}

// LegacyKey returns the bit-string under which the procedure was recorded in the historical tables
func (code ProcedureCode) LegacyKey() string {
	if !code.Valid() {
		return ""
	}
	return legacyKeys[code]
}

func (code ProcedureCode) String() string {
	if !code.Valid() {
		return "unknown"
	}
	return fmt.Sprintf("P%02d", uint8(code))
}

// ProcedureFromLegacyKey resolves a historical bit-string key into its procedure code
func ProcedureFromLegacyKey(key string) (ProcedureCode, bool) {
	for code := Procedure01; code <= Procedure28; code++ {
		if legacyKeys[code] == key {
			return code, true
		}
	}
	return ProcedureUnknown, false
}

type ProcedureProfile struct {
	Code             ProcedureCode
	Frequency        float64
	RoomOccupancy    uint64 // Minutes the procedure keeps the room busy, cleaning included
	Dirty            bool
	DelayProbability float64
}

type UnitId uint8

type ProcedureShare struct {
	Code        ProcedureCode
	Probability float64 // Conditional probability of the procedure given the unit
}

type ClinicalUnitProfile struct {
	Id               UnitId
	Name             string
	Frequency        float64
	Mix              []ProcedureShare
	DelayProbability float64
}

// DelayEstimation selects which table provides the delay probability of a patient
type DelayEstimation uint8

const (
	DelayUnspecified DelayEstimation = iota
	DelayByProcedure
	DelayByUnit
)

func (estimation DelayEstimation) String() string {
	switch estimation {
	case DelayByProcedure:
		return "procedure"
	case DelayByUnit:
		return "unit"
	default:
		return "unspecified"
	}
}

func ParseDelayEstimation(value string) (DelayEstimation, bool) {
	switch value {
	case "procedure":
		return DelayByProcedure, true
	case "unit":
		return DelayByUnit, true
	}
	return DelayUnspecified, false
}
