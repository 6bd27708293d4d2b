package catalog

// Observed patients behind the empirical frequencies
const observedPatients = 105.0

// Procedures are listed in the order their cumulative frequencies are accumulated
var defaultProcedures = []ProcedureProfile{
	{Code: Procedure08, Frequency: 27 / observedPatients, RoomOccupancy: 50, Dirty: true, DelayProbability: 20.0 / 27},
	{Code: Procedure04, Frequency: 11 / observedPatients, RoomOccupancy: 30, Dirty: true, DelayProbability: 5.0 / 11},
	{Code: Procedure27, Frequency: 8 / observedPatients, RoomOccupancy: 180, Dirty: false, DelayProbability: 0},
	{Code: Procedure14, Frequency: 8 / observedPatients, RoomOccupancy: 60, Dirty: true, DelayProbability: 1},
	{Code: Procedure01, Frequency: 7 / observedPatients, RoomOccupancy: 50, Dirty: true, DelayProbability: 4.0 / 7},
	{Code: Procedure03, Frequency: 5 / observedPatients, RoomOccupancy: 90, Dirty: false, DelayProbability: 1},
	{Code: Procedure11, Frequency: 4 / observedPatients, RoomOccupancy: 70, Dirty: true, DelayProbability: 0.25},
	{Code: Procedure12, Frequency: 4 / observedPatients, RoomOccupancy: 50, Dirty: true, DelayProbability: 1},
	{Code: Procedure02, Frequency: 3 / observedPatients, RoomOccupancy: 30, Dirty: false, DelayProbability: 0.75},
	{Code: Procedure10, Frequency: 3 / observedPatients, RoomOccupancy: 50, Dirty: true, DelayProbability: 1},
	{Code: Procedure22, Frequency: 3 / observedPatients, RoomOccupancy: 40, Dirty: true, DelayProbability: 1},
	{Code: Procedure07, Frequency: 2 / observedPatients, RoomOccupancy: 80, Dirty: true, DelayProbability: 0.5},
	{Code: Procedure09, Frequency: 2 / observedPatients, RoomOccupancy: 65, Dirty: true, DelayProbability: 0.5},
	{Code: Procedure15, Frequency: 2 / observedPatients, RoomOccupancy: 65, Dirty: true, DelayProbability: 0.5},
	{Code: Procedure17, Frequency: 2 / observedPatients, RoomOccupancy: 90, Dirty: true, DelayProbability: 0.5},
	{Code: Procedure21, Frequency: 2 / observedPatients, RoomOccupancy: 80, Dirty: true, DelayProbability: 0.5},
	{Code: Procedure05, Frequency: 1 / observedPatients, RoomOccupancy: 60, Dirty: false, DelayProbability: 0.5},
	{Code: Procedure06, Frequency: 1 / observedPatients, RoomOccupancy: 80, Dirty: true, DelayProbability: 0.5},
	{Code: Procedure13, Frequency: 1 / observedPatients, RoomOccupancy: 70, Dirty: true, DelayProbability: 0.5},
	{Code: Procedure16, Frequency: 1 / observedPatients, RoomOccupancy: 160, Dirty: true, DelayProbability: 0.5},
	{Code: Procedure18, Frequency: 1 / observedPatients, RoomOccupancy: 70, Dirty: true, DelayProbability: 0.5},
	{Code: Procedure19, Frequency: 1 / observedPatients, RoomOccupancy: 65, Dirty: true, DelayProbability: 0.5},
	{Code: Procedure20, Frequency: 1 / observedPatients, RoomOccupancy: 130, Dirty: true, DelayProbability: 0.5},
	{Code: Procedure23, Frequency: 1 / observedPatients, RoomOccupancy: 90, Dirty: false, DelayProbability: 0.5},
	{Code: Procedure24, Frequency: 1 / observedPatients, RoomOccupancy: 90, Dirty: true, DelayProbability: 0.5},
	{Code: Procedure25, Frequency: 1 / observedPatients, RoomOccupancy: 120, Dirty: false, DelayProbability: 0.5},
	{Code: Procedure26, Frequency: 1 / observedPatients, RoomOccupancy: 90, Dirty: true, DelayProbability: 0.5},
	{Code: Procedure28, Frequency: 1 / observedPatients, RoomOccupancy: 90, Dirty: false, DelayProbability: 0.5},
}

const (
	GeneralSurgery UnitId = iota + 1
	Urology
	Gynecology
	Otolaryngology
)

// Unit mixes partition the procedures, so sampling a unit and then a procedure reproduces the direct frequencies
var defaultUnits = []ClinicalUnitProfile{
	{
		Id:        GeneralSurgery,
		Name:      "general surgery",
		Frequency: 38 / observedPatients,
		Mix: []ProcedureShare{
			{Procedure08, 27.0 / 38},
			{Procedure11, 4.0 / 38},
			{Procedure17, 2.0 / 38},
			{Procedure09, 2.0 / 38},
			{Procedure13, 1.0 / 38},
			{Procedure18, 1.0 / 38},
			{Procedure26, 1.0 / 38},
		},
		DelayProbability: 24.5 / 38,
	},
	{
		Id:        Urology,
		Name:      "urology",
		Frequency: 27 / observedPatients,
		Mix: []ProcedureShare{
			{Procedure04, 11.0 / 27},
			{Procedure14, 8.0 / 27},
			{Procedure07, 2.0 / 27},
			{Procedure15, 2.0 / 27},
			{Procedure21, 2.0 / 27},
			{Procedure06, 1.0 / 27},
			{Procedure20, 1.0 / 27},
		},
		DelayProbability: 17.0 / 27,
	},
	{
		Id:        Gynecology,
		Name:      "gynecology",
		Frequency: 18 / observedPatients,
		Mix: []ProcedureShare{
			{Procedure27, 8.0 / 18},
			{Procedure12, 4.0 / 18},
			{Procedure10, 3.0 / 18},
			{Procedure19, 1.0 / 18},
			{Procedure23, 1.0 / 18},
			{Procedure24, 1.0 / 18},
		},
		DelayProbability: 8.5 / 18,
	},
	{
		Id:        Otolaryngology,
		Name:      "otolaryngology",
		Frequency: 22 / observedPatients,
		Mix: []ProcedureShare{
			{Procedure01, 7.0 / 22},
			{Procedure03, 5.0 / 22},
			{Procedure02, 3.0 / 22},
			{Procedure22, 3.0 / 22},
			{Procedure05, 1.0 / 22},
			{Procedure16, 1.0 / 22},
			{Procedure25, 1.0 / 22},
			{Procedure28, 1.0 / 22},
		},
		DelayProbability: 16.25 / 22,
	},
}

// Default returns the catalog built from the empirical tables
func Default() *Catalog {
	catalog, err := New(defaultProcedures, defaultUnits)
	if err != nil {
		panic(err)
	}
	return catalog
}
