package model

// Patients are addressed by their position in the instance, rooms and days are 0-based
type predicateEvaluator interface {
	// Checks whether the patient's specialty may operate in the room on the day
	Compatible(patient, room, day uint64) bool

	// Checks whether the patient may be placed in the room on the day: it is compatible and, when the patient's
	// assignment is fixed, the slot is the fixed one
	Allowed(patient, room, day uint64) bool

	// Checks whether patient1 must be operated before patient2 when they share a room-day
	Precedes(patient1, patient2 uint64) bool

	// Checks whether both patients may share the room on the day
	Shareable(patient1, patient2, room, day uint64) bool

	// Checks whether the patient needs an anesthetist
	NeedsAnesthesia(patient uint64) bool

	// Checks whether the patient is bound to a slot
	Fixed(patient uint64) bool
}
