package engine

import "errors"

// Error kinds surfaced by the costing engine. All are local, user-correctable
// conditions; every failing call leaves session state unchanged.
var (
	// ErrInvalidInput marks a non-finite or out-of-range numeric entry.
	ErrInvalidInput = errors.New("invalid input")
	// ErrWeightNotSet is returned when dosing is attempted before a weight exists.
	ErrWeightNotSet = errors.New("weight not set")
	// ErrNoMedicationSelected is returned when no usable medication was chosen.
	ErrNoMedicationSelected = errors.New("no medication selected")
	// ErrNoAnimalSelected is returned when a commit has no target animal bound.
	ErrNoAnimalSelected = errors.New("no animal selected")
	// ErrNotReady is returned when commit or consumable entry is attempted
	// before weight and medication are both established.
	ErrNotReady = errors.New("procedure not ready")
)
