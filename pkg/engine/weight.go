// Package engine implements the procedure costing core: weight estimation,
// dose-to-volume conversion, per-animal consumable accounting, and the
// session state machine that freezes the result into a procedure record.
package engine

import (
	"fmt"
	"math"
)

// tapeDivisor is the empirical constant of the livestock tape-measurement
// formula weight = girth² × length / tapeDivisor. It must not change:
// historical records were computed against it.
const tapeDivisor = 10838

func positiveFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// ScaleWeight validates a direct scale reading and returns it as the
// canonical weight in kilograms.
func ScaleWeight(kilograms float64) (float64, error) {
	if !positiveFinite(kilograms) {
		return 0, fmt.Errorf("%w: scale reading %v", ErrInvalidInput, kilograms)
	}
	return kilograms, nil
}

// TapeWeight estimates weight in kilograms from a heart-girth and body-length
// tape measurement, both in centimeters. The result carries full precision;
// rounding is a presentation concern.
func TapeWeight(girth, length float64) (float64, error) {
	if !positiveFinite(girth) || !positiveFinite(length) {
		return 0, fmt.Errorf("%w: tape measurements girth=%v length=%v", ErrInvalidInput, girth, length)
	}
	return girth * girth * length / tapeDivisor, nil
}
