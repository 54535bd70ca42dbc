package engine

import (
	"fmt"

	"ruralstock/pkg/domain"
)

// DoseResult is the per-animal outcome of applying a medication at a weight.
type DoseResult struct {
	MedicationName string
	VolumeMl       float64
	CostPerAnimal  float64
}

// Dose converts a canonical weight and a medication profile into the volume
// to apply and its cost for one animal:
//
//	doseMg        = weight × DosePerKg
//	volumeMl      = doseMg / Concentration
//	costPerAnimal = volumeMl × (PricePerUnit / VolumePerUnit)
//
// No rounding is applied.
func Dose(weight float64, m domain.MedicationProfile) (DoseResult, error) {
	if !positiveFinite(weight) {
		return DoseResult{}, fmt.Errorf("%w: weight %v", ErrWeightNotSet, weight)
	}
	doseMg := weight * m.DosePerKg
	volumeMl := doseMg / m.Concentration
	return DoseResult{
		MedicationName: m.Name,
		VolumeMl:       volumeMl,
		CostPerAnimal:  volumeMl * (m.PricePerUnit / m.VolumePerUnit),
	}, nil
}
