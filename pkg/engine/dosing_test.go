package engine

import (
	"errors"
	"math"
	"testing"

	"ruralstock/pkg/domain"
)

func selenioProfile() domain.MedicationProfile {
	return domain.MedicationProfile{
		Base:          domain.Base{ID: "med-selenio"},
		Name:          "Selenio",
		DosePerKg:     0.25,
		Concentration: 10.95,
		VolumePerUnit: 50,
		PricePerUnit:  350,
	}
}

func TestDoseSelenioExample(t *testing.T) {
	got, err := Dose(50, selenioProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// expectation built from float64 values in the engine's operation order,
	// not constant-folded at arbitrary precision
	weight := 50.0
	wantVolume := weight * 0.25 / 10.95
	wantCost := wantVolume * (350.0 / 50.0)
	if got.VolumeMl != wantVolume {
		t.Fatalf("volume = %v, want %v", got.VolumeMl, wantVolume)
	}
	if got.CostPerAnimal != wantCost {
		t.Fatalf("cost = %v, want %v", got.CostPerAnimal, wantCost)
	}
	if math.Abs(got.VolumeMl-1.1416) > 0.0001 {
		t.Fatalf("volume %v not near 1.1416 mL", got.VolumeMl)
	}
	if math.Abs(got.CostPerAnimal-7.99) > 0.01 {
		t.Fatalf("cost %v not near 7.99", got.CostPerAnimal)
	}
	if got.MedicationName != "Selenio" {
		t.Fatalf("medication name = %q", got.MedicationName)
	}
}

func TestDoseKeepsFullPrecision(t *testing.T) {
	res, err := Dose(33.333, selenioProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	weight := 33.333
	want := weight * 0.25 / 10.95 * (350.0 / 50.0)
	if res.CostPerAnimal != want {
		t.Fatalf("cost rounded internally: %v != %v", res.CostPerAnimal, want)
	}
}

func TestDoseRequiresWeight(t *testing.T) {
	for _, bad := range []float64{0, -2, math.NaN()} {
		if _, err := Dose(bad, selenioProfile()); !errors.Is(err, ErrWeightNotSet) {
			t.Fatalf("Dose(%v): expected ErrWeightNotSet, got %v", bad, err)
		}
	}
}
