package engine

import (
	"errors"
	"math"
	"testing"
)

func TestTapeWeightFormula(t *testing.T) {
	got, err := TapeWeight(100, 120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 100.0 * 100.0 * 120.0 / 10838.0
	if got != want {
		t.Fatalf("tape weight = %v, want %v", got, want)
	}
	if math.Abs(got-110.72) > 0.01 {
		t.Fatalf("tape weight %v not near 110.72 kg", got)
	}
}

func TestTapeWeightRejectsInvalidMeasurements(t *testing.T) {
	cases := []struct {
		name          string
		girth, length float64
	}{
		{"zero girth", 0, 120},
		{"zero length", 100, 0},
		{"negative girth", -5, 120},
		{"nan length", 100, math.NaN()},
		{"inf girth", math.Inf(1), 120},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := TapeWeight(tc.girth, tc.length); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestScaleWeight(t *testing.T) {
	got, err := ScaleWeight(48.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 48.5 {
		t.Fatalf("scale weight = %v, want 48.5", got)
	}
	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(-1)} {
		if _, err := ScaleWeight(bad); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ScaleWeight(%v): expected ErrInvalidInput, got %v", bad, err)
		}
	}
}
