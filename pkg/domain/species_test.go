package domain

import "testing"

func TestIsSheepFamily(t *testing.T) {
	cases := []struct {
		species string
		want    bool
	}{
		{"borrego", true},
		{"Borregos", true},
		{"OVEJA", true},
		{"cordero criollo", true},
		{"ovino de pelo", true},
		{"óvino", true},
		{"BORREGÓ", true},
		{"vaca", false},
		{"cerdo", false},
		{"cabra", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsSheepFamily(tc.species); got != tc.want {
			t.Fatalf("IsSheepFamily(%q) = %v, want %v", tc.species, got, tc.want)
		}
	}
}
