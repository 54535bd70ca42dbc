package engine

import (
	"errors"
	"testing"

	"ruralstock/pkg/domain"
)

type fakeCatalog struct {
	medications map[string]domain.MedicationProfile
	consumables map[string]domain.ConsumableProfile
}

func (c fakeCatalog) FindMedication(id string) (domain.MedicationProfile, bool) {
	m, ok := c.medications[id]
	return m, ok
}

func (c fakeCatalog) FindConsumable(id string) (domain.ConsumableProfile, bool) {
	con, ok := c.consumables[id]
	return con, ok
}

func testCatalog() fakeCatalog {
	return fakeCatalog{
		medications: map[string]domain.MedicationProfile{"med-selenio": selenioProfile()},
		consumables: map[string]domain.ConsumableProfile{
			"con-syringe": syringe(),
			"con-needle":  needle(),
		},
	}
}

func testAnimal() TargetAnimal {
	return TargetAnimal{ID: "animal-1", Species: "Borrego", Count: 5, Breed: "Criolla"}
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSession(testCatalog(), testAnimal())
	if s.State() != StateIdle {
		t.Fatalf("fresh session state = %s", s.State())
	}
	if s.TreatedCount() != 1 {
		t.Fatalf("fresh session treated = %d, want 1", s.TreatedCount())
	}

	if _, err := s.ApplyMedication("med-selenio"); !errors.Is(err, ErrWeightNotSet) {
		t.Fatalf("dosing without weight: expected ErrWeightNotSet, got %v", err)
	}
	if err := s.AddConsumable("con-syringe", 1); !errors.Is(err, ErrNotReady) {
		t.Fatalf("consumable before dose: expected ErrNotReady, got %v", err)
	}

	if err := s.SetTapeWeight(100, 120); err != nil {
		t.Fatalf("tape weight: %v", err)
	}
	if s.State() != StateWeighed {
		t.Fatalf("state after weighing = %s", s.State())
	}
	wantWeight := 100.0 * 100.0 * 120.0 / 10838.0
	if s.Weight() != wantWeight {
		t.Fatalf("weight = %v, want %v", s.Weight(), wantWeight)
	}

	dose, err := s.ApplyMedication("med-selenio")
	if err != nil {
		t.Fatalf("apply medication: %v", err)
	}
	if s.State() != StateDosed {
		t.Fatalf("state after dosing = %s", s.State())
	}
	wantVolume := wantWeight * 0.25 / 10.95
	if dose.VolumeMl != wantVolume {
		t.Fatalf("volume = %v, want %v", dose.VolumeMl, wantVolume)
	}

	if err := s.AddConsumable("con-syringe", 1); err != nil {
		t.Fatalf("add consumable: %v", err)
	}
	wantPerAnimal := dose.CostPerAnimal + 2.50
	if s.TotalPerAnimal() != wantPerAnimal {
		t.Fatalf("per-animal total = %v, want %v", s.TotalPerAnimal(), wantPerAnimal)
	}
	if s.Total() != wantPerAnimal {
		t.Fatalf("total with one head = %v, want %v", s.Total(), wantPerAnimal)
	}

	s.SetTreatedCount(3)
	if s.Total() != wantPerAnimal*3 {
		t.Fatalf("scaled total = %v, want %v", s.Total(), wantPerAnimal*3)
	}

	record, err := s.Commit("arete 42", "aplicado en corral")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if s.State() != StateCommitted {
		t.Fatalf("state after commit = %s", s.State())
	}
	if record.AnimalLabel != "Borrego (5)" {
		t.Fatalf("animal label = %q", record.AnimalLabel)
	}
	if record.Reference != "arete 42" {
		t.Fatalf("reference = %q", record.Reference)
	}
	if record.TreatedCount != 3 || record.TotalCost != wantPerAnimal*3 {
		t.Fatalf("record totals: treated=%d total=%v", record.TreatedCount, record.TotalCost)
	}
	if record.TotalCostPerAnimal != record.MedicationCostPerAnimal+record.ConsumableCostPerAnimal {
		t.Fatalf("record per-animal total inconsistent")
	}
	if record.ID == "" || record.Timestamp.IsZero() {
		t.Fatalf("record missing identity: id=%q ts=%v", record.ID, record.Timestamp)
	}
}

func TestSessionTreatedCountClamps(t *testing.T) {
	s := NewSession(testCatalog(), testAnimal())
	cases := []struct{ in, want int }{
		{0, 1},
		{-4, 1},
		{7, 5},
		{3, 3},
		{5, 5},
	}
	for _, tc := range cases {
		s.SetTreatedCount(tc.in)
		if s.TreatedCount() != tc.want {
			t.Fatalf("SetTreatedCount(%d) = %d, want %d", tc.in, s.TreatedCount(), tc.want)
		}
	}
}

func TestSessionCommitPreconditions(t *testing.T) {
	// no target animal bound
	s := NewSession(testCatalog(), TargetAnimal{})
	if _, err := s.Commit("", ""); !errors.Is(err, ErrNoAnimalSelected) {
		t.Fatalf("expected ErrNoAnimalSelected, got %v", err)
	}

	// idle
	s = NewSession(testCatalog(), testAnimal())
	if _, err := s.Commit("", ""); !errors.Is(err, ErrNotReady) {
		t.Fatalf("commit from idle: expected ErrNotReady, got %v", err)
	}

	// weighed but not dosed
	if err := s.SetScaleWeight(50); err != nil {
		t.Fatalf("scale weight: %v", err)
	}
	if _, err := s.Commit("", ""); !errors.Is(err, ErrNotReady) {
		t.Fatalf("commit from weighed: expected ErrNotReady, got %v", err)
	}
}

func TestSessionCommitDefaultsReference(t *testing.T) {
	s := NewSession(testCatalog(), testAnimal())
	if err := s.SetScaleWeight(50); err != nil {
		t.Fatalf("scale weight: %v", err)
	}
	if _, err := s.ApplyMedication("med-selenio"); err != nil {
		t.Fatalf("apply medication: %v", err)
	}
	record, err := s.Commit("", "")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if record.Reference != "Sin ID" {
		t.Fatalf("default reference = %q, want \"Sin ID\"", record.Reference)
	}
}

func TestSessionMedicationSelectionErrors(t *testing.T) {
	s := NewSession(testCatalog(), testAnimal())
	if err := s.SetScaleWeight(50); err != nil {
		t.Fatalf("scale weight: %v", err)
	}
	if _, err := s.ApplyMedication(""); !errors.Is(err, ErrNoMedicationSelected) {
		t.Fatalf("empty id: expected ErrNoMedicationSelected, got %v", err)
	}
	if _, err := s.ApplyMedication("med-unknown"); !errors.Is(err, ErrNoMedicationSelected) {
		t.Fatalf("unknown id: expected ErrNoMedicationSelected, got %v", err)
	}
	if s.State() != StateWeighed {
		t.Fatalf("failed selection changed state to %s", s.State())
	}
}

func TestSessionWeightChangeKeepsDoseUntilReapply(t *testing.T) {
	s := NewSession(testCatalog(), testAnimal())
	if err := s.SetScaleWeight(50); err != nil {
		t.Fatalf("scale weight: %v", err)
	}
	first, err := s.ApplyMedication("med-selenio")
	if err != nil {
		t.Fatalf("apply medication: %v", err)
	}

	if err := s.SetScaleWeight(60); err != nil {
		t.Fatalf("re-weigh: %v", err)
	}
	if s.State() != StateDosed {
		t.Fatalf("re-weighing dropped dosed state: %s", s.State())
	}
	if s.Dose() != first {
		t.Fatalf("weight change silently recomputed the dose")
	}

	second, err := s.ApplyMedication("med-selenio")
	if err != nil {
		t.Fatalf("reapply: %v", err)
	}
	// build the expectation from float64 values in the engine's operation
	// order; constant folding at arbitrary precision differs by 1 ulp
	weight := 60.0
	want := weight * 0.25 / 10.95
	if second.VolumeMl != want {
		t.Fatalf("recomputed volume = %v, want %v", second.VolumeMl, want)
	}
	if s.Dose() != second {
		t.Fatalf("explicit reapply did not refresh the dose")
	}
}

func TestSessionCommittedIsTerminal(t *testing.T) {
	s := NewSession(testCatalog(), testAnimal())
	if err := s.SetScaleWeight(50); err != nil {
		t.Fatalf("scale weight: %v", err)
	}
	if _, err := s.ApplyMedication("med-selenio"); err != nil {
		t.Fatalf("apply medication: %v", err)
	}
	record, err := s.Commit("", "")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := s.SetScaleWeight(80); !errors.Is(err, ErrNotReady) {
		t.Fatalf("weight after commit: expected ErrNotReady, got %v", err)
	}
	if _, err := s.ApplyMedication("med-selenio"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("dose after commit: expected ErrNotReady, got %v", err)
	}
	if err := s.AddConsumable("con-needle", 1); !errors.Is(err, ErrNotReady) {
		t.Fatalf("consumable after commit: expected ErrNotReady, got %v", err)
	}
	s.SetTreatedCount(4)
	if s.TreatedCount() != record.TreatedCount {
		t.Fatalf("treated count mutated after commit")
	}
	if _, err := s.Commit("", ""); !errors.Is(err, ErrNotReady) {
		t.Fatalf("double commit: expected ErrNotReady, got %v", err)
	}
}

func TestSessionCommitToKeepsSessionOnPersistFailure(t *testing.T) {
	s := NewSession(testCatalog(), testAnimal())
	if err := s.SetScaleWeight(50); err != nil {
		t.Fatalf("scale weight: %v", err)
	}
	if _, err := s.ApplyMedication("med-selenio"); err != nil {
		t.Fatalf("apply medication: %v", err)
	}

	persistErr := errors.New("backend rejected the record")
	if _, err := s.CommitTo(func(domain.ProcedureRecord) error { return persistErr }, "", ""); !errors.Is(err, persistErr) {
		t.Fatalf("expected persist error, got %v", err)
	}
	if s.State() != StateDosed {
		t.Fatalf("persist failure left state %s, want %s", s.State(), StateDosed)
	}

	var persisted domain.ProcedureRecord
	record, err := s.CommitTo(func(r domain.ProcedureRecord) error { persisted = r; return nil }, "arete 4", "")
	if err != nil {
		t.Fatalf("retry commit: %v", err)
	}
	if s.State() != StateCommitted {
		t.Fatalf("state after successful persist = %s", s.State())
	}
	if persisted.ID != record.ID || persisted.Reference != "arete 4" {
		t.Fatalf("persist saw %+v, returned %+v", persisted, record)
	}
}

func TestSessionRecordFrozenAgainstCatalogEdits(t *testing.T) {
	catalog := testCatalog()
	s := NewSession(catalog, testAnimal())
	if err := s.SetScaleWeight(50); err != nil {
		t.Fatalf("scale weight: %v", err)
	}
	if _, err := s.ApplyMedication("med-selenio"); err != nil {
		t.Fatalf("apply medication: %v", err)
	}
	if err := s.AddConsumable("con-syringe", 2); err != nil {
		t.Fatalf("add consumable: %v", err)
	}
	record, err := s.Commit("", "")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	// catalog edits after commit must not reach the record
	m := catalog.medications["med-selenio"]
	m.PricePerUnit = 1000
	catalog.medications["med-selenio"] = m
	c := catalog.consumables["con-syringe"]
	c.UnitPrice = 99
	catalog.consumables["con-syringe"] = c

	weight := 50.0
	volume := weight * 0.25 / 10.95
	wantMed := volume * (350.0 / 50.0)
	if record.MedicationCostPerAnimal != wantMed {
		t.Fatalf("medication cost drifted: %v", record.MedicationCostPerAnimal)
	}
	if record.ConsumableLines[0].UnitPrice != 2.50 {
		t.Fatalf("consumable price drifted: %v", record.ConsumableLines[0].UnitPrice)
	}
	if record.TotalCost != record.TotalCostPerAnimal*float64(record.TreatedCount) {
		t.Fatalf("total identity broken")
	}
}

func TestSessionRemoveConsumableRecomputes(t *testing.T) {
	s := NewSession(testCatalog(), testAnimal())
	if err := s.SetScaleWeight(50); err != nil {
		t.Fatalf("scale weight: %v", err)
	}
	dose, err := s.ApplyMedication("med-selenio")
	if err != nil {
		t.Fatalf("apply medication: %v", err)
	}
	if err := s.AddConsumable("con-syringe", 1); err != nil {
		t.Fatalf("add syringe: %v", err)
	}
	if err := s.AddConsumable("con-needle", 1); err != nil {
		t.Fatalf("add needle: %v", err)
	}
	s.RemoveConsumable("con-syringe")
	if len(s.ConsumableLines()) != 1 {
		t.Fatalf("expected one remaining line")
	}
	if s.TotalPerAnimal() != dose.CostPerAnimal+1.50 {
		t.Fatalf("total after removal = %v", s.TotalPerAnimal())
	}
}

func TestSessionUnknownConsumable(t *testing.T) {
	s := NewSession(testCatalog(), testAnimal())
	if err := s.SetScaleWeight(50); err != nil {
		t.Fatalf("scale weight: %v", err)
	}
	if _, err := s.ApplyMedication("med-selenio"); err != nil {
		t.Fatalf("apply medication: %v", err)
	}
	if err := s.AddConsumable("con-ghost", 1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
