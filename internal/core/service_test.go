package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"ruralstock/internal/blob"
	"ruralstock/pkg/domain"
	"ruralstock/pkg/engine"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewInMemoryService(NewDefaultRulesEngine(), WithBlobStore(blob.NewMemory()))
}

func seedHousehold(t *testing.T, svc *Service) (Producer, Animal) {
	t.Helper()
	ctx := context.Background()
	producer, _, err := svc.CreateProducer(ctx, Producer{Name: "Don Julio", Location: "El Llano"})
	if err != nil {
		t.Fatalf("create producer: %v", err)
	}
	animal, _, err := svc.AddAnimal(ctx, producer.ID, Animal{Species: "borrego", Count: 5})
	if err != nil {
		t.Fatalf("add animal: %v", err)
	}
	if _, err := svc.SeedDefaultCatalog(ctx); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	return producer, animal
}

func TestSeedDefaultCatalogIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.SeedDefaultCatalog(ctx); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if _, err := svc.SeedDefaultCatalog(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	meds := svc.ListMedications()
	items := svc.ListConsumables()
	if len(meds) != 1 || len(items) != 2 {
		t.Fatalf("catalog = %d meds, %d consumables; want 1 and 2", len(meds), len(items))
	}
	if meds[0].Name != "Selenio" || meds[0].PricePerUnit != 350 {
		t.Fatalf("seeded medication: %+v", meds[0])
	}
}

func TestHouseholdDetailFieldsPersist(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	lat, lng := 19.4326, -99.1332
	producer, _, err := svc.CreateProducer(ctx, Producer{Name: "Doña Mari", Latitude: &lat, Longitude: &lng})
	if err != nil {
		t.Fatalf("create producer: %v", err)
	}
	animal, _, err := svc.AddAnimal(ctx, producer.ID, Animal{Species: "borrego", Count: 3})
	if err != nil {
		t.Fatalf("add animal: %v", err)
	}

	updated, _, err := svc.UpdateAnimal(ctx, producer.ID, animal.ID, func(a *Animal) error {
		a.Decisions = append(a.Decisions, domain.DecisionEntry{Action: "venta", Who: "madre"})
		a.Feeding = append(a.Feeding, domain.FeedingAction{Action: "pastoreo", Who: "hijo", Kind: "rastrojo"})
		return nil
	})
	if err != nil {
		t.Fatalf("update animal: %v", err)
	}
	if len(updated.Decisions) != 1 || updated.Decisions[0].Who != "madre" {
		t.Fatalf("decisions: %+v", updated.Decisions)
	}
	if len(updated.Feeding) != 1 || updated.Feeding[0].Kind != "rastrojo" {
		t.Fatalf("feeding: %+v", updated.Feeding)
	}

	stored, ok := svc.GetProducer(producer.ID)
	if !ok {
		t.Fatalf("producer not stored")
	}
	if stored.Latitude == nil || *stored.Latitude != lat || stored.Longitude == nil || *stored.Longitude != lng {
		t.Fatalf("geolocation not persisted: %+v", stored)
	}
	if len(stored.Animals[0].Decisions) != 1 || len(stored.Animals[0].Feeding) != 1 {
		t.Fatalf("detail records not persisted: %+v", stored.Animals[0])
	}
}

func TestListTreatableAnimalsFiltersSpecies(t *testing.T) {
	svc := newTestService(t)
	producer, _ := seedHousehold(t, svc)
	ctx := context.Background()
	if _, _, err := svc.AddAnimal(ctx, producer.ID, Animal{Species: "vaca", Count: 2}); err != nil {
		t.Fatalf("add cow: %v", err)
	}
	if _, _, err := svc.AddAnimal(ctx, producer.ID, Animal{Species: "Oveja", Count: 3}); err != nil {
		t.Fatalf("add ewe: %v", err)
	}

	treatable, err := svc.ListTreatableAnimals(producer.ID)
	if err != nil {
		t.Fatalf("list treatable: %v", err)
	}
	if len(treatable) != 2 {
		t.Fatalf("treatable = %d, want 2 (sheep family only)", len(treatable))
	}
	for _, a := range treatable {
		if !domain.IsSheepFamily(a.Species) {
			t.Fatalf("non-sheep species leaked: %s", a.Species)
		}
	}

	if _, err := svc.ListTreatableAnimals("missing"); err == nil {
		t.Fatalf("expected not-found error")
	}
}

func TestProcedureWorkflowEndToEnd(t *testing.T) {
	svc := newTestService(t)
	producer, animal := seedHousehold(t, svc)
	ctx := context.Background()

	medID := svc.ListMedications()[0].ID
	items := svc.ListConsumables()

	session, err := svc.NewProcedureSession(producer.ID, animal.ID)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := session.SetTapeWeight(100, 120); err != nil {
		t.Fatalf("tape weight: %v", err)
	}
	if _, err := session.ApplyMedication(medID); err != nil {
		t.Fatalf("apply medication: %v", err)
	}
	for _, item := range items {
		if err := session.AddConsumable(item.ID, 1); err != nil {
			t.Fatalf("add consumable %s: %v", item.Name, err)
		}
	}
	session.SetTreatedCount(3)

	record, res, err := svc.CommitProcedure(ctx, producer.ID, session, "arete 7", "")
	if err != nil {
		t.Fatalf("commit procedure: %v", err)
	}
	if res.HasBlocking() {
		t.Fatalf("unexpected blocking violations: %+v", res.Violations)
	}
	if record.TreatedCount != 3 || record.Reference != "arete 7" {
		t.Fatalf("record: %+v", record)
	}
	if record.TotalCost != record.TotalCostPerAnimal*3 {
		t.Fatalf("total identity broken")
	}

	stored, _ := svc.GetProducer(producer.ID)
	if len(stored.Animals[0].Procedures) != 1 {
		t.Fatalf("record not persisted")
	}

	// later catalog reprice must not rewrite committed history
	if _, _, err := svc.UpdateMedication(ctx, medID, func(m *MedicationProfile) error {
		m.PricePerUnit = 9999
		return nil
	}); err != nil {
		t.Fatalf("reprice: %v", err)
	}
	after, _ := svc.GetProducer(producer.ID)
	if after.Animals[0].Procedures[0].MedicationCostPerAnimal != record.MedicationCostPerAnimal {
		t.Fatalf("committed record changed after catalog edit")
	}

	if _, err := svc.DeleteProcedure(ctx, producer.ID, animal.ID, record.ID); err != nil {
		t.Fatalf("delete procedure: %v", err)
	}
	final, _ := svc.GetProducer(producer.ID)
	if len(final.Animals[0].Procedures) != 0 {
		t.Fatalf("procedure not deleted")
	}
}

func TestNewProcedureSessionRejectsNonSheep(t *testing.T) {
	svc := newTestService(t)
	producer, _ := seedHousehold(t, svc)
	ctx := context.Background()
	cow, _, err := svc.AddAnimal(ctx, producer.ID, Animal{Species: "vaca", Count: 2})
	if err != nil {
		t.Fatalf("add cow: %v", err)
	}
	if _, err := svc.NewProcedureSession(producer.ID, cow.ID); err == nil {
		t.Fatalf("expected rejection for non-sheep species")
	}
	var notFound ErrNotFound
	if _, err := svc.NewProcedureSession(producer.ID, "missing"); !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCommitProcedureTreatedCountRule(t *testing.T) {
	svc := newTestService(t)
	producer, animal := seedHousehold(t, svc)
	ctx := context.Background()

	// shrink the herd between session start and commit; the session clamps
	// to its snapshot (5), the rule checks the live count (2) and blocks
	session, err := svc.NewProcedureSession(producer.ID, animal.ID)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := session.SetScaleWeight(50); err != nil {
		t.Fatalf("weight: %v", err)
	}
	if _, err := session.ApplyMedication(svc.ListMedications()[0].ID); err != nil {
		t.Fatalf("medication: %v", err)
	}
	session.SetTreatedCount(5)

	if _, _, err := svc.UpdateAnimal(ctx, producer.ID, animal.ID, func(a *Animal) error {
		a.Count = 2
		return nil
	}); err != nil {
		t.Fatalf("shrink herd: %v", err)
	}

	_, _, err = svc.CommitProcedure(ctx, producer.ID, session, "", "")
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}

	// a blocked commit must not burn the session: the costing survives and
	// a corrected treated count commits cleanly
	if session.State() != engine.StateDosed {
		t.Fatalf("blocked commit left session %s, want %s", session.State(), engine.StateDosed)
	}
	session.SetTreatedCount(2)
	record, _, err := svc.CommitProcedure(ctx, producer.ID, session, "", "")
	if err != nil {
		t.Fatalf("retry commit: %v", err)
	}
	if record.TreatedCount != 2 {
		t.Fatalf("retried record treated = %d, want 2", record.TreatedCount)
	}
	if session.State() != engine.StateCommitted {
		t.Fatalf("session state after retry = %s", session.State())
	}
}

func TestAttachProducerPhoto(t *testing.T) {
	svc := newTestService(t)
	producer, _ := seedHousehold(t, svc)
	ctx := context.Background()

	updated, _, err := svc.AttachProducerPhoto(ctx, producer.ID, bytes.NewReader([]byte("first")), "image/jpeg")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if updated.PhotoKey == "" {
		t.Fatalf("photo key not recorded")
	}
	firstKey := updated.PhotoKey

	info, rc, err := svc.ProducerPhoto(ctx, producer.ID)
	if err != nil {
		t.Fatalf("fetch photo: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "first" || info.ContentType != "image/jpeg" {
		t.Fatalf("photo round trip: %q %+v", data, info)
	}

	// replacing the photo swaps the key and drops the old blob
	updated, _, err = svc.AttachProducerPhoto(ctx, producer.ID, bytes.NewReader([]byte("second")), "image/png")
	if err != nil {
		t.Fatalf("re-attach: %v", err)
	}
	if updated.PhotoKey == firstKey {
		t.Fatalf("photo key not rotated")
	}
	_, rc, err = svc.ProducerPhoto(ctx, producer.ID)
	if err != nil {
		t.Fatalf("fetch replacement: %v", err)
	}
	data, _ = io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "second" {
		t.Fatalf("replacement content = %q", data)
	}
}

func TestSessionConsumesLiveCatalogPrices(t *testing.T) {
	svc := newTestService(t)
	producer, animal := seedHousehold(t, svc)
	ctx := context.Background()

	medID := svc.ListMedications()[0].ID
	if _, _, err := svc.UpdateMedication(ctx, medID, func(m *MedicationProfile) error {
		m.PricePerUnit = 700
		return nil
	}); err != nil {
		t.Fatalf("reprice: %v", err)
	}

	session, err := svc.NewProcedureSession(producer.ID, animal.ID)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := session.SetScaleWeight(50); err != nil {
		t.Fatalf("weight: %v", err)
	}
	dose, err := session.ApplyMedication(medID)
	if err != nil {
		t.Fatalf("medication: %v", err)
	}
	weight := 50.0
	want := weight * 0.25 / 10.95 * (700.0 / 50.0)
	if dose.CostPerAnimal != want {
		t.Fatalf("dose priced at %v, want %v (live catalog)", dose.CostPerAnimal, want)
	}
	if session.State() != engine.StateDosed {
		t.Fatalf("session state = %s", session.State())
	}
}
