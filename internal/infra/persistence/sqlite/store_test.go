package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"ruralstock/pkg/domain"
)

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ruralstock.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	var producer domain.Producer
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		producer, err = tx.CreateProducer(domain.Producer{Name: "Don Julio"})
		if err != nil {
			return err
		}
		if _, err := tx.AddAnimal(producer.ID, domain.Animal{Species: "borrego", Count: 4}); err != nil {
			return err
		}
		_, err = tx.CreateMedication(domain.MedicationProfile{Name: "Selenio", DosePerKg: 0.25, Concentration: 10.95, VolumePerUnit: 50, PricePerUnit: 350})
		return err
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	if err := store.DB().Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.DB().Close() }()

	got, ok := reopened.GetProducer(producer.ID)
	if !ok {
		t.Fatalf("producer lost across reopen")
	}
	if len(got.Animals) != 1 || got.Animals[0].Species != "borrego" {
		t.Fatalf("herd lost across reopen: %+v", got.Animals)
	}
	meds := reopened.ListMedications()
	if len(meds) != 1 || meds[0].Name != "Selenio" {
		t.Fatalf("catalog lost across reopen: %+v", meds)
	}
	if reopened.Path() != path {
		t.Fatalf("path = %q, want %q", reopened.Path(), path)
	}
}

func TestFailedTransactionDoesNotSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ruralstock.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.DB().Close() }()

	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateProducer(domain.Producer{})
		return err
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count state rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed transaction wrote %d snapshot rows", count)
	}
}
