package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"ruralstock/internal/blob"
	"ruralstock/pkg/domain"
	"ruralstock/pkg/engine"
)

// Service exposes higher-level transactional operations for the record tree:
// producers, herds, the treatment catalog, and the procedure workflow.
type Service struct {
	store   PersistentStore
	blobs   blob.Store
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithBlobStore attaches an object store used for producer photos.
func WithBlobStore(bs blob.Store) ServiceOption {
	return func(s *Service) { s.blobs = bs }
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// ErrNotFound is returned when reference validation fails within service
// helpers.
type ErrNotFound struct {
	Entity domain.EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Producers -----------------------------------------------------------------

// CreateProducer persists a new producer record.
func (s *Service) CreateProducer(ctx context.Context, producer Producer) (Producer, Result, error) {
	ctx, finish := s.instrument(ctx, "create_producer")
	var created Producer
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.CreateProducer(producer)
		return err
	})
	finish(err)
	return created, res, err
}

// UpdateProducer mutates a producer using the provided mutator.
func (s *Service) UpdateProducer(ctx context.Context, id string, mutator func(*Producer) error) (Producer, Result, error) {
	ctx, finish := s.instrument(ctx, "update_producer")
	var updated Producer
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateProducer(id, mutator)
		return err
	})
	finish(err)
	return updated, res, err
}

// DeleteProducer removes a producer and everything it owns.
func (s *Service) DeleteProducer(ctx context.Context, id string) (Result, error) {
	ctx, finish := s.instrument(ctx, "delete_producer")
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.DeleteProducer(id)
	})
	finish(err)
	return res, err
}

// GetProducer retrieves a producer by ID.
func (s *Service) GetProducer(id string) (Producer, bool) { return s.store.GetProducer(id) }

// ListProducers returns all producers in stable order.
func (s *Service) ListProducers() []Producer { return s.store.ListProducers() }

// AddFamilyMember appends a household member to a producer.
func (s *Service) AddFamilyMember(ctx context.Context, producerID string, member FamilyMember) (Producer, Result, error) {
	ctx, finish := s.instrument(ctx, "add_family_member")
	var updated Producer
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		updated, err = tx.AddFamilyMember(producerID, member)
		return err
	})
	finish(err)
	return updated, res, err
}

// Animals --------------------------------------------------------------------

// AddAnimal appends a herd entry to a producer.
func (s *Service) AddAnimal(ctx context.Context, producerID string, animal Animal) (Animal, Result, error) {
	ctx, finish := s.instrument(ctx, "add_animal")
	var created Animal
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.AddAnimal(producerID, animal)
		return err
	})
	finish(err)
	return created, res, err
}

// UpdateAnimal mutates a herd entry using the provided mutator.
func (s *Service) UpdateAnimal(ctx context.Context, producerID, animalID string, mutator func(*Animal) error) (Animal, Result, error) {
	ctx, finish := s.instrument(ctx, "update_animal")
	var updated Animal
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateAnimal(producerID, animalID, mutator)
		return err
	})
	finish(err)
	return updated, res, err
}

// DeleteAnimal removes a herd entry together with its procedure history.
func (s *Service) DeleteAnimal(ctx context.Context, producerID, animalID string) (Result, error) {
	ctx, finish := s.instrument(ctx, "delete_animal")
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.DeleteAnimal(producerID, animalID)
	})
	finish(err)
	return res, err
}

// ListTreatableAnimals returns the producer's herd entries whose species falls
// within the sheep family, the only group the weight tape is calibrated for.
func (s *Service) ListTreatableAnimals(producerID string) ([]Animal, error) {
	producer, ok := s.store.GetProducer(producerID)
	if !ok {
		return nil, ErrNotFound{Entity: domain.EntityProducer, ID: producerID}
	}
	var out []Animal
	for _, animal := range producer.Animals {
		if domain.IsSheepFamily(animal.Species) {
			out = append(out, animal)
		}
	}
	return out, nil
}

// Catalog --------------------------------------------------------------------

// CreateMedication persists a new medication profile.
func (s *Service) CreateMedication(ctx context.Context, m MedicationProfile) (MedicationProfile, Result, error) {
	ctx, finish := s.instrument(ctx, "create_medication")
	var created MedicationProfile
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.CreateMedication(m)
		return err
	})
	finish(err)
	return created, res, err
}

// UpdateMedication mutates a medication profile. Records already committed
// keep the prices captured at treatment time.
func (s *Service) UpdateMedication(ctx context.Context, id string, mutator func(*MedicationProfile) error) (MedicationProfile, Result, error) {
	ctx, finish := s.instrument(ctx, "update_medication")
	var updated MedicationProfile
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateMedication(id, mutator)
		return err
	})
	finish(err)
	return updated, res, err
}

// DeleteMedication removes a medication profile.
func (s *Service) DeleteMedication(ctx context.Context, id string) (Result, error) {
	ctx, finish := s.instrument(ctx, "delete_medication")
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.DeleteMedication(id)
	})
	finish(err)
	return res, err
}

// ListMedications returns the medication catalog in stable order.
func (s *Service) ListMedications() []MedicationProfile { return s.store.ListMedications() }

// CreateConsumable persists a new consumable profile.
func (s *Service) CreateConsumable(ctx context.Context, c ConsumableProfile) (ConsumableProfile, Result, error) {
	ctx, finish := s.instrument(ctx, "create_consumable")
	var created ConsumableProfile
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.CreateConsumable(c)
		return err
	})
	finish(err)
	return created, res, err
}

// UpdateConsumable mutates a consumable profile.
func (s *Service) UpdateConsumable(ctx context.Context, id string, mutator func(*ConsumableProfile) error) (ConsumableProfile, Result, error) {
	ctx, finish := s.instrument(ctx, "update_consumable")
	var updated ConsumableProfile
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateConsumable(id, mutator)
		return err
	})
	finish(err)
	return updated, res, err
}

// DeleteConsumable removes a consumable profile.
func (s *Service) DeleteConsumable(ctx context.Context, id string) (Result, error) {
	ctx, finish := s.instrument(ctx, "delete_consumable")
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.DeleteConsumable(id)
	})
	finish(err)
	return res, err
}

// ListConsumables returns the consumable catalog in stable order.
func (s *Service) ListConsumables() []ConsumableProfile { return s.store.ListConsumables() }

// SeedDefaultCatalog loads the starter catalog when both catalogs are empty.
// Prices reflect the field kit the tool ships with.
func (s *Service) SeedDefaultCatalog(ctx context.Context) (Result, error) {
	if len(s.store.ListMedications()) > 0 || len(s.store.ListConsumables()) > 0 {
		return Result{}, nil
	}
	ctx, finish := s.instrument(ctx, "seed_default_catalog")
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, err := tx.CreateMedication(MedicationProfile{
			Name:          "Selenio",
			DosePerKg:     0.25,
			Concentration: 10.95,
			VolumePerUnit: 50,
			PricePerUnit:  350,
		}); err != nil {
			return err
		}
		if _, err := tx.CreateConsumable(ConsumableProfile{Name: "Jeringa 5 mL", Unit: "pieza", UnitPrice: 2.50}); err != nil {
			return err
		}
		_, err := tx.CreateConsumable(ConsumableProfile{Name: "Aguja", Unit: "pieza", UnitPrice: 1.50})
		return err
	})
	finish(err)
	return res, err
}

// Procedures -----------------------------------------------------------------

// storeCatalog adapts committed store state to the engine catalog contract.
type storeCatalog struct{ store PersistentStore }

func (c storeCatalog) FindMedication(id string) (MedicationProfile, bool) {
	for _, m := range c.store.ListMedications() {
		if m.ID == id {
			return m, true
		}
	}
	return MedicationProfile{}, false
}

func (c storeCatalog) FindConsumable(id string) (ConsumableProfile, bool) {
	for _, con := range c.store.ListConsumables() {
		if con.ID == id {
			return con, true
		}
	}
	return ConsumableProfile{}, false
}

// NewProcedureSession starts a costing session for the given herd entry. The
// session reads the catalog live, so price edits made before dosing apply.
func (s *Service) NewProcedureSession(producerID, animalID string) (*engine.Session, error) {
	producer, ok := s.store.GetProducer(producerID)
	if !ok {
		return nil, ErrNotFound{Entity: domain.EntityProducer, ID: producerID}
	}
	for _, animal := range producer.Animals {
		if animal.ID != animalID {
			continue
		}
		if !domain.IsSheepFamily(animal.Species) {
			return nil, fmt.Errorf("animal %s (%s) is outside the sheep family", animalID, animal.Species)
		}
		target := engine.TargetAnimal{
			ID:      animal.ID,
			Species: animal.Species,
			Count:   animal.Count,
			Breed:   animal.Breed,
		}
		return engine.NewSession(storeCatalog{store: s.store}, target), nil
	}
	return nil, ErrNotFound{Entity: domain.EntityAnimal, ID: animalID}
}

// CommitProcedure finalizes the session and appends the resulting record to
// the animal's history within one transaction. The session reaches its
// terminal state only when the append succeeds, so a rejected commit leaves
// the costing intact for another attempt.
func (s *Service) CommitProcedure(ctx context.Context, producerID string, session *engine.Session, reference, notes string) (ProcedureRecord, Result, error) {
	ctx, finish := s.instrument(ctx, "commit_procedure")
	var stored ProcedureRecord
	var res Result
	_, err := session.CommitTo(func(record domain.ProcedureRecord) error {
		var txErr error
		res, txErr = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			stored, err = tx.AppendProcedure(producerID, record.AnimalID, record)
			return err
		})
		return txErr
	}, reference, notes)
	finish(err)
	if err != nil {
		return ProcedureRecord{}, res, err
	}
	return stored, res, nil
}

// DeleteProcedure removes a procedure record by explicit user action.
func (s *Service) DeleteProcedure(ctx context.Context, producerID, animalID, recordID string) (Result, error) {
	ctx, finish := s.instrument(ctx, "delete_procedure")
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.RemoveProcedure(producerID, animalID, recordID)
	})
	finish(err)
	return res, err
}

// Photos ---------------------------------------------------------------------

// AttachProducerPhoto stores the photo in the blob store and records its key
// on the producer. A previous photo blob is deleted after the swap commits.
func (s *Service) AttachProducerPhoto(ctx context.Context, producerID string, r io.Reader, contentType string) (Producer, Result, error) {
	ctx, finish := s.instrument(ctx, "attach_producer_photo")
	if s.blobs == nil {
		err := fmt.Errorf("no blob store configured")
		finish(err)
		return Producer{}, Result{}, err
	}
	producer, ok := s.store.GetProducer(producerID)
	if !ok {
		err := ErrNotFound{Entity: domain.EntityProducer, ID: producerID}
		finish(err)
		return Producer{}, Result{}, err
	}
	key := fmt.Sprintf("producers/%s/photo-%d", producerID, time.Now().UTC().UnixNano())
	if _, err := s.blobs.Put(ctx, key, r, blob.PutOptions{ContentType: contentType}); err != nil {
		finish(err)
		return Producer{}, Result{}, fmt.Errorf("store photo: %w", err)
	}
	previous := producer.PhotoKey
	var updated Producer
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateProducer(producerID, func(p *Producer) error {
			p.PhotoKey = key
			return nil
		})
		return err
	})
	if err != nil {
		_, _ = s.blobs.Delete(ctx, key)
		finish(err)
		return Producer{}, res, err
	}
	if previous != "" {
		_, _ = s.blobs.Delete(ctx, previous)
	}
	finish(nil)
	return updated, res, nil
}

// ProducerPhoto returns the stored photo metadata and contents.
func (s *Service) ProducerPhoto(ctx context.Context, producerID string) (blob.Info, io.ReadCloser, error) {
	if s.blobs == nil {
		return blob.Info{}, nil, fmt.Errorf("no blob store configured")
	}
	producer, ok := s.store.GetProducer(producerID)
	if !ok {
		return blob.Info{}, nil, ErrNotFound{Entity: domain.EntityProducer, ID: producerID}
	}
	if producer.PhotoKey == "" {
		return blob.Info{}, nil, fmt.Errorf("producer %s has no photo", producerID)
	}
	return s.blobs.Get(ctx, producer.PhotoKey)
}
