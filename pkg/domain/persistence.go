package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateProducer(Producer) (Producer, error)
	UpdateProducer(id string, mutator func(*Producer) error) (Producer, error)
	DeleteProducer(id string) error
	AddFamilyMember(producerID string, member FamilyMember) (Producer, error)
	AddAnimal(producerID string, animal Animal) (Animal, error)
	UpdateAnimal(producerID, animalID string, mutator func(*Animal) error) (Animal, error)
	DeleteAnimal(producerID, animalID string) error
	AppendProcedure(producerID, animalID string, record ProcedureRecord) (ProcedureRecord, error)
	RemoveProcedure(producerID, animalID, recordID string) error
	CreateMedication(MedicationProfile) (MedicationProfile, error)
	UpdateMedication(id string, mutator func(*MedicationProfile) error) (MedicationProfile, error)
	DeleteMedication(id string) error
	CreateConsumable(ConsumableProfile) (ConsumableProfile, error)
	UpdateConsumable(id string, mutator func(*ConsumableProfile) error) (ConsumableProfile, error)
	DeleteConsumable(id string) error
	FindProducer(id string) (Producer, bool)
	FindAnimal(producerID, animalID string) (Animal, bool)
	FindMedication(id string) (MedicationProfile, bool)
	FindConsumable(id string) (ConsumableProfile, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListProducers() []Producer
	FindProducer(id string) (Producer, bool)
	FindAnimal(producerID, animalID string) (Animal, bool)
	ListMedications() []MedicationProfile
	ListConsumables() []ConsumableProfile
	FindMedication(id string) (MedicationProfile, bool)
	FindConsumable(id string) (ConsumableProfile, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetProducer(id string) (Producer, bool)
	ListProducers() []Producer
	ListMedications() []MedicationProfile
	ListConsumables() []ConsumableProfile
}
