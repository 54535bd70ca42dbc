// Package memory provides the transactional in-memory store every durable
// backend wraps. Transactions run against a cloned state; registered rules
// evaluate the candidate state and blocking violations abort the commit.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ruralstock/pkg/domain"
)

type memoryState struct {
	producers   map[string]domain.Producer
	medications map[string]domain.MedicationProfile
	consumables map[string]domain.ConsumableProfile
}

// Snapshot is the serializable full-state representation exchanged with
// durable backends. Missing buckets load as empty collections.
type Snapshot struct {
	Producers   []domain.Producer          `json:"producers"`
	Medications []domain.MedicationProfile `json:"medications"`
	Consumables []domain.ConsumableProfile `json:"consumables"`
}

func newMemoryState() memoryState {
	return memoryState{
		producers:   make(map[string]domain.Producer),
		medications: make(map[string]domain.MedicationProfile),
		consumables: make(map[string]domain.ConsumableProfile),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	snap := Snapshot{}
	for _, p := range state.producers {
		snap.Producers = append(snap.Producers, cloneProducer(p))
	}
	for _, m := range state.medications {
		snap.Medications = append(snap.Medications, m)
	}
	for _, c := range state.consumables {
		snap.Consumables = append(snap.Consumables, c)
	}
	sort.Slice(snap.Producers, func(i, j int) bool { return recordLess(snap.Producers[i].Base, snap.Producers[j].Base) })
	sort.Slice(snap.Medications, func(i, j int) bool { return recordLess(snap.Medications[i].Base, snap.Medications[j].Base) })
	sort.Slice(snap.Consumables, func(i, j int) bool { return recordLess(snap.Consumables[i].Base, snap.Consumables[j].Base) })
	return snap
}

func memoryStateFromSnapshot(snap Snapshot) memoryState {
	state := newMemoryState()
	for _, p := range snap.Producers {
		state.producers[p.ID] = cloneProducer(p)
	}
	for _, m := range snap.Medications {
		state.medications[m.ID] = m
	}
	for _, c := range snap.Consumables {
		state.consumables[c.ID] = c
	}
	return state
}

func (s memoryState) clone() memoryState { return memoryStateFromSnapshot(snapshotFromMemoryState(s)) }

// recordLess orders records by creation time then id, keeping list output
// stable across map iteration.
func recordLess(a, b domain.Base) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func cloneProducer(p domain.Producer) domain.Producer {
	cp := p
	// slices.Clone keeps empty collections empty instead of collapsing them
	// to nil, so snapshots serialize them as [] rather than null.
	cp.Family = slices.Clone(p.Family)
	cp.Animals = slices.Clone(p.Animals)
	for i, a := range p.Animals {
		cp.Animals[i] = cloneAnimal(a)
	}
	return cp
}

func cloneAnimal(a domain.Animal) domain.Animal {
	cp := a
	cp.Decisions = slices.Clone(a.Decisions)
	cp.Feeding = slices.Clone(a.Feeding)
	cp.Procedures = slices.Clone(a.Procedures)
	for i, rec := range a.Procedures {
		cp.Procedures[i] = cloneProcedure(rec)
	}
	return cp
}

func cloneProcedure(rec domain.ProcedureRecord) domain.ProcedureRecord {
	cp := rec
	cp.ConsumableLines = slices.Clone(rec.ConsumableLines)
	return cp
}

// Store provides the in-memory transactional store for the record tree.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *domain.RulesEngine
	nowFn  func() time.Time
}

var _ domain.PersistentStore = (*Store)(nil)

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string { return uuid.NewString() }

// ExportState returns a deep-copied snapshot of committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces committed state with the snapshot contents.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the engine evaluating transactions.
func (s *Store) RulesEngine() *domain.RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []domain.Change
	now     time.Time
}

type transactionView struct{ state *memoryState }

func newTransactionView(state *memoryState) domain.TransactionView {
	return transactionView{state: state}
}

func (v transactionView) ListProducers() []domain.Producer {
	out := make([]domain.Producer, 0, len(v.state.producers))
	for _, p := range v.state.producers {
		out = append(out, cloneProducer(p))
	}
	sort.Slice(out, func(i, j int) bool { return recordLess(out[i].Base, out[j].Base) })
	return out
}

func (v transactionView) FindProducer(id string) (domain.Producer, bool) {
	p, ok := v.state.producers[id]
	if !ok {
		return domain.Producer{}, false
	}
	return cloneProducer(p), true
}

func (v transactionView) FindAnimal(producerID, animalID string) (domain.Animal, bool) {
	p, ok := v.state.producers[producerID]
	if !ok {
		return domain.Animal{}, false
	}
	for _, a := range p.Animals {
		if a.ID == animalID {
			return cloneAnimal(a), true
		}
	}
	return domain.Animal{}, false
}

func (v transactionView) ListMedications() []domain.MedicationProfile {
	out := make([]domain.MedicationProfile, 0, len(v.state.medications))
	for _, m := range v.state.medications {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return recordLess(out[i].Base, out[j].Base) })
	return out
}

func (v transactionView) ListConsumables() []domain.ConsumableProfile {
	out := make([]domain.ConsumableProfile, 0, len(v.state.consumables))
	for _, c := range v.state.consumables {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return recordLess(out[i].Base, out[j].Base) })
	return out
}

func (v transactionView) FindMedication(id string) (domain.MedicationProfile, bool) {
	m, ok := v.state.medications[id]
	return m, ok
}

func (v transactionView) FindConsumable(id string) (domain.ConsumableProfile, bool) {
	c, ok := v.state.consumables[id]
	return c, ok
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := s.state.clone()
	return fn(newTransactionView(&snapshot))
}

func (tx *transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

func (tx *transaction) Snapshot() domain.TransactionView { return newTransactionView(&tx.state) }

func (tx *transaction) FindProducer(id string) (domain.Producer, bool) {
	return newTransactionView(&tx.state).FindProducer(id)
}

func (tx *transaction) FindAnimal(producerID, animalID string) (domain.Animal, bool) {
	return newTransactionView(&tx.state).FindAnimal(producerID, animalID)
}

func (tx *transaction) FindMedication(id string) (domain.MedicationProfile, bool) {
	return newTransactionView(&tx.state).FindMedication(id)
}

func (tx *transaction) FindConsumable(id string) (domain.ConsumableProfile, bool) {
	return newTransactionView(&tx.state).FindConsumable(id)
}

// CreateProducer stores a new producer within the transaction.
func (tx *transaction) CreateProducer(p domain.Producer) (domain.Producer, error) {
	if p.Name == "" {
		return domain.Producer{}, fmt.Errorf("producer name is required")
	}
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.producers[p.ID]; exists {
		return domain.Producer{}, fmt.Errorf("producer %q already exists", p.ID)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	if p.Family == nil {
		p.Family = []domain.FamilyMember{}
	}
	if p.Animals == nil {
		p.Animals = []domain.Animal{}
	}
	tx.state.producers[p.ID] = cloneProducer(p)
	tx.recordChange(domain.Change{Entity: domain.EntityProducer, Action: domain.ActionCreate, After: cloneProducer(p)})
	return cloneProducer(p), nil
}

// UpdateProducer mutates a producer using the provided mutator function.
func (tx *transaction) UpdateProducer(id string, mutator func(*domain.Producer) error) (domain.Producer, error) {
	current, ok := tx.state.producers[id]
	if !ok {
		return domain.Producer{}, fmt.Errorf("producer %q not found", id)
	}
	before := cloneProducer(current)
	if err := mutator(&current); err != nil {
		return domain.Producer{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.producers[id] = cloneProducer(current)
	tx.recordChange(domain.Change{Entity: domain.EntityProducer, Action: domain.ActionUpdate, Before: before, After: cloneProducer(current)})
	return cloneProducer(current), nil
}

// DeleteProducer removes a producer and everything it owns.
func (tx *transaction) DeleteProducer(id string) error {
	current, ok := tx.state.producers[id]
	if !ok {
		return fmt.Errorf("producer %q not found", id)
	}
	delete(tx.state.producers, id)
	tx.recordChange(domain.Change{Entity: domain.EntityProducer, Action: domain.ActionDelete, Before: cloneProducer(current)})
	return nil
}

// AddFamilyMember appends a household member to a producer.
func (tx *transaction) AddFamilyMember(producerID string, member domain.FamilyMember) (domain.Producer, error) {
	if member.Name == "" || member.Activity == "" {
		return domain.Producer{}, fmt.Errorf("family member name and activity are required")
	}
	return tx.UpdateProducer(producerID, func(p *domain.Producer) error {
		p.Family = append(p.Family, member)
		return nil
	})
}

// AddAnimal appends a herd entry to a producer.
func (tx *transaction) AddAnimal(producerID string, animal domain.Animal) (domain.Animal, error) {
	if animal.Species == "" {
		return domain.Animal{}, fmt.Errorf("animal species is required")
	}
	if animal.Count <= 0 {
		return domain.Animal{}, fmt.Errorf("animal count must be positive")
	}
	if animal.Breed == "" {
		animal.Breed = "Criolla"
	}
	if animal.ID == "" {
		animal.ID = tx.store.newID()
	}
	animal.CreatedAt = tx.now
	animal.UpdatedAt = tx.now
	if animal.Decisions == nil {
		animal.Decisions = []domain.DecisionEntry{}
	}
	if animal.Feeding == nil {
		animal.Feeding = []domain.FeedingAction{}
	}
	if animal.Procedures == nil {
		animal.Procedures = []domain.ProcedureRecord{}
	}
	created := cloneAnimal(animal)
	if _, err := tx.UpdateProducer(producerID, func(p *domain.Producer) error {
		for _, existing := range p.Animals {
			if existing.ID == animal.ID {
				return fmt.Errorf("animal %q already exists", animal.ID)
			}
		}
		p.Animals = append(p.Animals, cloneAnimal(animal))
		return nil
	}); err != nil {
		return domain.Animal{}, err
	}
	tx.recordChange(domain.Change{Entity: domain.EntityAnimal, Action: domain.ActionCreate, After: cloneAnimal(animal)})
	return created, nil
}

// UpdateAnimal mutates a herd entry in place. Procedure history is guarded:
// mutators may not shrink or reorder it.
func (tx *transaction) UpdateAnimal(producerID, animalID string, mutator func(*domain.Animal) error) (domain.Animal, error) {
	var updated domain.Animal
	if _, err := tx.UpdateProducer(producerID, func(p *domain.Producer) error {
		for i := range p.Animals {
			if p.Animals[i].ID != animalID {
				continue
			}
			before := cloneAnimal(p.Animals[i])
			current := cloneAnimal(p.Animals[i])
			if err := mutator(&current); err != nil {
				return err
			}
			current.ID = animalID
			current.UpdatedAt = tx.now
			if len(current.Procedures) != len(before.Procedures) {
				return fmt.Errorf("animal %q procedure history is append-only", animalID)
			}
			p.Animals[i] = cloneAnimal(current)
			updated = cloneAnimal(current)
			tx.recordChange(domain.Change{Entity: domain.EntityAnimal, Action: domain.ActionUpdate, Before: before, After: cloneAnimal(current)})
			return nil
		}
		return fmt.Errorf("animal %q not found", animalID)
	}); err != nil {
		return domain.Animal{}, err
	}
	return updated, nil
}

// DeleteAnimal removes a herd entry together with its procedure history.
func (tx *transaction) DeleteAnimal(producerID, animalID string) error {
	_, err := tx.UpdateProducer(producerID, func(p *domain.Producer) error {
		for i := range p.Animals {
			if p.Animals[i].ID == animalID {
				removed := cloneAnimal(p.Animals[i])
				p.Animals = append(p.Animals[:i], p.Animals[i+1:]...)
				tx.recordChange(domain.Change{Entity: domain.EntityAnimal, Action: domain.ActionDelete, Before: removed})
				return nil
			}
		}
		return fmt.Errorf("animal %q not found", animalID)
	})
	return err
}

// AppendProcedure attaches a committed procedure record to the animal it
// targets. Records are stored by value and never updated afterwards.
func (tx *transaction) AppendProcedure(producerID, animalID string, record domain.ProcedureRecord) (domain.ProcedureRecord, error) {
	if record.ID == "" {
		record.ID = tx.store.newID()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = tx.now
	}
	record.AnimalID = animalID
	stored := cloneProcedure(record)
	if _, err := tx.UpdateProducer(producerID, func(p *domain.Producer) error {
		for i := range p.Animals {
			if p.Animals[i].ID != animalID {
				continue
			}
			for _, existing := range p.Animals[i].Procedures {
				if existing.ID == record.ID {
					return fmt.Errorf("procedure %q already exists", record.ID)
				}
			}
			p.Animals[i].Procedures = append(p.Animals[i].Procedures, cloneProcedure(record))
			p.Animals[i].UpdatedAt = tx.now
			return nil
		}
		return fmt.Errorf("animal %q not found", animalID)
	}); err != nil {
		return domain.ProcedureRecord{}, err
	}
	tx.recordChange(domain.Change{Entity: domain.EntityProcedure, Action: domain.ActionCreate, After: cloneProcedure(record)})
	return stored, nil
}

// RemoveProcedure deletes a procedure record by explicit user action.
func (tx *transaction) RemoveProcedure(producerID, animalID, recordID string) error {
	_, err := tx.UpdateProducer(producerID, func(p *domain.Producer) error {
		for i := range p.Animals {
			if p.Animals[i].ID != animalID {
				continue
			}
			procs := p.Animals[i].Procedures
			for j := range procs {
				if procs[j].ID == recordID {
					removed := cloneProcedure(procs[j])
					p.Animals[i].Procedures = append(procs[:j], procs[j+1:]...)
					p.Animals[i].UpdatedAt = tx.now
					tx.recordChange(domain.Change{Entity: domain.EntityProcedure, Action: domain.ActionDelete, Before: removed})
					return nil
				}
			}
			return fmt.Errorf("procedure %q not found", recordID)
		}
		return fmt.Errorf("animal %q not found", animalID)
	})
	return err
}

// CreateMedication stores a new medication catalog entry.
func (tx *transaction) CreateMedication(m domain.MedicationProfile) (domain.MedicationProfile, error) {
	if err := validateMedication(m); err != nil {
		return domain.MedicationProfile{}, err
	}
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if _, exists := tx.state.medications[m.ID]; exists {
		return domain.MedicationProfile{}, fmt.Errorf("medication %q already exists", m.ID)
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.medications[m.ID] = m
	tx.recordChange(domain.Change{Entity: domain.EntityMedication, Action: domain.ActionCreate, After: m})
	return m, nil
}

// UpdateMedication mutates a medication catalog entry. Committed procedure
// records copied the profile by value and are unaffected.
func (tx *transaction) UpdateMedication(id string, mutator func(*domain.MedicationProfile) error) (domain.MedicationProfile, error) {
	current, ok := tx.state.medications[id]
	if !ok {
		return domain.MedicationProfile{}, fmt.Errorf("medication %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.MedicationProfile{}, err
	}
	if err := validateMedication(current); err != nil {
		return domain.MedicationProfile{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.medications[id] = current
	tx.recordChange(domain.Change{Entity: domain.EntityMedication, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteMedication removes a medication catalog entry.
func (tx *transaction) DeleteMedication(id string) error {
	current, ok := tx.state.medications[id]
	if !ok {
		return fmt.Errorf("medication %q not found", id)
	}
	delete(tx.state.medications, id)
	tx.recordChange(domain.Change{Entity: domain.EntityMedication, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateConsumable stores a new consumable catalog entry.
func (tx *transaction) CreateConsumable(c domain.ConsumableProfile) (domain.ConsumableProfile, error) {
	if err := validateConsumable(c); err != nil {
		return domain.ConsumableProfile{}, err
	}
	if c.Unit == "" {
		c.Unit = "unidad"
	}
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.consumables[c.ID]; exists {
		return domain.ConsumableProfile{}, fmt.Errorf("consumable %q already exists", c.ID)
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.consumables[c.ID] = c
	tx.recordChange(domain.Change{Entity: domain.EntityConsumable, Action: domain.ActionCreate, After: c})
	return c, nil
}

// UpdateConsumable mutates a consumable catalog entry.
func (tx *transaction) UpdateConsumable(id string, mutator func(*domain.ConsumableProfile) error) (domain.ConsumableProfile, error) {
	current, ok := tx.state.consumables[id]
	if !ok {
		return domain.ConsumableProfile{}, fmt.Errorf("consumable %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.ConsumableProfile{}, err
	}
	if err := validateConsumable(current); err != nil {
		return domain.ConsumableProfile{}, err
	}
	if current.Unit == "" {
		current.Unit = "unidad"
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.consumables[id] = current
	tx.recordChange(domain.Change{Entity: domain.EntityConsumable, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteConsumable removes a consumable catalog entry.
func (tx *transaction) DeleteConsumable(id string) error {
	current, ok := tx.state.consumables[id]
	if !ok {
		return fmt.Errorf("consumable %q not found", id)
	}
	delete(tx.state.consumables, id)
	tx.recordChange(domain.Change{Entity: domain.EntityConsumable, Action: domain.ActionDelete, Before: current})
	return nil
}

func validateMedication(m domain.MedicationProfile) error {
	if m.Name == "" {
		return fmt.Errorf("medication name is required")
	}
	if m.Concentration <= 0 {
		return fmt.Errorf("medication concentration must be positive")
	}
	if m.VolumePerUnit <= 0 {
		return fmt.Errorf("medication volume per unit must be positive")
	}
	return nil
}

func validateConsumable(c domain.ConsumableProfile) error {
	if c.Name == "" {
		return fmt.Errorf("consumable name is required")
	}
	if c.UnitPrice < 0 {
		return fmt.Errorf("consumable unit price must not be negative")
	}
	return nil
}

// Read helpers ---------------------------------------------------------------

// GetProducer retrieves a producer by ID from committed state.
func (s *Store) GetProducer(id string) (domain.Producer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.producers[id]
	if !ok {
		return domain.Producer{}, false
	}
	return cloneProducer(p), true
}

// ListProducers returns all producers from committed state in stable order.
func (s *Store) ListProducers() []domain.Producer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := transactionView{state: &s.state}
	return view.ListProducers()
}

// ListMedications returns the medication catalog in stable order.
func (s *Store) ListMedications() []domain.MedicationProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := transactionView{state: &s.state}
	return view.ListMedications()
}

// ListConsumables returns the consumable catalog in stable order.
func (s *Store) ListConsumables() []domain.ConsumableProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := transactionView{state: &s.state}
	return view.ListConsumables()
}
