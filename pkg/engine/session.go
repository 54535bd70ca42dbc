package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"ruralstock/pkg/domain"
)

// State identifies where a costing session stands in its lifecycle.
type State string

// Session lifecycle states. Committed is terminal.
const (
	StateIdle      State = "idle"     // no weight established
	StateWeighed   State = "weighed"  // weight known, no medication computed
	StateDosed     State = "dosed"    // medication computed; consumables and commit enabled
	StateCommitted State = "committed"
)

// Catalog provides the read-only lookups a session needs while costing.
type Catalog interface {
	FindMedication(id string) (domain.MedicationProfile, bool)
	FindConsumable(id string) (domain.ConsumableProfile, bool)
}

// TargetAnimal is the herd entry a session is bound to. Species and Count are
// snapshotted into the committed record's label so later animal edits do not
// rewrite history.
type TargetAnimal struct {
	ID      string
	Species string
	Count   int
	Breed   string
}

// Label renders the denormalized species+count snapshot stored on records.
func (a TargetAnimal) Label() string {
	return fmt.Sprintf("%s (%d)", a.Species, a.Count)
}

// defaultReference is stored when a commit carries no animal reference id.
const defaultReference = "Sin ID"

// Session is the explicit mutable state for one in-progress procedure
// costing. It is owned by a single caller; operations run to completion and
// either fully apply or leave the session untouched. A fresh session starts
// Idle with one treated animal.
type Session struct {
	catalog   Catalog
	animal    TargetAnimal
	hasAnimal bool

	state   State
	weight  float64
	dose    DoseResult
	ledger  Ledger
	treated int

	totalPerAnimal float64
	total          float64

	nowFn func() time.Time
	newID func() string
}

// NewSession binds a costing session to a catalog and a target animal.
func NewSession(catalog Catalog, animal TargetAnimal) *Session {
	return &Session{
		catalog:   catalog,
		animal:    animal,
		hasAnimal: animal.ID != "",
		state:     StateIdle,
		treated:   1,
		nowFn:     func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Weight returns the canonical weight, valid once the state left Idle.
func (s *Session) Weight() float64 { return s.weight }

// Dose returns the last computed dose result, valid in state Dosed.
func (s *Session) Dose() DoseResult { return s.dose }

// TreatedCount returns the number of animals the costing scales to.
func (s *Session) TreatedCount() int { return s.treated }

// TotalPerAnimal returns the live per-animal cost (medication + consumables).
func (s *Session) TotalPerAnimal() float64 { return s.totalPerAnimal }

// Total returns the live herd total (per-animal cost × treated count).
func (s *Session) Total() float64 { return s.total }

// ConsumableLines returns copies of the current usage lines.
func (s *Session) ConsumableLines() []domain.ConsumableUsageLine { return s.ledger.Lines() }

// SetScaleWeight establishes the canonical weight from a direct scale
// reading. A session that already holds a dose keeps it unchanged; volume and
// cost follow the new weight only on the next ApplyMedication.
func (s *Session) SetScaleWeight(kilograms float64) error {
	if s.state == StateCommitted {
		return fmt.Errorf("%w: session already committed", ErrNotReady)
	}
	w, err := ScaleWeight(kilograms)
	if err != nil {
		return err
	}
	s.setWeight(w)
	return nil
}

// SetTapeWeight establishes the canonical weight from a girth/length tape
// measurement in centimeters.
func (s *Session) SetTapeWeight(girth, length float64) error {
	if s.state == StateCommitted {
		return fmt.Errorf("%w: session already committed", ErrNotReady)
	}
	w, err := TapeWeight(girth, length)
	if err != nil {
		return err
	}
	s.setWeight(w)
	return nil
}

func (s *Session) setWeight(w float64) {
	s.weight = w
	if s.state == StateIdle {
		s.state = StateWeighed
	}
}

// ApplyMedication computes volume and cost per animal for the catalog
// medication. Recomputation is explicit: it always re-derives from the
// current weight, and nothing else ever refreshes the dose.
func (s *Session) ApplyMedication(medicationID string) (DoseResult, error) {
	if s.state == StateCommitted {
		return DoseResult{}, fmt.Errorf("%w: session already committed", ErrNotReady)
	}
	if medicationID == "" {
		return DoseResult{}, fmt.Errorf("%w: empty medication id", ErrNoMedicationSelected)
	}
	m, ok := s.catalog.FindMedication(medicationID)
	if !ok {
		return DoseResult{}, fmt.Errorf("%w: medication %s not in catalog", ErrNoMedicationSelected, medicationID)
	}
	if s.state == StateIdle {
		return DoseResult{}, fmt.Errorf("%w: establish a weight first", ErrWeightNotSet)
	}
	dose, err := Dose(s.weight, m)
	if err != nil {
		return DoseResult{}, err
	}
	s.dose = dose
	s.state = StateDosed
	s.RecomputeTotal()
	return dose, nil
}

// AddConsumable resolves the consumable from the catalog and records its
// per-animal usage, merging quantities on repeat adds. Enabled only once a
// medication has been computed.
func (s *Session) AddConsumable(consumableID string, quantity int) error {
	if s.state != StateDosed {
		return fmt.Errorf("%w: consumable entry requires a computed medication", ErrNotReady)
	}
	c, ok := s.catalog.FindConsumable(consumableID)
	if !ok {
		return fmt.Errorf("%w: consumable %s not in catalog", ErrInvalidInput, consumableID)
	}
	if err := s.ledger.AddUsage(c, quantity); err != nil {
		return err
	}
	s.RecomputeTotal()
	return nil
}

// RemoveConsumable drops a usage line entirely. No-op when absent.
func (s *Session) RemoveConsumable(consumableID string) {
	if s.state != StateDosed {
		return
	}
	s.ledger.RemoveUsage(consumableID)
	s.RecomputeTotal()
}

// SetTreatedCount scales the costing to n animals, silently clamping into
// [1, animal count] so transient invalid intermediate values never block
// entry.
func (s *Session) SetTreatedCount(n int) {
	if s.state == StateCommitted {
		return
	}
	if n < 1 {
		n = 1
	}
	if s.hasAnimal && n > s.animal.Count {
		n = s.animal.Count
	}
	s.treated = n
	s.RecomputeTotal()
}

// RecomputeTotal re-derives the live totals from current state. Idempotent
// and side-effect-free beyond updating the totals.
func (s *Session) RecomputeTotal() {
	var medPerAnimal float64
	if s.state == StateDosed || s.state == StateCommitted {
		medPerAnimal = s.dose.CostPerAnimal
	}
	s.totalPerAnimal = medPerAnimal + s.ledger.TotalPerAnimal()
	s.total = s.totalPerAnimal * float64(s.treated)
}

// Commit freezes all live values into an immutable procedure record and
// transitions the session to its terminal state. The caller is responsible
// for persisting the returned record; the session never mutates it afterwards.
func (s *Session) Commit(reference, notes string) (domain.ProcedureRecord, error) {
	record, err := s.buildRecord(reference, notes)
	if err != nil {
		return domain.ProcedureRecord{}, err
	}
	s.state = StateCommitted
	return record, nil
}

// CommitTo freezes the record, hands it to persist, and enters the terminal
// state only once persist succeeds. A persist failure leaves the session
// Dosed so the costing work is not lost and the commit can be retried.
func (s *Session) CommitTo(persist func(domain.ProcedureRecord) error, reference, notes string) (domain.ProcedureRecord, error) {
	record, err := s.buildRecord(reference, notes)
	if err != nil {
		return domain.ProcedureRecord{}, err
	}
	if persist != nil {
		if err := persist(record); err != nil {
			return domain.ProcedureRecord{}, err
		}
	}
	s.state = StateCommitted
	return record, nil
}

func (s *Session) buildRecord(reference, notes string) (domain.ProcedureRecord, error) {
	if !s.hasAnimal {
		return domain.ProcedureRecord{}, fmt.Errorf("%w: session has no target animal", ErrNoAnimalSelected)
	}
	if s.state != StateDosed {
		return domain.ProcedureRecord{}, fmt.Errorf("%w: state %s", ErrNotReady, s.state)
	}
	s.SetTreatedCount(s.treated)
	s.RecomputeTotal()
	if reference == "" {
		reference = defaultReference
	}
	record := domain.ProcedureRecord{
		ID:                      s.newID(),
		Timestamp:               s.nowFn(),
		AnimalID:                s.animal.ID,
		AnimalLabel:             s.animal.Label(),
		Reference:               reference,
		TreatedCount:            s.treated,
		WeightPerAnimal:         s.weight,
		MedicationName:          s.dose.MedicationName,
		VolumePerAnimal:         s.dose.VolumeMl,
		MedicationCostPerAnimal: s.dose.CostPerAnimal,
		ConsumableLines:         s.ledger.Lines(),
		ConsumableCostPerAnimal: s.ledger.TotalPerAnimal(),
		TotalCostPerAnimal:      s.totalPerAnimal,
		TotalCost:               s.total,
		Notes:                   notes,
	}
	return record, nil
}
