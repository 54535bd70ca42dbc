// Package domain defines the persistent record tree, value types, and rule
// evaluation primitives used by ruralstock.
package domain

import "time"

// EntityType identifies the type of record stored in the domain tree.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityProducer identifies a producer (farm household) record.
	EntityProducer EntityType = "producer"
	// EntityAnimal identifies a herd entry owned by a producer.
	EntityAnimal EntityType = "animal"
	// EntityProcedure identifies a committed procedure record.
	EntityProcedure EntityType = "procedure"
	// EntityMedication identifies a medication catalog entry.
	EntityMedication EntityType = "medication"
	// EntityConsumable identifies a consumable catalog entry.
	EntityConsumable EntityType = "consumable"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Producer represents a farming household, the top-level record owner.
type Producer struct {
	Base
	Name          string         `json:"name"`
	Age           *int           `json:"age,omitempty"`
	Schooling     string         `json:"schooling,omitempty"`
	HouseholdSize *int           `json:"household_size,omitempty"`
	Location      string         `json:"location,omitempty"`
	Latitude      *float64       `json:"latitude,omitempty"`
	Longitude     *float64       `json:"longitude,omitempty"`
	PhotoKey      string         `json:"photo_key,omitempty"`
	Family        []FamilyMember `json:"family"`
	Animals       []Animal       `json:"animals"`
}

// FamilyMember captures a household member and their farm activity.
type FamilyMember struct {
	Name     string `json:"name"`
	Activity string `json:"activity"`
}

// Animal is a herd entry (species plus head count) belonging to a producer.
// Procedure records are owned by the animal they target and are append-only.
type Animal struct {
	Base
	Species    string            `json:"species"`
	Count      int               `json:"count"`
	Breed      string            `json:"breed"`
	Role       string            `json:"role,omitempty"`
	Owner      string            `json:"owner,omitempty"`
	Decisions  []DecisionEntry   `json:"decisions"`
	Feeding    []FeedingAction   `json:"feeding"`
	Notes      string            `json:"notes,omitempty"`
	Procedures []ProcedureRecord `json:"procedures"`
}

// DecisionEntry records who decides a given herd management action.
type DecisionEntry struct {
	Action string `json:"action"`
	Who    string `json:"who"`
}

// FeedingAction records who performs a feeding task and the feeding kind.
type FeedingAction struct {
	Action string `json:"action"`
	Who    string `json:"who"`
	Kind   string `json:"kind"`
}

// MedicationProfile is a catalog entry describing a dosable medication.
// Concentration and VolumePerUnit are used as divisors and must be positive.
type MedicationProfile struct {
	Base
	Name          string  `json:"name"`
	DosePerKg     float64 `json:"dose_per_kg"`     // mg per kg of body weight
	Concentration float64 `json:"concentration"`   // mg per mL
	VolumePerUnit float64 `json:"volume_per_unit"` // mL per purchasable unit
	PricePerUnit  float64 `json:"price_per_unit"`  // currency per VolumePerUnit
}

// ConsumableProfile is a catalog entry for a priced consumable.
type ConsumableProfile struct {
	Base
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	UnitPrice float64 `json:"unit_price"`
}

// ConsumableUsageLine is one consumable usage within a procedure. Name and
// UnitPrice are copied from the catalog when the line is first added so later
// catalog edits or deletions never alter the line.
type ConsumableUsageLine struct {
	ConsumableID      string  `json:"consumable_id"`
	Name              string  `json:"name"`
	QuantityPerAnimal int     `json:"quantity_per_animal"`
	UnitPrice         float64 `json:"unit_price"`
	SubtotalPerAnimal float64 `json:"subtotal_per_animal"`
}

// ProcedureRecord is the frozen outcome of a costing session. It is created
// only by a successful commit, deleted only by explicit user action, and
// never otherwise mutated. TotalCostPerAnimal and TotalCost are stored as
// computed at commit time; no recomputation occurs afterwards.
type ProcedureRecord struct {
	ID                      string                `json:"id"`
	Timestamp               time.Time             `json:"timestamp"`
	AnimalID                string                `json:"animal_id"`
	AnimalLabel             string                `json:"animal_label"`
	Reference               string                `json:"reference"`
	TreatedCount            int                   `json:"treated_count"`
	WeightPerAnimal         float64               `json:"weight_per_animal"`
	MedicationName          string                `json:"medication_name"`
	VolumePerAnimal         float64               `json:"volume_per_animal"`
	MedicationCostPerAnimal float64               `json:"medication_cost_per_animal"`
	ConsumableLines         []ConsumableUsageLine `json:"consumable_lines"`
	ConsumableCostPerAnimal float64               `json:"consumable_cost_per_animal"`
	TotalCostPerAnimal      float64               `json:"total_cost_per_animal"`
	TotalCost               float64               `json:"total_cost"`
	Notes                   string                `json:"notes,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
