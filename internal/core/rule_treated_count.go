package core

import (
	"context"
	"fmt"

	"ruralstock/pkg/domain"
)

// NewTreatedCountRule returns the in-transaction rule constraining treated
// head counts on newly committed procedure records. Existing records are not
// re-checked: the herd count may legitimately change after a procedure ran.
func NewTreatedCountRule() domain.Rule {
	return treatedCountRule{}
}

type treatedCountRule struct{}

func (treatedCountRule) Name() string { return "treated_count" }

func (treatedCountRule) Evaluate(_ context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityProcedure || change.Action != domain.ActionCreate {
			continue
		}
		rec, ok := change.After.(domain.ProcedureRecord)
		if !ok {
			continue
		}
		if rec.TreatedCount < 1 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "treated_count",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("procedure %s treated count must be at least 1", rec.ID),
				Entity:   domain.EntityProcedure,
				EntityID: rec.ID,
			})
			continue
		}
		animal, found := findAnimalByID(view, rec.AnimalID)
		if !found {
			continue
		}
		if rec.TreatedCount > animal.Count {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "treated_count",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("procedure %s treats %d of %d head", rec.ID, rec.TreatedCount, animal.Count),
				Entity:   domain.EntityProcedure,
				EntityID: rec.ID,
			})
		}
	}
	return res, nil
}

func findAnimalByID(view domain.TransactionView, animalID string) (domain.Animal, bool) {
	for _, producer := range view.ListProducers() {
		for _, animal := range producer.Animals {
			if animal.ID == animalID {
				return animal, true
			}
		}
	}
	return domain.Animal{}, false
}
