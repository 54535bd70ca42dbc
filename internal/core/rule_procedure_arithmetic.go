package core

import (
	"context"
	"fmt"
	"math"

	"ruralstock/pkg/domain"
)

// NewProcedureArithmeticRule returns the in-transaction rule verifying that
// every stored procedure record is internally consistent: per-animal total is
// the sum of its parts and the grand total scales by treated head count.
func NewProcedureArithmeticRule() domain.Rule {
	return procedureArithmeticRule{}
}

type procedureArithmeticRule struct{}

func (procedureArithmeticRule) Name() string { return "procedure_arithmetic" }

// Comparisons tolerate float representation drift, not semantic mismatch.
const arithmeticTolerance = 1e-6

func closeEnough(a, b float64) bool {
	diff := math.Abs(a - b)
	if diff <= arithmeticTolerance {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= scale*arithmeticTolerance
}

func (procedureArithmeticRule) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, producer := range view.ListProducers() {
		for _, animal := range producer.Animals {
			for _, rec := range animal.Procedures {
				var consumables float64
				for _, line := range rec.ConsumableLines {
					consumables += line.SubtotalPerAnimal
				}
				if !closeEnough(consumables, rec.ConsumableCostPerAnimal) {
					res.Violations = append(res.Violations, domain.Violation{
						Rule:     "procedure_arithmetic",
						Severity: domain.SeverityBlock,
						Message:  fmt.Sprintf("procedure %s consumable cost %.6f does not match line sum %.6f", rec.ID, rec.ConsumableCostPerAnimal, consumables),
						Entity:   domain.EntityProcedure,
						EntityID: rec.ID,
					})
					continue
				}
				perAnimal := rec.MedicationCostPerAnimal + rec.ConsumableCostPerAnimal
				if !closeEnough(perAnimal, rec.TotalCostPerAnimal) {
					res.Violations = append(res.Violations, domain.Violation{
						Rule:     "procedure_arithmetic",
						Severity: domain.SeverityBlock,
						Message:  fmt.Sprintf("procedure %s per-animal total %.6f does not match parts %.6f", rec.ID, rec.TotalCostPerAnimal, perAnimal),
						Entity:   domain.EntityProcedure,
						EntityID: rec.ID,
					})
					continue
				}
				total := rec.TotalCostPerAnimal * float64(rec.TreatedCount)
				if !closeEnough(total, rec.TotalCost) {
					res.Violations = append(res.Violations, domain.Violation{
						Rule:     "procedure_arithmetic",
						Severity: domain.SeverityBlock,
						Message:  fmt.Sprintf("procedure %s total %.6f does not match per-animal x treated %.6f", rec.ID, rec.TotalCost, total),
						Entity:   domain.EntityProcedure,
						EntityID: rec.ID,
					})
				}
			}
		}
	}
	return res, nil
}
