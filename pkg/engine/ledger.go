package engine

import (
	"fmt"

	"ruralstock/pkg/domain"
)

// Ledger accumulates consumable usage for one in-progress procedure, keyed by
// consumable identity while preserving insertion order. Unit prices are
// captured from the catalog at first add and never refreshed, so catalog
// edits mid-entry cannot shift a line's subtotal.
type Ledger struct {
	lines []domain.ConsumableUsageLine
}

// AddUsage records quantity units of the consumable for each treated animal.
// Adding a consumable already on the ledger merges quantities into the
// existing line instead of appending a duplicate.
func (l *Ledger) AddUsage(c domain.ConsumableProfile, quantity int) error {
	if c.ID == "" {
		return fmt.Errorf("%w: no consumable selected", ErrInvalidInput)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity %d", ErrInvalidInput, quantity)
	}
	for i := range l.lines {
		if l.lines[i].ConsumableID == c.ID {
			l.lines[i].QuantityPerAnimal += quantity
			l.lines[i].SubtotalPerAnimal = float64(l.lines[i].QuantityPerAnimal) * l.lines[i].UnitPrice
			return nil
		}
	}
	l.lines = append(l.lines, domain.ConsumableUsageLine{
		ConsumableID:      c.ID,
		Name:              c.Name,
		QuantityPerAnimal: quantity,
		UnitPrice:         c.UnitPrice,
		SubtotalPerAnimal: float64(quantity) * c.UnitPrice,
	})
	return nil
}

// RemoveUsage drops the whole line for the consumable. Removing an absent
// consumable is a no-op.
func (l *Ledger) RemoveUsage(consumableID string) {
	for i := range l.lines {
		if l.lines[i].ConsumableID == consumableID {
			l.lines = append(l.lines[:i], l.lines[i+1:]...)
			return
		}
	}
}

// TotalPerAnimal sums all line subtotals.
func (l *Ledger) TotalPerAnimal() float64 {
	var total float64
	for _, line := range l.lines {
		total += line.SubtotalPerAnimal
	}
	return total
}

// Lines returns a copy of the usage lines in insertion order.
func (l *Ledger) Lines() []domain.ConsumableUsageLine {
	out := make([]domain.ConsumableUsageLine, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len reports the number of distinct consumable lines.
func (l *Ledger) Len() int { return len(l.lines) }

// ScaledQuantity is the display quantity for a line across the treated herd.
// Derived on every read, never stored.
func ScaledQuantity(line domain.ConsumableUsageLine, treated int) int {
	return line.QuantityPerAnimal * treated
}

// ScaledSubtotal is the display subtotal for a line across the treated herd.
func ScaledSubtotal(line domain.ConsumableUsageLine, treated int) float64 {
	return line.SubtotalPerAnimal * float64(treated)
}
