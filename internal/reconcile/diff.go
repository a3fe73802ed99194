// Package reconcile decides which quantity source is authoritative at load
// time and provides the diff logic used to repair divergence between the
// remote cart, the persisted snapshot, and the in-page form.
package reconcile

import (
	"github.com/Akshay-i95/quick-order-app/internal/model"
)

// Diff describes the mutations needed to move one quantity map to another.
// Apply in order: Remove → Update → Add.
type Diff struct {
	ToAdd    []Entry           // Variants in desired but not current
	ToRemove []model.VariantID // Variants in current but not desired
	ToUpdate []Change          // Variants in both with different quantities
}

// Entry is a variant/quantity pair to add.
type Entry struct {
	VariantID model.VariantID
	Quantity  int
}

// Change is a quantity change for a variant present in both maps.
type Change struct {
	VariantID   model.VariantID
	OldQuantity int
	NewQuantity int
}

// IsEmpty returns true if no changes are needed.
func (d *Diff) IsEmpty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0 && len(d.ToUpdate) == 0
}

// DiffQuantities computes the delta between current and desired quantities.
// Output ordering is deterministic (sorted by variant ID) so that restore
// calls and synthesized removal events fire in a stable order.
func DiffQuantities(current, desired model.QuantityMap) *Diff {
	diff := &Diff{}

	for _, id := range desired.Variants() {
		want := desired[id]
		if have, ok := current[id]; ok {
			if have != want {
				diff.ToUpdate = append(diff.ToUpdate, Change{
					VariantID:   id,
					OldQuantity: have,
					NewQuantity: want,
				})
			}
		} else {
			diff.ToAdd = append(diff.ToAdd, Entry{VariantID: id, Quantity: want})
		}
	}

	for _, id := range current.Variants() {
		if _, ok := desired[id]; !ok {
			diff.ToRemove = append(diff.ToRemove, id)
		}
	}

	return diff
}
