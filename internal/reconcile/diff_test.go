package reconcile

import (
	"testing"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

func TestDiffQuantities_EmptyToItems(t *testing.T) {
	// Empty current, items in desired → all adds
	diff := DiffQuantities(model.QuantityMap{}, model.QuantityMap{"v1": 2, "v2": 1})

	if len(diff.ToAdd) != 2 {
		t.Errorf("ToAdd = %d, want 2", len(diff.ToAdd))
	}
	if len(diff.ToRemove) != 0 {
		t.Errorf("ToRemove = %d, want 0", len(diff.ToRemove))
	}
	if len(diff.ToUpdate) != 0 {
		t.Errorf("ToUpdate = %d, want 0", len(diff.ToUpdate))
	}
}

func TestDiffQuantities_ItemsToEmpty(t *testing.T) {
	// Items in current, empty desired → all removes
	diff := DiffQuantities(model.QuantityMap{"v1": 2, "v2": 1}, model.QuantityMap{})

	if len(diff.ToAdd) != 0 {
		t.Errorf("ToAdd = %d, want 0", len(diff.ToAdd))
	}
	if len(diff.ToRemove) != 2 {
		t.Errorf("ToRemove = %d, want 2", len(diff.ToRemove))
	}
}

func TestDiffQuantities_QuantityUpdate(t *testing.T) {
	diff := DiffQuantities(model.QuantityMap{"v1": 2}, model.QuantityMap{"v1": 5})

	if len(diff.ToUpdate) != 1 {
		t.Fatalf("ToUpdate = %d, want 1", len(diff.ToUpdate))
	}
	if diff.ToUpdate[0].OldQuantity != 2 {
		t.Errorf("OldQuantity = %d, want 2", diff.ToUpdate[0].OldQuantity)
	}
	if diff.ToUpdate[0].NewQuantity != 5 {
		t.Errorf("NewQuantity = %d, want 5", diff.ToUpdate[0].NewQuantity)
	}
}

func TestDiffQuantities_NoChange(t *testing.T) {
	diff := DiffQuantities(model.QuantityMap{"v1": 2}, model.QuantityMap{"v1": 2})

	if !diff.IsEmpty() {
		t.Error("Expected empty diff for identical maps")
	}
}

func TestDiffQuantities_MixedOperations(t *testing.T) {
	current := model.QuantityMap{
		"v1": 2, // will be removed
		"v2": 1, // will be updated
		"v3": 3, // unchanged
	}
	desired := model.QuantityMap{
		"v2": 5, // update from 1 to 5
		"v3": 3, // no change
		"v4": 1, // add
	}

	diff := DiffQuantities(current, desired)

	if len(diff.ToAdd) != 1 || diff.ToAdd[0].VariantID != "v4" {
		t.Errorf("ToAdd = %v, want [v4]", diff.ToAdd)
	}
	if len(diff.ToRemove) != 1 || diff.ToRemove[0] != "v1" {
		t.Errorf("ToRemove = %v, want [v1]", diff.ToRemove)
	}
	if len(diff.ToUpdate) != 1 || diff.ToUpdate[0].VariantID != "v2" {
		t.Errorf("ToUpdate = %v, want [v2]", diff.ToUpdate)
	}
}

func TestDiffQuantities_DeterministicOrder(t *testing.T) {
	desired := model.QuantityMap{"v3": 1, "v1": 1, "v2": 1}

	for i := 0; i < 10; i++ {
		diff := DiffQuantities(model.QuantityMap{}, desired)
		if len(diff.ToAdd) != 3 {
			t.Fatalf("ToAdd = %d, want 3", len(diff.ToAdd))
		}
		if diff.ToAdd[0].VariantID != "v1" || diff.ToAdd[1].VariantID != "v2" || diff.ToAdd[2].VariantID != "v3" {
			t.Fatalf("ToAdd order = %v, want sorted by variant ID", diff.ToAdd)
		}
	}
}

func TestDiff_IsEmpty(t *testing.T) {
	empty := &Diff{}
	if !empty.IsEmpty() {
		t.Error("Expected empty diff to report IsEmpty=true")
	}

	withAdd := &Diff{ToAdd: []Entry{{VariantID: "v1", Quantity: 1}}}
	if withAdd.IsEmpty() {
		t.Error("Expected diff with adds to report IsEmpty=false")
	}

	withRemove := &Diff{ToRemove: []model.VariantID{"v1"}}
	if withRemove.IsEmpty() {
		t.Error("Expected diff with removes to report IsEmpty=false")
	}

	withUpdate := &Diff{ToUpdate: []Change{{VariantID: "v1"}}}
	if withUpdate.IsEmpty() {
		t.Error("Expected diff with updates to report IsEmpty=false")
	}
}
