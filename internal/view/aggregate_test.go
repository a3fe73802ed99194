package view

import (
	"testing"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

func TestRecompute(t *testing.T) {
	quantities := model.QuantityMap{"v1": 2, "v2": 3}
	prices := model.PriceMap{"v1": 1000, "v2": 250}

	got := Recompute(quantities, prices)

	if got.LineTotals["v1"] != 2000 {
		t.Errorf("v1 line total = %d, want 2000", got.LineTotals["v1"])
	}
	if got.LineTotals["v2"] != 750 {
		t.Errorf("v2 line total = %d, want 750", got.LineTotals["v2"])
	}
	if got.SubtotalMinorUnits != 2750 {
		t.Errorf("subtotal = %d, want 2750", got.SubtotalMinorUnits)
	}
	if got.ItemCount != 5 {
		t.Errorf("item count = %d, want 5", got.ItemCount)
	}
}

func TestRecompute_Deterministic(t *testing.T) {
	quantities := model.QuantityMap{"v1": 2, "v2": 3}
	prices := model.PriceMap{"v1": 1000, "v2": 250}

	first := Recompute(quantities, prices)
	second := Recompute(quantities, prices)

	if !first.Equal(second) {
		t.Errorf("repeat recompute differs: %v vs %v", first, second)
	}
}

func TestRecompute_UnknownPrice(t *testing.T) {
	got := Recompute(model.QuantityMap{"v1": 4}, model.PriceMap{})

	if got.ItemCount != 4 {
		t.Errorf("item count = %d, want 4", got.ItemCount)
	}
	if got.SubtotalMinorUnits != 0 {
		t.Errorf("subtotal = %d, want 0 for unpriced variant", got.SubtotalMinorUnits)
	}
}

func TestAggregator_PublishIdempotent(t *testing.T) {
	r := newRecordingRenderer()
	a := NewAggregator(r)
	a.MergePrices(model.PriceMap{"v1": 1000})

	quantities := model.QuantityMap{"v1": 2}

	first := a.Publish(quantities)
	renders := r.summaryCount()
	lineRenders := len(r.lineTotals["v1"])

	second := a.Publish(quantities)

	if !first.Equal(second) {
		t.Errorf("repeat publish returned different views")
	}
	if r.summaryCount() != renders {
		t.Error("unchanged publish re-rendered the summary")
	}
	if len(r.lineTotals["v1"]) != lineRenders {
		t.Error("unchanged publish re-rendered a line total")
	}
}

func TestAggregator_PublishRendersChanges(t *testing.T) {
	r := newRecordingRenderer()
	a := NewAggregator(r)
	a.MergePrices(model.PriceMap{"v1": 1000, "v2": 500})

	a.Publish(model.QuantityMap{"v1": 1, "v2": 1})
	a.Publish(model.QuantityMap{"v1": 2, "v2": 1})

	// v1 changed: two renders; v2 unchanged after first publish: one render
	if got := len(r.lineTotals["v1"]); got != 2 {
		t.Errorf("v1 renders = %d, want 2", got)
	}
	if got := len(r.lineTotals["v2"]); got != 1 {
		t.Errorf("v2 renders = %d, want 1", got)
	}
	if r.summaryCount() != 2 {
		t.Errorf("summary renders = %d, want 2", r.summaryCount())
	}
}

func TestAggregator_PublishLineUnchangedRendersNothing(t *testing.T) {
	r := newRecordingRenderer()
	a := NewAggregator(r)
	a.MergePrices(model.PriceMap{"v1": 1000})
	a.Publish(model.QuantityMap{"v1": 2})

	renders := len(r.lineTotals["v1"])

	// Repeating the same optimistic edit must not re-broadcast an
	// identical line total.
	a.PublishLine("v1", 2)
	if got := len(r.lineTotals["v1"]); got != renders {
		t.Errorf("v1 renders = %d, want %d for unchanged total", got, renders)
	}

	a.PublishLine("v1", 3)
	totals := r.lineTotals["v1"]
	if len(totals) != renders+1 || totals[len(totals)-1] != 3000 {
		t.Errorf("v1 totals = %v, want one more render of 3000", totals)
	}

	// The same total repeated optimistically stays suppressed too.
	a.PublishLine("v1", 3)
	if got := len(r.lineTotals["v1"]); got != renders+1 {
		t.Errorf("v1 renders = %d, want %d after duplicate edit", got, renders+1)
	}
}

func TestAggregator_RemovedLineRendersZero(t *testing.T) {
	r := newRecordingRenderer()
	a := NewAggregator(r)
	a.MergePrices(model.PriceMap{"v1": 1000})

	a.Publish(model.QuantityMap{"v1": 2})
	a.Publish(model.QuantityMap{})

	totals := r.lineTotals["v1"]
	if len(totals) == 0 || totals[len(totals)-1] != 0 {
		t.Errorf("removed line totals = %v, want trailing 0", totals)
	}
}

func TestAggregator_AbsorbCart(t *testing.T) {
	a := NewAggregator(nil)
	a.AbsorbCart(&model.CartSnapshot{
		Items: []model.CartLine{
			{VariantID: "v1", Quantity: 1, UnitPriceMinorUnits: 4200},
		},
	})

	got := a.Publish(model.QuantityMap{"v1": 2})
	if got.SubtotalMinorUnits != 8400 {
		t.Errorf("subtotal = %d, want 8400", got.SubtotalMinorUnits)
	}
}

func TestAggregator_EmptyFirstPublishRenders(t *testing.T) {
	r := newRecordingRenderer()
	a := NewAggregator(r)

	// First publish always renders the summary, even when empty, so the
	// badge starts from a known value.
	a.Publish(model.QuantityMap{})
	if r.summaryCount() != 1 {
		t.Errorf("summary renders = %d, want 1", r.summaryCount())
	}
}
