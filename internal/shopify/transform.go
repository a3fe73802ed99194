package shopify

import (
	"strconv"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

// CartToSnapshot converts an AJAX cart response to the engine's cart
// snapshot. Lines at quantity 0 are dropped; Shopify never returns them,
// but a defensively written theme may echo one back.
func CartToSnapshot(cart *AjaxCart) *model.CartSnapshot {
	snap := &model.CartSnapshot{
		ItemCount:            cart.ItemCount,
		TotalPriceMinorUnits: int64(cart.TotalPrice),
	}
	for _, item := range cart.Items {
		if item.Quantity <= 0 {
			continue
		}
		snap.Items = append(snap.Items, model.CartLine{
			VariantID:           variantID(item),
			Quantity:            item.Quantity,
			UnitPriceMinorUnits: int64(item.Price),
			LinePriceMinorUnits: int64(item.LinePrice),
		})
	}
	return snap
}

// variantID prefers the explicit variant_id field; older API responses
// only populate id.
func variantID(item AjaxItem) model.VariantID {
	id := item.VariantID
	if id == 0 {
		id = item.ID
	}
	return model.VariantID(strconv.FormatInt(id, 10))
}
