package quantity

import (
	"testing"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

func TestFromCart(t *testing.T) {
	cart := &model.CartSnapshot{
		Items: []model.CartLine{
			{VariantID: "v1", Quantity: 2},
			{VariantID: "v2", Quantity: 0}, // excluded
			{VariantID: "v3", Quantity: 7},
		},
	}

	got := FromCart(cart)

	want := model.QuantityMap{"v1": 2, "v3": 7}
	if !got.Equal(want) {
		t.Errorf("FromCart() = %v, want %v", got, want)
	}
}

func TestFromCart_Nil(t *testing.T) {
	got := FromCart(nil)
	if got == nil {
		t.Fatal("FromCart(nil) returned nil, want empty map")
	}
	if len(got) != 0 {
		t.Errorf("FromCart(nil) = %v, want empty", got)
	}
}

func TestFromForm(t *testing.T) {
	values := map[model.VariantID]string{
		"v1": "3",
		"v2": "0",   // excluded
		"v3": "-2",  // negative defaults to 0, excluded
		"v4": "abc", // malformed defaults to 0, excluded
		"v5": " 4 ", // whitespace tolerated
		"v6": "",    // empty defaults to 0, excluded
		"v7": "2.5", // not an integer, excluded
	}

	got := FromForm(values)

	want := model.QuantityMap{"v1": 3, "v5": 4}
	if !got.Equal(want) {
		t.Errorf("FromForm() = %v, want %v", got, want)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"plain integer", "5", 5},
		{"zero", "0", 0},
		{"empty", "", 0},
		{"whitespace only", "   ", 0},
		{"negative", "-3", 0},
		{"malformed", "2x", 0},
		{"decimal", "1.5", 0},
		{"padded", " 12 ", 12},
		{"large", "9999", 9999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.raw); got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}
