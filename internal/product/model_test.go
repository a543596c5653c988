package product

import "testing"

func TestVariantPurchasable(t *testing.T) {
	cases := []struct {
		name string
		v    Variant
		qty  int
		want bool
	}{
		{"active with stock", Variant{IsActive: true, Inventory: 3}, 3, true},
		{"active short", Variant{IsActive: true, Inventory: 2}, 3, false},
		{"inactive with stock", Variant{IsActive: false, Inventory: 10}, 1, false},
		{"zero qty on empty", Variant{IsActive: true, Inventory: 0}, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.v.Purchasable(tc.qty); got != tc.want {
				t.Fatalf("Purchasable(%d)=%v, want %v", tc.qty, got, tc.want)
			}
		})
	}
}
