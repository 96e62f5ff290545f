package pricing

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func TestComputeStandardPipeline(t *testing.T) {
	// subtotal 100.00, order discount 10% -> 10.00, tax 14% on 90.00 -> 12.60,
	// tip 9.00 -> total 111.60
	totals := Compute(Input{
		Lines: []Line{
			{Quantity: 2, UnitPrice: 25},
			{Quantity: 1, UnitPrice: 50},
		},
		DiscountType:           DiscountPercentage,
		DiscountValue:          10,
		MaxDiscountPercent:     50,
		MaxItemDiscountPercent: 30,
		TaxRate:                14,
		TipAmount:              9,
	})

	if totals.Subtotal != 100 {
		t.Fatalf("expected subtotal 100, got %v", totals.Subtotal)
	}
	if totals.DiscountAmount != 10 {
		t.Fatalf("expected discount 10, got %v", totals.DiscountAmount)
	}
	if totals.TaxAmount != 12.6 {
		t.Fatalf("expected tax 12.60, got %v", totals.TaxAmount)
	}
	if totals.Total != 111.6 {
		t.Fatalf("expected total 111.60, got %v", totals.Total)
	}
	if totals.DiscountCapped {
		t.Fatalf("expected no cap")
	}
}

func TestComputeInvariant(t *testing.T) {
	totals := Compute(Input{
		Lines: []Line{
			{Quantity: 3, UnitPrice: 12.35},
			{Quantity: 1, UnitPrice: 7.99, DiscountType: DiscountPercentage, DiscountValue: 15},
			{Quantity: 2, UnitPrice: 4.5, Voided: true},
		},
		DiscountType:           DiscountFixed,
		DiscountValue:          5,
		MaxDiscountPercent:     50,
		MaxItemDiscountPercent: 30,
		TaxRate:                11,
		ServiceCharge:          2.5,
		TipAmount:              3.75,
	})

	reassembled := totals.Subtotal - totals.DiscountAmount + totals.TaxAmount + totals.ServiceCharge + totals.TipAmount
	if !almostEqual(totals.Total, reassembled) {
		t.Fatalf("invariant broken: total %v, reassembled %v", totals.Total, reassembled)
	}
}

func TestComputeVoidedLinesExcluded(t *testing.T) {
	totals := Compute(Input{
		Lines: []Line{
			{Quantity: 1, UnitPrice: 40},
			{Quantity: 1, UnitPrice: 60, Voided: true},
		},
		MaxDiscountPercent:     50,
		MaxItemDiscountPercent: 30,
		TaxRate:                10,
	})
	if totals.Subtotal != 40 {
		t.Fatalf("expected subtotal 40, got %v", totals.Subtotal)
	}
}

func TestComputeOrderDiscountCap(t *testing.T) {
	totals := Compute(Input{
		Lines:                  []Line{{Quantity: 1, UnitPrice: 100}},
		DiscountType:           DiscountPercentage,
		DiscountValue:          80,
		MaxDiscountPercent:     50,
		MaxItemDiscountPercent: 30,
		TaxRate:                0,
	})
	if totals.DiscountAmount != 50 {
		t.Fatalf("expected discount capped at 50, got %v", totals.DiscountAmount)
	}
	if !totals.DiscountCapped {
		t.Fatalf("expected capped flag")
	}
}

func TestComputeFixedDiscountNeverExceedsSubtotal(t *testing.T) {
	totals := Compute(Input{
		Lines:                  []Line{{Quantity: 1, UnitPrice: 20}},
		DiscountType:           DiscountFixed,
		DiscountValue:          35,
		MaxDiscountPercent:     100,
		MaxItemDiscountPercent: 100,
	})
	if totals.DiscountAmount != 20 || !totals.DiscountCapped {
		t.Fatalf("expected discount 20 capped, got %v capped=%v", totals.DiscountAmount, totals.DiscountCapped)
	}
	if totals.Total != 0 {
		t.Fatalf("expected total 0, got %v", totals.Total)
	}
	// A fully-comped order is valid: the base lands on zero, never below.
	if BaseAmount(totals) != 0 {
		t.Fatalf("expected base 0 for a fully discounted order, got %v", BaseAmount(totals))
	}
}

func TestBaseAmountNeverNegative(t *testing.T) {
	cases := []struct {
		name  string
		input Input
	}{
		{
			name: "fixed discount above subtotal",
			input: Input{
				Lines:                  []Line{{Quantity: 1, UnitPrice: 15}},
				DiscountType:           DiscountFixed,
				DiscountValue:          500,
				MaxDiscountPercent:     100,
				MaxItemDiscountPercent: 100,
			},
		},
		{
			name: "stacked item and order discounts",
			input: Input{
				Lines: []Line{
					{Quantity: 1, UnitPrice: 30, DiscountType: DiscountPercentage, DiscountValue: 100},
					{Quantity: 1, UnitPrice: 20, DiscountType: DiscountFixed, DiscountValue: 20},
				},
				DiscountType:           DiscountPercentage,
				DiscountValue:          100,
				MaxDiscountPercent:     100,
				MaxItemDiscountPercent: 100,
				TaxRate:                10,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totals := Compute(tc.input)
			if base := BaseAmount(totals); base < 0 {
				t.Fatalf("base must never go negative, got %v", base)
			}
		})
	}
}

func TestComputeItemDiscountIndependentlyCapped(t *testing.T) {
	totals := Compute(Input{
		Lines: []Line{
			{Quantity: 1, UnitPrice: 100, DiscountType: DiscountPercentage, DiscountValue: 40},
		},
		MaxDiscountPercent:     50,
		MaxItemDiscountPercent: 30,
	})
	if totals.ItemDiscount != 30 {
		t.Fatalf("expected item discount capped at 30, got %v", totals.ItemDiscount)
	}
	if !totals.DiscountCapped {
		t.Fatalf("expected capped flag")
	}
}

func TestTipFromPercent(t *testing.T) {
	amount, pct, capped, err := TipFromPercent(90, 10, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 9 || pct != 10 || capped {
		t.Fatalf("expected 9.00 at 10%%, got %v at %v capped=%v", amount, pct, capped)
	}

	// requested 60% against a 50% ceiling
	amount, pct, capped, err = TipFromPercent(90, 60, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount != 45 || pct != 50 || !capped {
		t.Fatalf("expected 45.00 at 50%% capped, got %v at %v capped=%v", amount, pct, capped)
	}

	if _, _, _, err := TipFromPercent(0, 10, 50); err != ErrZeroValueOrder {
		t.Fatalf("expected ErrZeroValueOrder, got %v", err)
	}
}

func TestCapTipAmount(t *testing.T) {
	applied, pct, capped, err := CapTipAmount(54, 90, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied != 45 || pct != 50 || !capped {
		t.Fatalf("expected 45 at 50%% capped, got %v at %v capped=%v", applied, pct, capped)
	}
}
