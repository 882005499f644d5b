package pricing

import "testing"

func TestComputeEmptyCart(t *testing.T) {
	summary := Compute(nil)
	if summary.Subtotal != 0 || summary.ShippingFee != 0 || summary.Total != 0 {
		t.Fatalf("expected all-zero summary for empty cart, got %+v", summary)
	}
}

func TestComputeBelowThresholdChargesFlatFee(t *testing.T) {
	summary := Compute([]Item{{Price: 10.00, Quantity: 2}})
	if summary.Subtotal != 20.00 {
		t.Fatalf("expected subtotal 20.00, got %v", summary.Subtotal)
	}
	if summary.ShippingFee != 4.99 {
		t.Fatalf("expected shipping fee 4.99, got %v", summary.ShippingFee)
	}
	if summary.Total != 24.99 {
		t.Fatalf("expected total 24.99, got %v", summary.Total)
	}
}

func TestComputeAtThresholdShipsFree(t *testing.T) {
	summary := Compute([]Item{{Price: 15.00, Quantity: 2}})
	if summary.ShippingFee != 0 {
		t.Fatalf("expected free shipping at subtotal 30.00, got fee %v", summary.ShippingFee)
	}
	if summary.Total != 30.00 {
		t.Fatalf("expected total 30.00, got %v", summary.Total)
	}
}

func TestComputeAboveThresholdShipsFree(t *testing.T) {
	summary := Compute([]Item{{Price: 25.00, Quantity: 3}})
	if summary.ShippingFee != 0 {
		t.Fatalf("expected free shipping above threshold, got fee %v", summary.ShippingFee)
	}
}

func TestComputeIgnoresInvalidLines(t *testing.T) {
	summary := Compute([]Item{
		{Price: -5.00, Quantity: 2},
		{Price: 10.00, Quantity: 0},
		{Price: 10.00, Quantity: -1},
		{Price: 5.00, Quantity: 1},
	})
	if summary.Subtotal != 5.00 {
		t.Fatalf("expected only the valid line priced, got subtotal %v", summary.Subtotal)
	}
	if summary.Total < 0 {
		t.Fatalf("total must never be negative, got %v", summary.Total)
	}
}

func TestComputeTotalIsSubtotalPlusFeeRounded(t *testing.T) {
	items := []float64{0.01, 9.99, 19.995, 29.99, 30.00, 100.50}
	for _, price := range items {
		summary := Compute([]Item{{Price: price, Quantity: 1}})
		want := Round2(summary.Subtotal + summary.ShippingFee)
		if summary.Total != want {
			t.Fatalf("price %v: total %v != subtotal+fee %v", price, summary.Total, want)
		}
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(24.994); got != 24.99 {
		t.Fatalf("expected 24.99, got %v", got)
	}
	if got := Round2(24.996); got != 25.00 {
		t.Fatalf("expected 25.00, got %v", got)
	}
}
