// Package pricing derives checkout totals from cart contents. All values are
// computed fresh from the cart on every call; nothing here is cached.
package pricing

import "math"

const (
	// FreeShippingThreshold is the subtotal at which shipping becomes free.
	FreeShippingThreshold = 30.00
	// FlatShippingFee applies to every order below the threshold.
	FlatShippingFee = 4.99
)

// Item is the minimal view of a cart line the engine prices.
type Item struct {
	Price    float64
	Quantity int
}

// Summary holds the derived order amounts.
type Summary struct {
	Subtotal    float64 `json:"subtotal"`
	ShippingFee float64 `json:"shippingFee"`
	Total       float64 `json:"total"`
}

// Compute prices the given items. Lines with a non-positive price or quantity
// contribute nothing rather than producing a negative subtotal. An empty cart
// ships free, as does any subtotal at or above the threshold.
func Compute(items []Item) Summary {
	subtotal := 0.0
	for _, item := range items {
		if item.Price <= 0 || item.Quantity <= 0 {
			continue
		}
		subtotal += item.Price * float64(item.Quantity)
	}
	subtotal = Round2(subtotal)

	fee := 0.0
	if subtotal > 0 && subtotal < FreeShippingThreshold {
		fee = FlatShippingFee
	}

	return Summary{
		Subtotal:    subtotal,
		ShippingFee: fee,
		Total:       Round2(subtotal + fee),
	}
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
