// Package checkout orchestrates the cart-to-order flow: opening a payment
// transaction, collecting shipping details, handing control to the external
// processor, and reconciling the redirect back into exactly one order.
//
// The flow is split into two independent stages connected only by durable
// storage. Stage one (Flow) writes everything stage two needs before control
// leaves via the processor's redirect; stage two (Reconciler) assumes it runs
// in a fresh process with no memory beyond that storage.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storefront/internal/storage"
)

// ShippingKey is the storage key shipping details survive the redirect under.
const ShippingKey = "shipping"

// ShippingInfo is the destination collected before payment. It is persisted
// on every submission attempt because the processor's redirect destroys all
// in-memory state.
type ShippingInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// BillingDetails is forwarded to the processor with the confirmation call.
type BillingDetails struct {
	Name    string
	Email   string
	Address string
}

// OrderPayloadItem is one order line as submitted to order persistence.
type OrderPayloadItem struct {
	Product  string  `json:"product"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// OrderPayload is the order-persistence contract.
type OrderPayload struct {
	Items           []OrderPayloadItem `json:"items"`
	Subtotal        float64            `json:"subtotal"`
	ShippingFee     float64            `json:"shippingFee"`
	Total           float64            `json:"total"`
	Shipping        ShippingInfo       `json:"shipping"`
	PaymentIntentID string             `json:"paymentIntentId,omitempty"`
}

// IntentCreator opens one payment transaction per call and returns the
// client-usable secret.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amount float64) (string, error)
}

// Confirmer triggers the processor's confirmation operation. On the success
// path the processor redirects the caller away and no value comes back; a
// synchronous error means the confirmation failed without redirecting.
type Confirmer interface {
	ConfirmPayment(ctx context.Context, clientSecret string, billing BillingDetails, returnURL string) error
}

// OrderPlacer persists a reconciled order and returns its identifier.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, order OrderPayload) (string, error)
}

// ValidationError reports missing or invalid shipping fields. The flow stays
// in CollectingDetails and the message is shown inline.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConfirmError reports a synchronous confirmation failure (declined card,
// processor-side validation). Resubmission is user-initiated, never automatic.
type ConfirmError struct {
	Message string
}

func (e *ConfirmError) Error() string { return e.Message }

func validateShipping(info ShippingInfo) (ShippingInfo, error) {
	info.Name = strings.TrimSpace(info.Name)
	info.Address = strings.TrimSpace(info.Address)
	if info.Name == "" || info.Address == "" {
		return info, &ValidationError{Message: "name and address are required"}
	}
	return info, nil
}

func loadShipping(store storage.Store) (ShippingInfo, bool) {
	raw, ok := store.Get(ShippingKey)
	if !ok {
		return ShippingInfo{}, false
	}
	var info ShippingInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return ShippingInfo{}, false
	}
	return info, strings.TrimSpace(info.Name) != "" || strings.TrimSpace(info.Address) != ""
}

func saveShipping(store storage.Store, info ShippingInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("persist shipping: %w", err)
	}
	store.Set(ShippingKey, string(raw))
	return nil
}
