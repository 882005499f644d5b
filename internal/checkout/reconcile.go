package checkout

import (
	"context"
	"log"
	"net/url"

	"storefront/internal/cart"
	"storefront/internal/pricing"
)

const (
	markerPrefix      = "orderSaved:"
	fallbackMarkerRef = "local"

	statusSucceeded = "succeeded"
)

// Result reports what a reconciliation pass did.
type Result struct {
	// Saved is true when a new order was persisted this pass.
	Saved bool
	// AlreadySaved is true when the idempotency marker short-circuited the
	// pass (page reload, repeated redirect delivery).
	AlreadySaved bool
	// Skipped is true when nothing was reconciled and the cart was left
	// alone (failed payment status or an empty cart snapshot).
	Skipped bool
	// OrderID is the identifier returned by order persistence, when any.
	OrderID string
	// PersistErr holds a persistence failure. The cart is cleared and the
	// marker set regardless: payment already succeeded, so the user is
	// never blocked on this secondary write.
	PersistErr error
}

// Reconciler converts a confirmed payment redirect into exactly one durable
// order. It runs in a fresh process after the redirect and relies only on
// what the Flow persisted to storage.
type Reconciler struct {
	cart   *cart.Cart
	orders OrderPlacer
}

func NewReconciler(c *cart.Cart, orders OrderPlacer) *Reconciler {
	return &Reconciler{cart: c, orders: orders}
}

// MarkerKey returns the storage key recording that the given transaction
// reference was already reconciled. An empty reference (non-payment-gated
// flow) uses a fixed fallback key.
func MarkerKey(paymentIntentID string) string {
	if paymentIntentID == "" {
		return markerPrefix + fallbackMarkerRef
	}
	return markerPrefix + paymentIntentID
}

// Reconcile consumes the return-destination query parameters. It persists at
// most one order per transaction reference: the local marker is checked
// before any work and set before the pass ends, whether or not persistence
// succeeded. Absence of a payment_intent parameter means no payment gate was
// involved and reconciliation proceeds unconditionally.
func (r *Reconciler) Reconcile(ctx context.Context, query url.Values) Result {
	ref := query.Get("payment_intent")
	status := query.Get("redirect_status")

	if ref != "" && status != statusSucceeded {
		log.Printf("[RECONCILE] [INFO] payment %s status %q, keeping cart for retry", ref, status)
		return Result{Skipped: true}
	}

	store := r.cart.Store()
	markerKey := MarkerKey(ref)
	if _, done := store.Get(markerKey); done {
		log.Printf("[RECONCILE] [INFO] %s already reconciled, skipping", markerKey)
		return Result{AlreadySaved: true}
	}

	items := r.cart.Items()
	if len(items) == 0 {
		log.Println("[RECONCILE] [INFO] empty cart snapshot, nothing to reconcile")
		return Result{Skipped: true}
	}

	shipping, _ := loadShipping(store)
	summary := pricing.Compute(cart.PricingItems(items))

	payload := OrderPayload{
		Items:           make([]OrderPayloadItem, 0, len(items)),
		Subtotal:        summary.Subtotal,
		ShippingFee:     summary.ShippingFee,
		Total:           summary.Total,
		Shipping:        shipping,
		PaymentIntentID: ref,
	}
	for _, item := range items {
		payload.Items = append(payload.Items, OrderPayloadItem{
			Product:  item.ProductID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	orderID, err := r.orders.PlaceOrder(ctx, payload)

	// Marker and cart cleanup happen on both paths. Once payment has
	// succeeded externally, a failed order write must not leave the cart
	// primed to charge the user again on the next visit.
	store.Set(markerKey, "1")
	r.cart.Clear()

	if err != nil {
		log.Printf("[RECONCILE] [ERROR] order persistence failed for %s: %v", markerKey, err)
		return Result{PersistErr: err}
	}

	log.Printf("[RECONCILE] [INFO] order %s persisted for %s", orderID, markerKey)
	return Result{Saved: true, OrderID: orderID}
}
