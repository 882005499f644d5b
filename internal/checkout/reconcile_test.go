package checkout

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"storefront/internal/cart"
	"storefront/internal/storage"
)

type fakeOrders struct {
	calls    int
	payloads []OrderPayload
	orderID  string
	err      error
}

func (f *fakeOrders) PlaceOrder(ctx context.Context, order OrderPayload) (string, error) {
	f.calls++
	f.payloads = append(f.payloads, order)
	if f.err != nil {
		return "", f.err
	}
	return f.orderID, nil
}

func reconcileFixture(t *testing.T) (*Reconciler, *cart.Cart, *storage.Memory, *fakeOrders) {
	t.Helper()
	store := storage.NewMemory()
	c := cart.New(store)
	c.Add(cart.Item{ProductID: "p1", Name: "Apples", Price: 10.00, Quantity: 2})
	store.Set(ShippingKey, `{"name":"Jane Doe","address":"123 Market St"}`)
	orders := &fakeOrders{orderID: "ord_1"}
	return NewReconciler(c, orders), c, store, orders
}

func successQuery(ref string) url.Values {
	q := url.Values{}
	q.Set("redirect_status", "succeeded")
	q.Set("payment_intent", ref)
	return q
}

func TestReconcileSucceededPersistsOneOrder(t *testing.T) {
	r, c, store, orders := reconcileFixture(t)

	result := r.Reconcile(context.Background(), successQuery("pi_123"))
	if !result.Saved || result.OrderID != "ord_1" {
		t.Fatalf("expected saved order ord_1, got %+v", result)
	}

	if orders.calls != 1 {
		t.Fatalf("expected one persistence call, got %d", orders.calls)
	}
	payload := orders.payloads[0]
	if payload.PaymentIntentID != "pi_123" {
		t.Fatalf("expected payment reference forwarded, got %q", payload.PaymentIntentID)
	}
	if payload.Subtotal != 20.00 || payload.ShippingFee != 4.99 || payload.Total != 24.99 {
		t.Fatalf("unexpected amounts %+v", payload)
	}
	if payload.Shipping.Name != "Jane Doe" || payload.Shipping.Address != "123 Market St" {
		t.Fatalf("expected shipping restored from storage, got %+v", payload.Shipping)
	}
	if len(payload.Items) != 1 || payload.Items[0].Product != "p1" || payload.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", payload.Items)
	}

	if _, ok := store.Get(MarkerKey("pi_123")); !ok {
		t.Fatal("expected idempotency marker set")
	}
	if items := c.Items(); len(items) != 0 {
		t.Fatalf("expected cart cleared, got %+v", items)
	}
}

func TestReconcileSecondVisitIsIdempotent(t *testing.T) {
	r, c, _, orders := reconcileFixture(t)

	first := r.Reconcile(context.Background(), successQuery("pi_123"))
	if !first.Saved {
		t.Fatalf("expected first pass saved, got %+v", first)
	}

	second := r.Reconcile(context.Background(), successQuery("pi_123"))
	if !second.AlreadySaved {
		t.Fatalf("expected second pass short-circuited by marker, got %+v", second)
	}
	if orders.calls != 1 {
		t.Fatalf("expected at most one order persisted, got %d calls", orders.calls)
	}
	if items := c.Items(); len(items) != 0 {
		t.Fatalf("expected cart to remain empty, got %+v", items)
	}
}

func TestReconcileFailedStatusKeepsCart(t *testing.T) {
	r, c, store, orders := reconcileFixture(t)

	q := url.Values{}
	q.Set("redirect_status", "failed")
	q.Set("payment_intent", "pi_123")

	result := r.Reconcile(context.Background(), q)
	if !result.Skipped {
		t.Fatalf("expected pass skipped, got %+v", result)
	}
	if orders.calls != 0 {
		t.Fatal("expected no persistence attempt for a failed payment")
	}
	if _, ok := store.Get(MarkerKey("pi_123")); ok {
		t.Fatal("expected no marker for a failed payment")
	}
	if items := c.Items(); len(items) != 1 {
		t.Fatalf("expected cart preserved for retry, got %+v", items)
	}
}

func TestReconcileWithoutPaymentReferenceProceeds(t *testing.T) {
	r, c, store, orders := reconcileFixture(t)

	result := r.Reconcile(context.Background(), url.Values{})
	if !result.Saved {
		t.Fatalf("expected non-payment-gated flow to reconcile, got %+v", result)
	}
	if orders.payloads[0].PaymentIntentID != "" {
		t.Fatalf("expected empty payment reference, got %q", orders.payloads[0].PaymentIntentID)
	}
	if _, ok := store.Get(MarkerKey("")); !ok {
		t.Fatal("expected fallback marker set")
	}
	if items := c.Items(); len(items) != 0 {
		t.Fatalf("expected cart cleared, got %+v", items)
	}
}

func TestReconcileEmptyCartDoesNothing(t *testing.T) {
	store := storage.NewMemory()
	c := cart.New(store)
	orders := &fakeOrders{orderID: "ord_1"}
	r := NewReconciler(c, orders)

	result := r.Reconcile(context.Background(), successQuery("pi_123"))
	if !result.Skipped {
		t.Fatalf("expected skip for empty cart, got %+v", result)
	}
	if orders.calls != 0 {
		t.Fatal("expected no persistence call for empty cart")
	}
	if _, ok := store.Get(MarkerKey("pi_123")); ok {
		t.Fatal("expected no marker when nothing was reconciled")
	}
}

func TestReconcilePersistenceFailureStillClearsCart(t *testing.T) {
	r, c, store, orders := reconcileFixture(t)
	orders.err = errors.New("order service unavailable")

	result := r.Reconcile(context.Background(), successQuery("pi_123"))
	if result.Saved {
		t.Fatalf("expected Saved=false on persistence failure, got %+v", result)
	}
	if result.PersistErr == nil {
		t.Fatal("expected persistence error reported")
	}

	// Payment already succeeded externally: the marker and the cleared cart
	// must not depend on the order write.
	if _, ok := store.Get(MarkerKey("pi_123")); !ok {
		t.Fatal("expected marker set despite persistence failure")
	}
	if items := c.Items(); len(items) != 0 {
		t.Fatalf("expected cart cleared despite persistence failure, got %+v", items)
	}

	// The marker also blocks a retry pass from double-charging bookkeeping.
	second := r.Reconcile(context.Background(), successQuery("pi_123"))
	if !second.AlreadySaved {
		t.Fatalf("expected marker to hold after failure, got %+v", second)
	}
	if orders.calls != 1 {
		t.Fatalf("expected one persistence attempt total, got %d", orders.calls)
	}
}

func TestMarkerKey(t *testing.T) {
	if got := MarkerKey("pi_123"); got != "orderSaved:pi_123" {
		t.Fatalf("unexpected marker key %q", got)
	}
	if got := MarkerKey(""); got != "orderSaved:local" {
		t.Fatalf("unexpected fallback marker key %q", got)
	}
}
