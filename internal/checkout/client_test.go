package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIClientCreateIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/payments/create-payment-intent" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Amount float64 `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Amount != 24.99 {
			t.Fatalf("expected amount 24.99, got %v", body.Amount)
		}
		w.Write([]byte(`{"clientSecret":"pi_123_secret"}`))
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, "")
	secret, err := client.CreateIntent(context.Background(), 24.99)
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if secret != "pi_123_secret" {
		t.Fatalf("unexpected secret %q", secret)
	}
}

func TestAPIClientCreateIntentSurfacesBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"payment init failed"}`))
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, "")
	if _, err := client.CreateIntent(context.Background(), 24.99); err == nil {
		t.Fatal("expected error from backend failure")
	}
}

func TestAPIClientPlaceOrderSendsTokenAndPayload(t *testing.T) {
	var gotAuth string
	var gotPayload OrderPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"orderId":"ord_42"}`))
	}))
	defer server.Close()

	client := NewAPIClient(server.URL, "token-abc")
	orderID, err := client.PlaceOrder(context.Background(), OrderPayload{
		Items:           []OrderPayloadItem{{Product: "p1", Name: "Apples", Price: 10.00, Quantity: 2}},
		Subtotal:        20.00,
		ShippingFee:     4.99,
		Total:           24.99,
		Shipping:        ShippingInfo{Name: "Jane Doe", Address: "123 Market St"},
		PaymentIntentID: "pi_123",
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if orderID != "ord_42" {
		t.Fatalf("unexpected order id %q", orderID)
	}
	if gotAuth != "Bearer token-abc" {
		t.Fatalf("expected bearer token forwarded, got %q", gotAuth)
	}
	if gotPayload.PaymentIntentID != "pi_123" || gotPayload.Total != 24.99 {
		t.Fatalf("unexpected payload %+v", gotPayload)
	}
}
