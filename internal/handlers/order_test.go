package handlers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func validOrderRequest() createOrderRequest {
	return createOrderRequest{
		Items: []createOrderItemRequest{
			{Product: primitive.NewObjectID().Hex(), Name: "Apples", Price: 10.00, Quantity: 2},
		},
		Shipping: createOrderShippingRequest{Name: "Jane Doe", Address: "123 Market St"},
	}
}

func TestBuildOrderFromRequestRequiresItems(t *testing.T) {
	req := validOrderRequest()
	req.Items = nil
	if _, err := buildOrderFromRequest(req); err == nil {
		t.Fatal("expected error for empty items")
	}
}

func TestBuildOrderFromRequestRequiresShipping(t *testing.T) {
	cases := []createOrderShippingRequest{
		{Name: "", Address: "123 Market St"},
		{Name: "Jane", Address: "   "},
	}
	for _, shipping := range cases {
		req := validOrderRequest()
		req.Shipping = shipping
		if _, err := buildOrderFromRequest(req); err == nil {
			t.Fatalf("expected error for shipping %+v", shipping)
		}
	}
}

func TestBuildOrderFromRequestRejectsBadQuantity(t *testing.T) {
	req := validOrderRequest()
	req.Items[0].Quantity = 0
	if _, err := buildOrderFromRequest(req); err == nil {
		t.Fatal("expected error for zero quantity")
	}
}

func TestBuildOrderFromRequestRejectsBadProductID(t *testing.T) {
	req := validOrderRequest()
	req.Items[0].Product = "not-an-object-id"
	if _, err := buildOrderFromRequest(req); err == nil {
		t.Fatal("expected error for invalid product id")
	}
}

func TestBuildOrderFromRequestTrimsShipping(t *testing.T) {
	req := validOrderRequest()
	req.Shipping = createOrderShippingRequest{Name: " Jane Doe ", Address: " 123 Market St "}
	req.PaymentIntentID = " pi_123 "

	order, err := buildOrderFromRequest(req)
	if err != nil {
		t.Fatalf("buildOrderFromRequest: %v", err)
	}
	if order.Shipping.Name != "Jane Doe" || order.Shipping.Address != "123 Market St" {
		t.Fatalf("expected trimmed shipping, got %+v", order.Shipping)
	}
	if order.PaymentIntentID != "pi_123" {
		t.Fatalf("expected trimmed payment reference, got %q", order.PaymentIntentID)
	}
}

func TestApplyOrderAmountsRecomputesTotals(t *testing.T) {
	order := models.Order{
		Items: []models.OrderItem{
			{Name: "Apples", Price: 10.00, Quantity: 2},
		},
		// Client-submitted amounts must be overridden.
		Subtotal: 1.00,
		Total:    1.00,
	}

	applyOrderAmounts(&order)
	if order.Subtotal != 20.00 {
		t.Fatalf("expected subtotal 20.00, got %v", order.Subtotal)
	}
	if order.ShippingFee != 4.99 {
		t.Fatalf("expected shipping fee 4.99, got %v", order.ShippingFee)
	}
	if order.Total != 24.99 {
		t.Fatalf("expected total 24.99, got %v", order.Total)
	}
}

func TestUserIDFromHeader(t *testing.T) {
	const secret = "test-secret"
	userID := primitive.NewObjectID()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID.Hex(),
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	got, err := userIDFromHeader("Bearer "+signed, secret)
	if err != nil {
		t.Fatalf("userIDFromHeader: %v", err)
	}
	if got == nil || *got != userID {
		t.Fatalf("expected user id %s, got %v", userID.Hex(), got)
	}
}

func TestUserIDFromHeaderGuest(t *testing.T) {
	got, err := userIDFromHeader("", "secret")
	if err != nil {
		t.Fatalf("expected guest to pass with no error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil user id for guest, got %v", got)
	}
}

func TestUserIDFromHeaderRejectsBadTokens(t *testing.T) {
	cases := []string{
		"NotBearer token",
		"Bearer",
		"Bearer invalid.token.value",
	}
	for _, header := range cases {
		if _, err := userIDFromHeader(header, "secret"); err == nil {
			t.Fatalf("expected error for header %q", header)
		}
	}
}
