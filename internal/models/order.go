package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderItem represents a single product entry within an order.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// OrderShipping captures the shipping destination collected at checkout.
type OrderShipping struct {
	Name    string `bson:"name" json:"name"`
	Address string `bson:"address" json:"address"`
}

// Order defines the persisted order document. Orders are immutable once
// created: there is no update or delete path in the checkout flow.
type Order struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          *primitive.ObjectID `bson:"userId" json:"userId"`
	Shipping        OrderShipping       `bson:"shipping" json:"shipping"`
	Items           []OrderItem         `bson:"items" json:"items"`
	Subtotal        float64             `bson:"subtotal" json:"subtotal"`
	ShippingFee     float64             `bson:"shippingFee" json:"shippingFee"`
	Total           float64             `bson:"total" json:"total"`
	PaymentIntentID string              `bson:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
}
