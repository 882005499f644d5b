// Package cart holds the locally persisted shopping cart. The cart lives
// under a single storage key as a JSON array; every read decodes it fresh so
// an external overwrite of the key is picked up on the next access.
package cart

import (
	"encoding/json"
	"log"

	"storefront/internal/pricing"
	"storefront/internal/storage"
)

// Key is the storage key the cart snapshot is persisted under.
const Key = "cart"

// Item is a single cart line. Quantity is always at least 1; a line whose
// quantity reaches 0 is removed, never stored.
type Item struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

// Cart is a view over the persisted snapshot. Multiple Carts over the same
// store see one logical cart, last write wins.
type Cart struct {
	store storage.Store
}

func New(store storage.Store) *Cart {
	return &Cart{store: store}
}

// Store exposes the underlying storage port, shared with the checkout state
// that must survive the payment redirect.
func (c *Cart) Store() storage.Store { return c.store }

// Items returns the current snapshot. A missing or malformed stored value
// reads as an empty cart.
func (c *Cart) Items() []Item {
	raw, ok := c.store.Get(Key)
	if !ok {
		return []Item{}
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Println("[CART] [ERROR] stored cart unreadable, treating as empty:", err)
		return []Item{}
	}
	return items
}

// Add appends item to the cart, merging quantities when the product is
// already present. Non-positive quantities are treated as 1.
func (c *Cart) Add(item Item) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	items := c.Items()
	merged := false
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}
	c.persist(items)
}

// SetQuantity sets the absolute quantity for a product. A quantity of 0 or
// less removes the line.
func (c *Cart) SetQuantity(productID string, quantity int) {
	items := c.Items()
	next := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ProductID == productID {
			if quantity <= 0 {
				continue
			}
			item.Quantity = quantity
		}
		next = append(next, item)
	}
	c.persist(next)
}

// Adjust changes a product's quantity by delta, removing the line when the
// result drops to 0 or below.
func (c *Cart) Adjust(productID string, delta int) {
	items := c.Items()
	next := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ProductID == productID {
			item.Quantity += delta
			if item.Quantity <= 0 {
				continue
			}
		}
		next = append(next, item)
	}
	c.persist(next)
}

// Remove drops the line for productID if present.
func (c *Cart) Remove(productID string) {
	items := c.Items()
	next := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ProductID != productID {
			next = append(next, item)
		}
	}
	c.persist(next)
}

// Clear empties the cart permanently.
func (c *Cart) Clear() {
	c.store.Delete(Key)
}

// Summary prices the current snapshot.
func (c *Cart) Summary() pricing.Summary {
	return pricing.Compute(PricingItems(c.Items()))
}

// PricingItems converts cart lines into the pricing engine's view.
func PricingItems(items []Item) []pricing.Item {
	priced := make([]pricing.Item, 0, len(items))
	for _, item := range items {
		priced = append(priced, pricing.Item{Price: item.Price, Quantity: item.Quantity})
	}
	return priced
}

func (c *Cart) persist(items []Item) {
	data, err := json.Marshal(items)
	if err != nil {
		log.Println("[CART] [ERROR] cart marshal failed:", err)
		return
	}
	c.store.Set(Key, string(data))
}
