// Package cart is the client-side shopping cart: an ordered list of product
// snapshots with quantities, written through to a durable store after every
// change.
package cart

import (
	"context"
	"fmt"
	"sync"

	"eshop/internal/models"
	"eshop/internal/notice"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Item is one cart line. Product is the snapshot taken when it was added.
type Item struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// Notifier receives the user-facing notices produced by cart operations.
type Notifier interface {
	Enqueue(message string, kind notice.Kind) notice.Notice
}

// Cart holds the items a shopper intends to buy. Every effective mutation is
// persisted before the call returns. Invariants: a product id appears at most
// once and every quantity is at least 1.
type Cart struct {
	mu      sync.Mutex
	items   []Item
	store   Store
	notices Notifier
	log     logrus.FieldLogger
}

// New creates an empty cart. notices may be nil.
func New(store Store, notices Notifier, log logrus.FieldLogger) *Cart {
	return &Cart{
		store:   store,
		notices: notices,
		log:     log,
	}
}

// Rehydrate replaces the in-memory cart with the persisted one. A missing or
// unreadable cart yields an empty cart; it never fails.
func (c *Cart) Rehydrate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.store.Load(ctx)
	if err != nil {
		c.log.WithError(err).Warn("persisted cart is unreadable, starting empty")
		c.items = nil
		return
	}
	c.items = sanitize(items)
}

// AddItem appends product with quantity 1. A product already in the cart is
// left alone and reported with an error notice. err is only set when the
// cart could not be persisted.
func (c *Cart) AddItem(ctx context.Context, product models.Product) (added bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(product.ID) >= 0 {
		c.notify(fmt.Sprintf("%s is already in cart!", product.Title), notice.KindError)
		return false, nil
	}

	c.items = append(c.items, Item{Product: product, Quantity: 1})
	err = c.persist(ctx)
	c.notify(fmt.Sprintf("%s added to cart!", product.Title), notice.KindSuccess)
	return true, err
}

// RemoveItem drops the line for productID. Removing an absent product is a no-op.
func (c *Cart) RemoveItem(ctx context.Context, productID string) (removed bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID)
	if i < 0 {
		return false, nil
	}

	item := c.items[i]
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	err = c.persist(ctx)
	c.notify(fmt.Sprintf("%s removed from cart!", item.Product.Title), notice.KindError)
	return true, err
}

// SetQuantity sets the quantity of productID in place, clamping to a minimum
// of 1. Unknown products are ignored.
func (c *Cart) SetQuantity(ctx context.Context, productID string, quantity int) (updated bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(productID)
	if i < 0 {
		return false, nil
	}
	if quantity < 1 {
		quantity = 1
	}
	c.items[i].Quantity = quantity
	return true, c.persist(ctx)
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	return c.persist(ctx)
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// TotalItems is the sum of all quantities.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// TotalAmount is the sum of price × quantity, rounded to cents.
func (c *Cart) TotalAmount() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(2)
}

// Persist writes the whole cart to the store.
func (c *Cart) Persist(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persist(ctx)
}

func (c *Cart) persist(ctx context.Context) error {
	snapshot := make([]Item, len(c.items))
	copy(snapshot, c.items)
	if err := c.store.Save(ctx, snapshot); err != nil {
		c.log.WithError(err).WithField("items", len(snapshot)).Error("failed to persist cart")
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}

func (c *Cart) indexOf(productID string) int {
	for i, item := range c.items {
		if item.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) notify(message string, kind notice.Kind) {
	if c.notices != nil {
		c.notices.Enqueue(message, kind)
	}
}

// sanitize restores the cart invariants on data read from outside.
func sanitize(items []Item) []Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Product.ID == "" {
			continue
		}
		if _, dup := seen[item.Product.ID]; dup {
			continue
		}
		seen[item.Product.ID] = struct{}{}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		out = append(out, item)
	}
	return out
}
