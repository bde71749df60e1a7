package cart

import (
	"errors"
	"sync"
)

var ErrDuplicateItem = errors.New("cart already contains this item")

// Item is a single cart line as the storefront added it. Prices are
// Colombian pesos, zero-decimal.
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"nombre"`
	Price    float64 `json:"precio"`
	Quantity int     `json:"cantidad"`
}

// Cart is the ordered item aggregate owned by a checkout session.
// Totals are derived on every call; nothing is memoized, so a mutation
// can never leave a stale total behind.
type Cart struct {
	mu    sync.Mutex
	items []Item
}

func New(items []Item) (*Cart, error) {
	c := &Cart{}
	for _, it := range items {
		if err := c.Add(it); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add appends an item, keeping IDs unique.
func (c *Cart) Add(it Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.items {
		if existing.ID == it.ID {
			return ErrDuplicateItem
		}
	}
	c.items = append(c.items, it)
	return nil
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, it := range c.items {
		total += it.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, it := range c.items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// Clear empties the cart. Called after a successful submission.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}
