// Package cart holds the register's in-progress order. Carts live only in
// memory and are never written to the database.
package cart

import (
	"sync"
)

// Item is the product snapshot captured when it was first added.
type Item struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url,omitempty"`
}

// Line is one cart entry.
type Line struct {
	Item
	Quantity int `json:"quantity"`
}

// Subtotal is price * quantity for the line.
func (l Line) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// Cart is an insertion-ordered map from product id to line.
// A Cart is not safe for concurrent use; Store serialises access.
type Cart struct {
	order []uint
	lines map[uint]*Line
}

func New() *Cart {
	return &Cart{lines: make(map[uint]*Line)}
}

// Add increments the quantity of an existing line or inserts the product
// with quantity 1.
func (c *Cart) Add(item Item) {
	if l, ok := c.lines[item.ProductID]; ok {
		l.Quantity++
		return
	}
	c.lines[item.ProductID] = &Line{Item: item, Quantity: 1}
	c.order = append(c.order, item.ProductID)
}

// Remove decrements the line; removing the last unit deletes it.
// Unknown ids are ignored.
func (c *Cart) Remove(productID uint) {
	l, ok := c.lines[productID]
	if !ok {
		return
	}
	if l.Quantity > 1 {
		l.Quantity--
		return
	}
	c.drop(productID)
}

// Subtract takes the quantities of sold lines out of the cart. Units added
// after the lines were read stay in the cart.
func (c *Cart) Subtract(sold []Line) {
	for _, s := range sold {
		l, ok := c.lines[s.ProductID]
		if !ok {
			continue
		}
		l.Quantity -= s.Quantity
		if l.Quantity <= 0 {
			c.drop(s.ProductID)
		}
	}
}

func (c *Cart) drop(productID uint) {
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Total sums price * quantity over all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, id := range c.order {
		total += c.lines[id].Subtotal()
	}
	return total
}

// Lines returns a copy of the entries in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

func (c *Cart) Len() int      { return len(c.order) }
func (c *Cart) IsEmpty() bool { return len(c.order) == 0 }

func (c *Cart) Clear() {
	c.order = nil
	c.lines = make(map[uint]*Line)
}

// Summary is the JSON view of a cart.
type Summary struct {
	Lines []Line  `json:"lines"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

func (c *Cart) Summary() Summary {
	s := Summary{Lines: c.Lines(), Total: c.Total()}
	for _, l := range s.Lines {
		s.Count += l.Quantity
	}
	return s
}

// Store keeps one cart per register session (keyed by user id).
type Store struct {
	mu    sync.Mutex
	carts map[uint]*Cart
}

func NewStore() *Store {
	return &Store{carts: make(map[uint]*Cart)}
}

// With runs fn against the user's cart while holding the store lock. The cart
// is created empty on first use.
func (s *Store) With(userID uint, fn func(c *Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		c = New()
		s.carts[userID] = c
	}
	fn(c)
}

// Snapshot returns the user's current lines without holding the lock
// afterwards.
func (s *Store) Snapshot(userID uint) []Line {
	var lines []Line
	s.With(userID, func(c *Cart) { lines = c.Lines() })
	return lines
}

// Drop discards the user's cart.
func (s *Store) Drop(userID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}
